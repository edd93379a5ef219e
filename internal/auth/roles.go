package auth

// ロール（カテゴリ）タグ。バッジ番号の先頭一桁から導出されます。
const (
	CategoryExecutive = "executive"
	CategoryVIP       = "vip"
	CategoryDirector  = "director"
	CategoryManager   = "manager"
	CategoryNewHire   = "newHire"
	CategoryCampaign  = "campaign"
	CategoryRegular   = "regular"
	CategoryUnknown   = "unknown"
)

var badgeCategories = map[byte]string{
	'1': CategoryExecutive,
	'2': CategoryVIP,
	'3': CategoryDirector,
	'4': CategoryManager,
	'5': CategoryNewHire,
	'6': CategoryCampaign,
	'7': CategoryRegular,
}

// DetermineCategory はバッジ番号の先頭一桁からユーザーのロールを導出します。
// 対応表にない先頭桁や空のバッジ番号は unknown になります。
func DetermineCategory(badge string) string {
	if badge == "" {
		return CategoryUnknown
	}
	if category, ok := badgeCategories[badge[0]]; ok {
		return category
	}
	return CategoryUnknown
}

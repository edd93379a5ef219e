// Package models はブログのエンティティ定義を提供します。
package models

// User は登録ユーザーを表します。
// パスワードとPINはbcryptハッシュとして保存し、平文は保持しません。
type User struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Email    string `gorm:"size:100;uniqueIndex;not null" json:"email"`
	Password string `gorm:"size:100;not null" json:"-"`
	Name     string `gorm:"size:100;not null" json:"name"`
	Badge    string `gorm:"size:100;uniqueIndex;not null" json:"badge"`
	PIN      string `gorm:"size:100;not null;column:pin" json:"-"`
	Category string `gorm:"size:50" json:"category"`
	Company  string `gorm:"size:150" json:"company,omitempty"`

	// ユーザー削除時は投稿・コメントも連鎖して削除されます。
	Posts    []BlogPost `gorm:"foreignKey:AuthorID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Comments []Comment  `gorm:"foreignKey:AuthorID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

// BlogPost はブログ記事を表します。
type BlogPost struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	AuthorID uint   `gorm:"index;not null" json:"author_id"`
	Title    string `gorm:"size:250;uniqueIndex;not null" json:"title"`
	Subtitle string `gorm:"size:250;not null" json:"subtitle"`
	Date     string `gorm:"size:250;not null" json:"date"`
	Body     string `gorm:"type:text;not null" json:"body"`
	ImgURL   string `gorm:"size:250;not null" json:"img_url"`

	Author User `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"author"`
	// 記事削除時はコメントも連鎖して削除されます。
	Comments []Comment `gorm:"foreignKey:PostID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"comments,omitempty"`
}

// Comment は記事へのコメントを表します。
type Comment struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Text     string `gorm:"type:text;not null" json:"text"`
	AuthorID uint   `gorm:"index;not null" json:"author_id"`
	PostID   uint   `gorm:"index;not null" json:"post_id"`

	Author User `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"author"`
}

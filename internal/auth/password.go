package auth

import "golang.org/x/crypto/bcrypt"

// HashSecret はパスワードやPINをbcryptでハッシュ化します。
// bcryptはソルトをハッシュ内に埋め込むため、別途保存する必要はありません。
func HashSecret(secret string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifySecret は平文の秘密情報を保存済みハッシュと照合します。
func VerifySecret(hash, secret string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)) == nil
}

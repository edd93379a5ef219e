package database

import (
	"path/filepath"
	"testing"

	"github.com/yourusername/badge-blog/internal/models"
)

func TestNormalizeDSN(t *testing.T) {
	cases := []struct {
		dsn      string
		expected string
	}{
		{"blog.db", "blog.db?_foreign_keys=on"},
		{"file:blog.db", "file:blog.db?_foreign_keys=on"},
		{"file:blog.db?cache=shared", "file:blog.db?cache=shared&_foreign_keys=on"},
		{"file:blog.db?_foreign_keys=on", "file:blog.db?_foreign_keys=on"},
		{"file:blog.db?_fk=true", "file:blog.db?_fk=true"},
	}

	for _, tc := range cases {
		if got := normalizeDSN(tc.dsn); got != tc.expected {
			t.Errorf("normalizeDSN(%q) = %q, want %q", tc.dsn, got, tc.expected)
		}
	}
}

// 外部キー指定のないDSNでも、プールのどのコネクションに当たっても
// 連鎖削除が効くことを確認する。
func TestOpenEnforcesForeignKeysAcrossConnections(t *testing.T) {
	dsn := "file:" + filepath.Join(t.TempDir(), "blog.db")
	db, err := Open(dsn)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}

	// アイドルコネクションを保持させず、リクエストごとに新しい
	// コネクションが使われる状況を再現する
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxIdleConns(0)

	user := models.User{
		Email:    "alice@example.com",
		Password: "$2a$10$not-a-real-hash",
		Name:     "Alice",
		Badge:    "10045",
		PIN:      "$2a$10$not-a-real-hash",
		Category: "executive",
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	post := models.BlogPost{
		AuthorID: user.ID,
		Title:    "First Post",
		Subtitle: "Sub",
		Date:     "January 01, 2026",
		Body:     "Body",
		ImgURL:   "https://example.com/img.png",
	}
	if err := db.Create(&post).Error; err != nil {
		t.Fatalf("failed to create post: %v", err)
	}
	comment := models.Comment{
		Text:     "nice post",
		AuthorID: user.ID,
		PostID:   post.ID,
	}
	if err := db.Create(&comment).Error; err != nil {
		t.Fatalf("failed to create comment: %v", err)
	}

	if err := db.Delete(&models.BlogPost{}, post.ID).Error; err != nil {
		t.Fatalf("failed to delete post: %v", err)
	}

	var count int64
	if err := db.Model(&models.Comment{}).Count(&count).Error; err != nil {
		t.Fatalf("failed to count comments: %v", err)
	}
	if count != 0 {
		t.Fatalf("orphaned comments after post delete = %d, want 0", count)
	}
}

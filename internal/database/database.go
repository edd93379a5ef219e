// Package database はデータベース接続の初期化とマイグレーションを提供します。
package database

import (
	"fmt"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yourusername/badge-blog/internal/models"
)

// Open はSQLiteデータベースに接続し、スキーマを最新化して返します。
func Open(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(normalizeDSN(dsn)), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.BlogPost{},
		&models.Comment{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	return db, nil
}

// normalizeDSN は _foreign_keys=on をDSNに補います。
// PRAGMA文での有効化はプールされた単一コネクションにしか効かないため、
// 全コネクションに適用されるようDSNパラメータで指定します。
func normalizeDSN(dsn string) string {
	if strings.Contains(dsn, "_foreign_keys=") || strings.Contains(dsn, "_fk=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_foreign_keys=on"
}

package main

import (
	"fmt"

	redis "github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/yourusername/badge-blog/internal/auth"
	"github.com/yourusername/badge-blog/internal/config"
	"github.com/yourusername/badge-blog/internal/database"
)

func setupDatabase(cfg *config.Config) (*gorm.DB, error) {
	return database.Open(cfg.DatabaseDSN)
}

// setupAttempts はログイン試行カウンタを用意します。
// REDIS_URL が設定されていれば複数インスタンスで共有できるRedis実装を使い、
// そうでなければインメモリ実装にフォールバックします。
func setupAttempts(cfg *config.Config) (auth.AttemptLimiter, error) {
	if cfg.RedisURL == "" {
		return auth.NewMemoryAttempts(), nil
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	return auth.NewRedisAttempts(redis.NewClient(opt)), nil
}

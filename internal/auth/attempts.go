package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	loginWindow      = 15 * time.Minute
	lockDuration     = 10 * time.Minute
	maxLoginAttempts = 5
)

// AttemptLimiter はIP単位のログイン試行回数を管理します。
type AttemptLimiter interface {
	// CheckLock はロック中であれば残り時間を返します（未ロックなら0）。
	CheckLock(ctx context.Context, ip string) time.Duration
	// RecordFailure は失敗を記録し、残り試行回数を返します。
	RecordFailure(ctx context.Context, ip string) int
	// Reset はログイン成功時に試行履歴を消去します。
	Reset(ctx context.Context, ip string)
}

type attemptState struct {
	count        int
	firstAttempt time.Time
	lockedUntil  time.Time
}

// MemoryAttempts は単一インスタンス向けのインメモリ試行カウンタです。
type MemoryAttempts struct {
	lock     sync.Mutex
	attempts map[string]*attemptState
}

// NewMemoryAttempts は MemoryAttempts を作成します。
func NewMemoryAttempts() *MemoryAttempts {
	return &MemoryAttempts{attempts: make(map[string]*attemptState)}
}

func (m *MemoryAttempts) CheckLock(_ context.Context, ip string) time.Duration {
	m.lock.Lock()
	defer m.lock.Unlock()

	state, ok := m.attempts[ip]
	if !ok {
		return 0
	}
	now := time.Now()
	if now.After(state.lockedUntil) {
		return 0
	}
	return time.Until(state.lockedUntil)
}

func (m *MemoryAttempts) RecordFailure(_ context.Context, ip string) int {
	m.lock.Lock()
	defer m.lock.Unlock()

	now := time.Now()
	state, ok := m.attempts[ip]
	if !ok || now.Sub(state.firstAttempt) > loginWindow {
		state = &attemptState{firstAttempt: now}
		m.attempts[ip] = state
	}

	state.count++
	if state.count >= maxLoginAttempts {
		state.lockedUntil = now.Add(lockDuration)
		state.count = maxLoginAttempts
	}

	remaining := maxLoginAttempts - state.count
	if remaining < 0 {
		remaining = 0
	}
	return remaining
}

func (m *MemoryAttempts) Reset(_ context.Context, ip string) {
	m.lock.Lock()
	defer m.lock.Unlock()
	delete(m.attempts, ip)
}

const (
	attemptKeyPrefix = "login_attempts:"
	lockKeyPrefix    = "login_lock:"
)

// RedisAttempts は複数インスタンスで共有できるRedisベースの試行カウンタです。
type RedisAttempts struct {
	rdb *redis.Client
}

// NewRedisAttempts は RedisAttempts を作成します。
func NewRedisAttempts(rdb *redis.Client) *RedisAttempts {
	return &RedisAttempts{rdb: rdb}
}

func (r *RedisAttempts) CheckLock(ctx context.Context, ip string) time.Duration {
	ttl, err := r.rdb.TTL(ctx, lockKey(ip)).Result()
	if err != nil || ttl <= 0 {
		return 0
	}
	return ttl
}

func (r *RedisAttempts) RecordFailure(ctx context.Context, ip string) int {
	key := attemptKey(ip)

	// INCRとEXPIREをパイプラインでまとめて実行する。片方だけ成功して
	// TTLなしのキーが残ると失敗回数が永久に積み上がるため、期限は
	// 失敗のたびに設定し直す。
	pipe := r.rdb.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, loginWindow)
	if _, err := pipe.Exec(ctx); err != nil {
		// Redisが落ちている間はロックよりも可用性を優先する
		return maxLoginAttempts - 1
	}

	count := incr.Val()
	if count >= int64(maxLoginAttempts) {
		r.rdb.Set(ctx, lockKey(ip), "1", lockDuration)
	}

	remaining := maxLoginAttempts - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return remaining
}

func (r *RedisAttempts) Reset(ctx context.Context, ip string) {
	r.rdb.Del(ctx, attemptKey(ip), lockKey(ip))
}

func attemptKey(ip string) string {
	return fmt.Sprintf("%s%s", attemptKeyPrefix, ip)
}

func lockKey(ip string) string {
	return fmt.Sprintf("%s%s", lockKeyPrefix, ip)
}

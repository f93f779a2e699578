package user

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/SlpAus/little-learners-backend/internal/platform/health"
	"github.com/redis/go-redis/v9"
)

// loginAttemptKeyPrefix 是每个手机号的登录尝试记录
// Key: login_attempts:<phone>，有序集合，Score 为尝试时间（微秒）
const loginAttemptKeyPrefix = "login_attempts:"

// LoginLimiter 用滑动窗口限制同一手机号的登录尝试次数
type LoginLimiter struct {
	rdb    *redis.Client
	max    int64
	window time.Duration
	now    func() time.Time
}

// NewLoginLimiter 创建限制器，maxAttempts <= 0 时返回 nil，表示不限制
func NewLoginLimiter(rdb *redis.Client, maxAttempts int, window time.Duration) *LoginLimiter {
	if maxAttempts <= 0 || rdb == nil {
		return nil
	}
	return &LoginLimiter{rdb: rdb, max: int64(maxAttempts), window: window, now: time.Now}
}

// attemptID 生成16字节的成员ID：8字节纳秒时间戳加8字节随机数
func attemptID(t time.Time) (string, error) {
	b := make([]byte, 16)
	binary.BigEndian.PutUint64(b[0:8], uint64(t.UnixNano()))
	if _, err := rand.Read(b[8:16]); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// Allow 记录一次尝试，并返回窗口内的尝试次数是否仍在限制之内。
// Redis 不可用时放行，会话本身会在随后失败。
func (l *LoginLimiter) Allow(ctx context.Context, phone string) (bool, error) {
	if l == nil || !health.IsRedisHealthy() {
		return true, nil
	}

	now := l.now()
	member, err := attemptID(now)
	if err != nil {
		return false, fmt.Errorf("生成尝试ID失败: %w", err)
	}
	key := loginAttemptKeyPrefix + phone
	minScore := float64(now.Add(-l.window).UnixMicro())

	pipe := l.rdb.TxPipeline()
	pipe.ZRemRangeByScore(ctx, key, "-inf", fmt.Sprintf("(%f", minScore))
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(now.UnixMicro()), Member: member})
	pipe.Expire(ctx, key, l.window)
	countCmd := pipe.ZCard(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		health.MarkDegraded()
		return false, fmt.Errorf("执行登录计数事务失败: %w", err)
	}
	return countCmd.Val() <= l.max, nil
}

// Reset 在登录成功后清空该手机号的尝试记录
func (l *LoginLimiter) Reset(ctx context.Context, phone string) error {
	if l == nil || !health.IsRedisHealthy() {
		return nil
	}
	return l.rdb.Del(ctx, loginAttemptKeyPrefix+phone).Err()
}

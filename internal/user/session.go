package user

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/SlpAus/little-learners-backend/pkg/token"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// sessionKeyPrefix 是会话在Redis中的键前缀
// Key: session:<uuidv7>
// Value: Session 的JSON
const sessionKeyPrefix = "session:"

// ErrNoSession 表示Cookie缺失、签名无效或会话已过期
var ErrNoSession = errors.New("no valid session")

// Session 是保存在服务端的会话内容。
// 年龄段只用于日志，授权相关的判断总是重新读取用户表。
type Session struct {
	UserID    uint      `json:"user_id"`
	Username  string    `json:"username"`
	Age       string    `json:"age"`
	CreatedAt time.Time `json:"created_at"`
}

// SessionStore 用Redis保存会话，Cookie中只有签名后的会话ID
type SessionStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewSessionStore(rdb *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{rdb: rdb, ttl: ttl}
}

// TTL 返回会话有效期
func (s *SessionStore) TTL() time.Duration { return s.ttl }

// Create 为用户创建会话，返回应写入Cookie的值
func (s *SessionStore) Create(ctx context.Context, u *User) (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("无法生成会话ID: %w", err)
	}
	raw, err := json.Marshal(Session{
		UserID:    u.ID,
		Username:  u.Username,
		Age:       u.Age,
		CreatedAt: time.Now(),
	})
	if err != nil {
		return "", fmt.Errorf("无法序列化会话: %w", err)
	}
	if err := s.rdb.Set(ctx, sessionKeyPrefix+id.String(), raw, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("写入会话失败: %w", err)
	}
	return token.Sign(id.String()), nil
}

// Load 校验Cookie签名并读取会话
func (s *SessionStore) Load(ctx context.Context, cookie string) (*Session, error) {
	id, err := parseCookie(cookie)
	if err != nil {
		return nil, err
	}
	raw, err := s.rdb.Get(ctx, sessionKeyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNoSession
		}
		return nil, fmt.Errorf("读取会话失败: %w", err)
	}
	var sess Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, ErrNoSession
	}
	return &sess, nil
}

// Destroy 删除会话，会话不存在时不报错
func (s *SessionStore) Destroy(ctx context.Context, cookie string) error {
	id, err := parseCookie(cookie)
	if err != nil {
		return nil
	}
	return s.rdb.Del(ctx, sessionKeyPrefix+id).Err()
}

func parseCookie(cookie string) (string, error) {
	id, err := token.Verify(cookie)
	if err != nil {
		return "", ErrNoSession
	}
	if _, err := uuid.Parse(id); err != nil {
		return "", ErrNoSession
	}
	return id, nil
}

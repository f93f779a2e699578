package token

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"strings"
	"sync"
)

var (
	mu sync.RWMutex
	// secretKey 是签名会话令牌使用的32字节密钥。
	secretKey []byte
)

// ErrMalformed 表示令牌格式错误或签名不匹配
var ErrMalformed = errors.New("token: malformed or tampered")

// SetSecret 由配置中的服务器密钥派生签名密钥。
// 为空时生成一个随机密钥，此时服务重启后旧令牌全部失效。
func SetSecret(secret string) {
	if secret == "" {
		GenerateSecretKey()
		return
	}
	sum := sha256.Sum256([]byte(secret))
	mu.Lock()
	secretKey = sum[:]
	mu.Unlock()
}

// GenerateSecretKey 生成一个密码学安全的32字节随机密钥。
func GenerateSecretKey() {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		panic("无法生成安全的密钥: " + err.Error())
	}
	mu.Lock()
	secretKey = key
	mu.Unlock()
}

func signature(payload string) []byte {
	mu.RLock()
	key := secretKey
	mu.RUnlock()
	if key == nil {
		GenerateSecretKey()
		return signature(payload)
	}
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(payload))
	return mac.Sum(nil)
}

// Sign 返回 "<payload>.<base64签名>" 形式的令牌
func Sign(payload string) string {
	return payload + "." + base64.RawURLEncoding.EncodeToString(signature(payload))
}

// Verify 校验令牌并返回其中的 payload
func Verify(tok string) (string, error) {
	idx := strings.LastIndexByte(tok, '.')
	if idx <= 0 || idx == len(tok)-1 {
		return "", ErrMalformed
	}
	payload, sigB64 := tok[:idx], tok[idx+1:]

	actual, err := base64.RawURLEncoding.DecodeString(sigB64)
	if err != nil {
		return "", ErrMalformed
	}
	// 时间恒定的比较，防止时序攻击
	if !hmac.Equal(signature(payload), actual) {
		return "", ErrMalformed
	}
	return payload, nil
}

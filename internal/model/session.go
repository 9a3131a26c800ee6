package model

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
)

// 会话内保留键
const (
	SessionKeyUser     = "_auth_user"
	SessionKeyStaff    = "_auth_user_staff"
	SessionKeyMessages = "_messages"
)

// Session 服务端会话
// Key 为明文会话键，只出现在 Cookie 和内存中；持久化时使用 HashToken(Key)
type Session struct {
	Key       string         `json:"-"`
	Data      map[string]any `json:"data"`
	ExpiresAt time.Time      `json:"expires_at"`

	modified bool
}

// NewSessionKey 生成 32 字节随机会话键（十六进制）
func NewSessionKey() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate session key: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// Get 读取会话值
func (s *Session) Get(key string) (any, bool) {
	v, ok := s.Data[key]
	return v, ok
}

// GetString 读取字符串值，不存在或类型不符时返回空串
func (s *Session) GetString(key string) string {
	v, _ := s.Data[key].(string)
	return v
}

// GetBool 读取布尔值
func (s *Session) GetBool(key string) bool {
	v, _ := s.Data[key].(bool)
	return v
}

// Decode 把会话值解码到 dst
// 值可能是内存中的原始类型，也可能是从存储反序列化得到的 map/slice
func (s *Session) Decode(key string, dst any) (bool, error) {
	v, ok := s.Data[key]
	if !ok {
		return false, nil
	}
	raw, err := sonic.Marshal(v)
	if err != nil {
		return true, err
	}
	return true, sonic.Unmarshal(raw, dst)
}

// Set 写入会话值
func (s *Session) Set(key string, value any) {
	if s.Data == nil {
		s.Data = make(map[string]any)
	}
	s.Data[key] = value
	s.modified = true
}

// Delete 删除会话值
func (s *Session) Delete(key string) {
	if _, ok := s.Data[key]; ok {
		delete(s.Data, key)
		s.modified = true
	}
}

// Flush 清空会话数据
func (s *Session) Flush() {
	if len(s.Data) > 0 {
		s.Data = make(map[string]any)
		s.modified = true
	}
}

// Modified 本次请求中是否修改过
func (s *Session) Modified() bool {
	return s.modified
}

// MarkModified 标记为已修改（数据未变但需要重新保存，例如轮换会话键）
func (s *Session) MarkModified() {
	s.modified = true
}

// MarkClean 持久化后清除修改标记
func (s *Session) MarkClean() {
	s.modified = false
}

// IsExpired 是否已过期
func (s *Session) IsExpired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}

// HashToken 计算令牌的SHA256哈希值
// 会话键只以哈希形式落库
func HashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}

// MaskToken 脱敏显示令牌(仅显示前4后4字符)
func MaskToken(token string) string {
	if len(token) <= 8 {
		return "****"
	}
	return token[:4] + "****" + token[len(token)-4:]
}

package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"

	"gymcore/internal/model"
)

// keyPrefix 会话缓存 key 前缀，后接会话键的 SHA256
const keyPrefix = "gymcore:session:"

// SessionCache Redis 会话缓存
// REDIS_URL 为空时禁用，所有方法变为空操作
type SessionCache struct {
	client  *redis.Client
	enabled bool
	timeout time.Duration
}

// cachedSession Redis 中存储的会话
type cachedSession struct {
	Data      map[string]any `json:"data"`
	ExpiresAt int64          `json:"expires_at"`
}

// NewSessionCache 创建Redis会话缓存
func NewSessionCache(redisURL string) (*SessionCache, error) {
	if redisURL == "" {
		return &SessionCache{enabled: false}, nil
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	// 连接池参数
	opts.PoolSize = 10
	opts.MinIdleConns = 2
	opts.ConnMaxLifetime = 5 * time.Minute
	opts.DialTimeout = 3 * time.Second
	opts.ReadTimeout = 2 * time.Second
	opts.WriteTimeout = 2 * time.Second

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &SessionCache{
		client:  client,
		enabled: true,
		timeout: 2 * time.Second,
	}, nil
}

// Close 关闭Redis连接
func (c *SessionCache) Close() error {
	if !c.enabled {
		return nil
	}
	return c.client.Close()
}

// IsEnabled 检查Redis缓存是否启用
func (c *SessionCache) IsEnabled() bool {
	return c.enabled
}

func cacheKey(sessionKey string) string {
	return keyPrefix + model.HashToken(sessionKey)
}

// Get 读取缓存的会话，未命中返回 (nil, nil)
func (c *SessionCache) Get(ctx context.Context, key string) (*model.Session, error) {
	if !c.enabled {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	data, err := c.client.Get(ctx, cacheKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var cs cachedSession
	if err := sonic.Unmarshal(data, &cs); err != nil {
		return nil, fmt.Errorf("unmarshal cached session: %w", err)
	}
	sess := &model.Session{Key: key, Data: cs.Data, ExpiresAt: time.Unix(cs.ExpiresAt, 0)}
	if sess.IsExpired(time.Now()) {
		return nil, nil
	}
	if sess.Data == nil {
		sess.Data = make(map[string]any)
	}
	return sess, nil
}

// Set 写入会话，TTL 为剩余有效期；已过期的会话直接删除
func (c *SessionCache) Set(ctx context.Context, sess *model.Session) error {
	if !c.enabled {
		return nil
	}

	ttl := time.Until(sess.ExpiresAt)
	if ttl <= 0 {
		return c.Delete(ctx, sess.Key)
	}

	data, err := sonic.Marshal(cachedSession{Data: sess.Data, ExpiresAt: sess.ExpiresAt.Unix()})
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return c.client.Set(ctx, cacheKey(sess.Key), data, ttl).Err()
}

// Delete 删除缓存的会话
func (c *SessionCache) Delete(ctx context.Context, key string) error {
	if !c.enabled {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return c.client.Del(ctx, cacheKey(key)).Err()
}

// HealthCheck 检查Redis连接状态
func (c *SessionCache) HealthCheck(ctx context.Context) error {
	if !c.enabled {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return c.client.Ping(ctx).Err()
}

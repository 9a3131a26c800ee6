package storage

import (
	"context"

	"gymcore/internal/model"
	"gymcore/internal/storage/schema"
)

// SessionStore 服务端会话存储接口
type SessionStore interface {
	// GetSession 会话不存在或已过期时返回 (nil, nil)
	GetSession(ctx context.Context, key string) (*model.Session, error)
	SaveSession(ctx context.Context, sess *model.Session) error
	DeleteSession(ctx context.Context, key string) error
	CleanExpiredSessions(ctx context.Context) (int64, error)
	CountSessions(ctx context.Context) (int64, error)
}

// Store 数据持久化接口
type Store interface {
	SessionStore

	Ping(ctx context.Context) error
	Dialect() schema.Dialect

	// IsRedisEnabled 是否启用了 Redis 会话缓存
	IsRedisEnabled() bool

	// Close 关闭数据库连接并释放资源
	Close() error
}

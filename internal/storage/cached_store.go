package storage

import (
	"context"
	"errors"
	"log"

	"gymcore/internal/model"
	redisstore "gymcore/internal/storage/redis"
	"gymcore/internal/storage/schema"
	sqlstore "gymcore/internal/storage/sql"
)

// CachedStore SQL 主存储 + Redis 会话缓存
//
// - 读：先查 Redis，未命中回源 SQL 并回填
// - 写：先写 SQL（source of truth），再写 Redis；Redis 失败仅警告
// - 过期清理只作用于 SQL，Redis 依赖 TTL
type CachedStore struct {
	db    *sqlstore.SQLStore
	cache *redisstore.SessionCache
}

// NewCachedStore 创建带缓存的存储
func NewCachedStore(db *sqlstore.SQLStore, cache *redisstore.SessionCache) *CachedStore {
	return &CachedStore{db: db, cache: cache}
}

// GetSession 读穿缓存
func (c *CachedStore) GetSession(ctx context.Context, key string) (*model.Session, error) {
	sess, err := c.cache.Get(ctx, key)
	if err != nil {
		log.Printf("[WARN] 会话缓存读取失败，回源数据库: key=%s, err=%v", model.MaskToken(key), err)
	} else if sess != nil {
		return sess, nil
	}

	sess, err = c.db.GetSession(ctx, key)
	if err != nil || sess == nil {
		return sess, err
	}
	if err := c.cache.Set(ctx, sess); err != nil {
		log.Printf("[WARN] 会话缓存回填失败: %v", err)
	}
	return sess, nil
}

// SaveSession 写穿缓存
func (c *CachedStore) SaveSession(ctx context.Context, sess *model.Session) error {
	if err := c.db.SaveSession(ctx, sess); err != nil {
		return err
	}
	if err := c.cache.Set(ctx, sess); err != nil {
		log.Printf("[WARN] 会话缓存写入失败: %v", err)
	}
	return nil
}

// DeleteSession 同时删除数据库与缓存
// 缓存删除失败会返回错误，避免已注销的会话继续从缓存命中
func (c *CachedStore) DeleteSession(ctx context.Context, key string) error {
	dbErr := c.db.DeleteSession(ctx, key)
	cacheErr := c.cache.Delete(ctx, key)
	return errors.Join(dbErr, cacheErr)
}

// CleanExpiredSessions 清理数据库中过期会话
func (c *CachedStore) CleanExpiredSessions(ctx context.Context) (int64, error) {
	return c.db.CleanExpiredSessions(ctx)
}

// CountSessions 未过期会话数量
func (c *CachedStore) CountSessions(ctx context.Context) (int64, error) {
	return c.db.CountSessions(ctx)
}

// Ping 检查数据库与 Redis
func (c *CachedStore) Ping(ctx context.Context) error {
	if err := c.db.Ping(ctx); err != nil {
		return err
	}
	return c.cache.HealthCheck(ctx)
}

// Dialect 数据库方言
func (c *CachedStore) Dialect() schema.Dialect {
	return c.db.Dialect()
}

// IsRedisEnabled 缓存是否启用
func (c *CachedStore) IsRedisEnabled() bool {
	return c.cache.IsEnabled()
}

// Close 关闭缓存与数据库
func (c *CachedStore) Close() error {
	return errors.Join(c.cache.Close(), c.db.Close())
}

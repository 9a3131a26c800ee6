// Package sql 提供基于 SQL 的会话存储实现。
// 支持 SQLite、MySQL 和 PostgreSQL，实现统一的 storage.Store 接口。
package sql

import (
	"context"
	"database/sql"
	"strconv"
	"strings"

	"gymcore/internal/storage/schema"
)

// SQLStore 通用SQL存储实现
// 三种方言的时间均以 Unix 秒存储，只有占位符和 upsert 语法不同
type SQLStore struct {
	db      *sql.DB
	dialect schema.Dialect
}

// NewSQLStore 创建通用SQL存储实例
// db: 数据库连接（由调用方初始化）
func NewSQLStore(db *sql.DB, dialect schema.Dialect) *SQLStore {
	return &SQLStore{db: db, dialect: dialect}
}

// DB 底层连接（迁移使用）
func (s *SQLStore) DB() *sql.DB {
	return s.db
}

// Dialect 数据库方言
func (s *SQLStore) Dialect() schema.Dialect {
	return s.dialect
}

// Ping 检查数据库连接
func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// IsRedisEnabled 纯SQL存储不使用Redis
func (s *SQLStore) IsRedisEnabled() bool {
	return false
}

// Close 关闭数据库连接
func (s *SQLStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// rebind 把 ? 占位符改写为当前方言的形式
func (s *SQLStore) rebind(query string) string {
	return Rebind(s.dialect, query)
}

// Rebind PostgreSQL 使用 $1..$n 占位符，其余方言原样返回
func Rebind(d schema.Dialect, query string) string {
	if d != schema.DialectPostgres || !strings.Contains(query, "?") {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	inQuote := false
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case c == '\'':
			inQuote = !inQuote
			b.WriteByte(c)
		case c == '?' && !inQuote:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"  // PostgreSQL driver
	_ "modernc.org/sqlite" // SQLite driver

	"gymcore/internal/config"
	apperrors "gymcore/internal/errors"
	redisstore "gymcore/internal/storage/redis"
	"gymcore/internal/storage/schema"
	sqlstore "gymcore/internal/storage/sql"
)

// NewStore 根据配置创建存储实例（工厂模式）
//
// 两种模式：
//   - 纯 SQL 模式：REDIS_URL 未设置（默认）
//   - 缓存模式：REDIS_URL 已设置，会话读写同时经过 Redis
//
// 启动时会自动执行迁移
func NewStore(ctx context.Context, s *config.Settings) (Store, error) {
	db, err := Open(ctx, s.Default())
	if err != nil {
		return nil, err
	}

	migrateCtx, cancel := context.WithTimeout(ctx, config.StartupMigrationTimeout)
	defer cancel()
	if _, err := Migrate(migrateCtx, db.DB(), db.Dialect()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s 迁移失败（超时%v）: %w", db.Dialect(), config.StartupMigrationTimeout, err)
	}

	if s.RedisURL == "" {
		return db, nil
	}

	cache, err := redisstore.NewSessionCache(s.RedisURL)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("Redis 初始化失败: %w", err)
	}
	log.Print("[INFO] 会话缓存已启用（Redis）")
	return NewCachedStore(db, cache), nil
}

// CreateSQLiteStore 直接创建并迁移 SQLite 存储（测试辅助函数）
// 生产代码应使用 NewStore() 工厂函数
func CreateSQLiteStore(path string) (*sqlstore.SQLStore, error) {
	ctx := context.Background()
	db, err := Open(ctx, config.DatabaseConfig{Engine: config.EngineSQLite, Name: path})
	if err != nil {
		return nil, err
	}
	if _, err := Migrate(ctx, db.DB(), db.Dialect()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// Open 按引擎打开数据库连接并测试连通性（不执行迁移）
func Open(ctx context.Context, cfg config.DatabaseConfig) (*sqlstore.SQLStore, error) {
	driver, dsn, err := DriverDSN(cfg)
	if err != nil {
		return nil, err
	}

	if cfg.Engine == config.EngineSQLite {
		if err := os.MkdirAll(filepath.Dir(cfg.Name), 0o750); err != nil { //nolint:gosec // G301: 数据目录需要服务进程可写
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, apperrors.DBOpenError(string(cfg.Engine), err)
	}

	dialect := DialectOf(cfg.Engine)
	if dialect == schema.DialectSQLite {
		// SQLite 单进程多连接并发写会触发 BUSY，强制单连接（单写者模式）
		db.SetMaxOpenConns(config.SQLiteMaxOpenConns)
		db.SetMaxIdleConns(config.SQLiteMaxOpenConns)
	} else {
		db.SetMaxOpenConns(config.ServerMaxOpenConns)
		db.SetMaxIdleConns(config.ServerMaxIdleConns)
	}
	db.SetConnMaxLifetime(config.SQLConnMaxLifetime)

	// 测试连接（带超时，Fail-Fast）
	pingCtx, cancel := context.WithTimeout(ctx, config.StartupDBPingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, apperrors.DBOpenError(string(cfg.Engine), fmt.Errorf("ping（超时%v）: %w", config.StartupDBPingTimeout, err))
	}

	log.Printf("[INFO] 使用 %s 存储: %s", cfg.Engine, describe(cfg))
	return sqlstore.NewSQLStore(db, dialect), nil
}

// DialectOf 引擎对应的 SQL 方言
func DialectOf(e config.Engine) schema.Dialect {
	switch e {
	case config.EnginePostgres:
		return schema.DialectPostgres
	case config.EngineMySQL:
		return schema.DialectMySQL
	default:
		return schema.DialectSQLite
	}
}

// DriverDSN 返回 database/sql 驱动名与 DSN
func DriverDSN(cfg config.DatabaseConfig) (driver, dsn string, err error) {
	switch cfg.Engine {
	case config.EngineSQLite:
		return "sqlite", buildSQLiteDSN(cfg.Name), nil
	case config.EnginePostgres:
		return "postgres", buildPostgresDSN(cfg), nil
	case config.EngineMySQL:
		return "mysql", buildMySQLDSN(cfg), nil
	default:
		return "", "", fmt.Errorf("unsupported database engine %q", cfg.Engine)
	}
}

// buildSQLiteDSN 构建SQLite DSN
func buildSQLiteDSN(path string) string {
	return fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)", path)
}

// buildPostgresDSN 构建 lib/pq 的 key=value DSN
func buildPostgresDSN(cfg config.DatabaseConfig) string {
	var parts []string
	add := func(k, v string) {
		if v != "" {
			parts = append(parts, k+"="+quotePQ(v))
		}
	}
	add("host", cfg.Host)
	add("port", cfg.Port)
	add("user", cfg.User)
	add("password", cfg.Password)
	add("dbname", cfg.Name)
	add("sslmode", cfg.SSLMode)
	add("connect_timeout", strconv.Itoa(int(config.StartupDBPingTimeout.Seconds())))
	return strings.Join(parts, " ")
}

// quotePQ 含空格、引号或反斜杠的值需要单引号包裹并转义
func quotePQ(v string) string {
	if !strings.ContainsAny(v, ` '\`) {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}

// buildMySQLDSN 构建MySQL DSN
func buildMySQLDSN(cfg config.DatabaseConfig) string {
	mc := mysql.NewConfig()
	mc.User = cfg.User
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(cfg.Host, cfg.Port)
	mc.DBName = cfg.Name
	mc.Timeout = config.StartupDBPingTimeout
	mc.Params = map[string]string{"charset": "utf8mb4"}
	return mc.FormatDSN()
}

// describe 日志用的连接描述（不含密码）
func describe(cfg config.DatabaseConfig) string {
	if cfg.Engine == config.EngineSQLite {
		return cfg.Name
	}
	return fmt.Sprintf("%s@%s/%s", cfg.User, net.JoinHostPort(cfg.Host, cfg.Port), cfg.Name)
}

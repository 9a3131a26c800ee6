package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	apperrors "gymcore/internal/errors"
	"gymcore/internal/storage/schema"
	sqlstore "gymcore/internal/storage/sql"
)

// migration 一次版本化迁移
type migration struct {
	version string
	apply   func(ctx context.Context, tx *sql.Tx, d schema.Dialect) error
}

// migrations 按顺序执行，已执行的版本记录在 schema_migrations 中
var migrations = []migration{
	{version: "0001_sessions", apply: createSessionsTable},
}

// Migrate 执行所有未应用的迁移，返回本次新应用的版本
func Migrate(ctx context.Context, db *sql.DB, d schema.Dialect) ([]string, error) {
	// 迁移版本表必须最先创建（不在事务中，MySQL DDL 会隐式提交）
	versions := schema.DefineSchemaMigrationsTable()
	if _, err := db.ExecContext(ctx, versions.Build(d)); err != nil {
		return nil, fmt.Errorf("create %s table: %w", versions.Name(), err)
	}

	var applied []string
	for _, m := range migrations {
		done, err := isMigrationApplied(ctx, db, d, m.version)
		if err != nil {
			return applied, err
		}
		if done {
			continue
		}

		err = sqlstore.WithTransaction(ctx, db, func(tx *sql.Tx) error {
			if err := m.apply(ctx, tx, d); err != nil {
				return err
			}
			return recordMigration(ctx, tx, d, m.version)
		})
		if err != nil {
			return applied, apperrors.DBMigrateError(m.version, err)
		}
		log.Printf("[INFO] 已应用迁移 %s (%s)", m.version, d)
		applied = append(applied, m.version)
	}
	return applied, nil
}

// AppliedMigrations 已执行的迁移版本（按版本号排序）
func AppliedMigrations(ctx context.Context, db *sql.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx, "SELECT version FROM schema_migrations ORDER BY version")
	if err != nil {
		return nil, fmt.Errorf("list migrations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// PendingMigrations 尚未执行的迁移版本
func PendingMigrations(ctx context.Context, db *sql.DB, d schema.Dialect) ([]string, error) {
	var pending []string
	for _, m := range migrations {
		done, err := isMigrationApplied(ctx, db, d, m.version)
		if err != nil {
			return nil, err
		}
		if !done {
			pending = append(pending, m.version)
		}
	}
	return pending, nil
}

func createSessionsTable(ctx context.Context, tx *sql.Tx, d schema.Dialect) error {
	tb := schema.DefineSessionsTable()
	if _, err := tx.ExecContext(ctx, tb.Build(d)); err != nil {
		return fmt.Errorf("create %s table: %w", tb.Name(), err)
	}
	for _, idx := range tb.Indexes(d) {
		if err := createIndex(ctx, tx, idx, d); err != nil {
			return err
		}
	}
	return nil
}

func createIndex(ctx context.Context, tx *sql.Tx, idx schema.IndexDef, d schema.Dialect) error {
	_, err := tx.ExecContext(ctx, idx.SQL)
	if err == nil {
		return nil
	}
	// MySQL 不支持 CREATE INDEX IF NOT EXISTS，忽略重复索引错误
	if d == schema.DialectMySQL && strings.Contains(err.Error(), "Duplicate key name") {
		return nil
	}
	return fmt.Errorf("create index %s: %w", idx.Name, err)
}

// isMigrationApplied 检查迁移是否已执行
func isMigrationApplied(ctx context.Context, db *sql.DB, d schema.Dialect, version string) (bool, error) {
	var count int
	err := db.QueryRowContext(ctx,
		sqlstore.Rebind(d, "SELECT COUNT(*) FROM schema_migrations WHERE version = ?"), version,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check migration %s: %w", version, err)
	}
	return count > 0, nil
}

// recordMigration 记录迁移已执行
func recordMigration(ctx context.Context, tx *sql.Tx, d schema.Dialect, version string) error {
	var insertSQL string
	switch d {
	case schema.DialectMySQL:
		insertSQL = `INSERT IGNORE INTO schema_migrations (version, applied_at) VALUES (?, ?)`
	case schema.DialectPostgres:
		insertSQL = `INSERT INTO schema_migrations (version, applied_at) VALUES ($1, $2) ON CONFLICT (version) DO NOTHING`
	default:
		insertSQL = `INSERT OR IGNORE INTO schema_migrations (version, applied_at) VALUES (?, ?)`
	}
	_, err := tx.ExecContext(ctx, insertSQL, version, time.Now().Unix())
	return err
}

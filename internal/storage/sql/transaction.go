package sql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// WithTransaction 在事务中执行函数（迁移使用）
// fn 返回错误或 panic 时回滚；SQLite BUSY/LOCKED 与 MySQL 死锁会带退避重试
func WithTransaction(ctx context.Context, db *sql.DB, fn func(*sql.Tx) error) error {
	const maxRetries = 8
	const baseDelay = 25 * time.Millisecond

	deadline, hasDeadline := ctx.Deadline()

	var err error
	for attempt := 0; attempt < maxRetries; attempt++ {
		err = executeSingleTransaction(ctx, db, fn)
		if err == nil || !isRetryableTxError(err) {
			return err
		}

		nextDelay := calculateBackoffDelay(attempt, baseDelay)
		if hasDeadline && time.Now().Add(nextDelay).After(deadline) {
			return fmt.Errorf("transaction aborted: context deadline would be exceeded (attempted %d retries): %w", attempt+1, err)
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("transaction cancelled after %d retries: %w", attempt+1, ctx.Err())
		case <-time.After(nextDelay):
		}
	}
	return fmt.Errorf("transaction failed after %d retries: %w", maxRetries, err)
}

// executeSingleTransaction 执行单次事务(无重试)
func executeSingleTransaction(ctx context.Context, db *sql.DB, fn func(*sql.Tx) error) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	// panic 回滚后继续抛出，不吞掉编程错误
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		} else if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// isRetryableTxError 数据库暂时不可用的错误，可以通过重试解决
func isRetryableTxError(err error) bool {
	if err == nil {
		return false
	}
	errMsg := strings.ToLower(err.Error())
	for _, pattern := range []string{
		"database is locked",
		"database is deadlocked",
		"database table is locked",
		"sqlite_busy",
		"sqlite_locked",
		"error 1213", // MySQL ER_LOCK_DEADLOCK
	} {
		if strings.Contains(errMsg, pattern) {
			return true
		}
	}
	return false
}

// calculateBackoffDelay 指数退避延迟（带 50%~99.5% 随机抖动）
func calculateBackoffDelay(attempt int, baseDelay time.Duration) time.Duration {
	delay := baseDelay * time.Duration(1<<uint(attempt))
	randomFactor := float64(time.Now().UnixNano()%100) / 100.0
	return time.Duration(float64(delay) * (0.5 + 0.5*randomFactor))
}

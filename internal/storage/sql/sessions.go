package sql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"gymcore/internal/model"
	"gymcore/internal/storage/schema"
	"gymcore/internal/util"
)

// GetSession 按会话键读取未过期的会话
// 会话不存在或已过期时返回 (nil, nil)
func (s *SQLStore) GetSession(ctx context.Context, key string) (*model.Session, error) {
	var data string
	var expireUnix int64
	err := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT session_data, expire_date FROM sessions
		WHERE session_key = ? AND expire_date > ?
	`), model.HashToken(key), timeToUnix(time.Now())).Scan(&data, &expireUnix)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query session: %w", err)
	}

	sess := &model.Session{Key: key, ExpiresAt: unixToTime(expireUnix)}
	if err := util.UnmarshalJSON([]byte(data), &sess.Data); err != nil {
		return nil, fmt.Errorf("decode session data: %w", err)
	}
	if sess.Data == nil {
		sess.Data = make(map[string]any)
	}
	return sess, nil
}

// SaveSession 写入或覆盖会话（按会话键哈希 upsert）
func (s *SQLStore) SaveSession(ctx context.Context, sess *model.Session) error {
	if sess == nil || sess.Key == "" {
		return errors.New("save session: empty session key")
	}
	data := sess.Data
	if data == nil {
		data = map[string]any{}
	}
	encoded, err := util.MarshalJSON(data)
	if err != nil {
		return fmt.Errorf("encode session data: %w", err)
	}

	_, err = s.db.ExecContext(ctx, s.rebind(s.upsertSessionSQL()),
		model.HashToken(sess.Key), encoded, timeToUnix(sess.ExpiresAt))
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *SQLStore) upsertSessionSQL() string {
	if s.dialect == schema.DialectMySQL {
		return `INSERT INTO sessions (session_key, session_data, expire_date) VALUES (?, ?, ?)
			ON DUPLICATE KEY UPDATE session_data = VALUES(session_data), expire_date = VALUES(expire_date)`
	}
	// SQLite 3.24+ 与 PostgreSQL 共用 ON CONFLICT 语法
	return `INSERT INTO sessions (session_key, session_data, expire_date) VALUES (?, ?, ?)
		ON CONFLICT (session_key) DO UPDATE SET session_data = excluded.session_data, expire_date = excluded.expire_date`
}

// DeleteSession 删除会话
func (s *SQLStore) DeleteSession(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM sessions WHERE session_key = ?`), model.HashToken(key))
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// CleanExpiredSessions 清理过期的会话，返回删除行数
func (s *SQLStore) CleanExpiredSessions(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM sessions WHERE expire_date <= ?`), timeToUnix(time.Now()))
	if err != nil {
		return 0, fmt.Errorf("clean expired sessions: %w", err)
	}
	return res.RowsAffected()
}

// CountSessions 未过期会话数量
func (s *SQLStore) CountSessions(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, s.rebind(`SELECT COUNT(*) FROM sessions WHERE expire_date > ?`),
		timeToUnix(time.Now())).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count sessions: %w", err)
	}
	return n, nil
}

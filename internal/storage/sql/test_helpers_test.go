package sql_test

import (
	"path/filepath"
	"testing"
	"time"

	"gymcore/internal/model"
	"gymcore/internal/storage"
	sqlstore "gymcore/internal/storage/sql"
)

func newTestStore(t testing.TB, dbFile string) *sqlstore.SQLStore {
	t.Helper()

	tmp := t.TempDir()
	store, err := storage.CreateSQLiteStore(filepath.Join(tmp, dbFile))
	if err != nil {
		t.Fatalf("create sqlite store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	return store
}

// newSession 生成带随机会话键的未修改会话
func newSession(age time.Duration) (*model.Session, error) {
	key, err := model.NewSessionKey()
	if err != nil {
		return nil, err
	}
	return &model.Session{Key: key, Data: make(map[string]any), ExpiresAt: time.Now().Add(age)}, nil
}

package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"gymcore/internal/config"
	"gymcore/internal/model"
	"gymcore/internal/storage"
	"gymcore/internal/testutil"
	"gymcore/internal/util"

	"github.com/alicebob/miniredis/v2"
)

func TestSession_AnonymousRequestCreatesNothing(t *testing.T) {
	srv := newTestServer(t)

	w := serveHTTP(t, srv.Handler(), httptest.NewRequest(http.MethodGet, adminLoginPath, nil))
	if _, ok := testutil.CookieValue(w, config.SessionCookieName); ok {
		t.Error("untouched session should not set a cookie")
	}
	if n, _ := srv.store.CountSessions(context.Background()); n != 0 {
		t.Errorf("expected no stored sessions, got %d", n)
	}
}

func TestSession_UnknownCookieIsAnonymous(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.AddCookie(&http.Cookie{Name: config.SessionCookieName, Value: "does-not-exist"})
	w := serveHTTP(t, srv.Handler(), req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if resp := mustParseAPIResponse[meResponse](t, w.Body.Bytes()); resp.Data.IsAuthenticated {
		t.Error("unknown session key must not authenticate")
	}
}

func TestSession_CookieAttributes(t *testing.T) {
	srv := newTestServer(t, func(s *config.Settings) {
		s.SessionCookieSecure = true
		s.SessionCookieAge = time.Hour
	})
	cl := newClient(t, srv)
	cl.get(adminLoginPath)

	w := cl.postForm(adminLoginPath, map[string][]string{
		"username": {testAdminUser},
		"password": {testAdminPassword},
	})
	var cookie *http.Cookie
	for _, ck := range w.Result().Cookies() {
		if ck.Name == config.SessionCookieName {
			cookie = ck
		}
	}
	if cookie == nil {
		t.Fatal("expected sessionid cookie")
	}
	if !cookie.HttpOnly || !cookie.Secure || cookie.SameSite != http.SameSiteLaxMode {
		t.Errorf("unexpected cookie attributes %+v", cookie)
	}
	if cookie.MaxAge != 3600 {
		t.Errorf("MaxAge=%d, want 3600", cookie.MaxAge)
	}

	sess, err := srv.store.GetSession(context.Background(), cookie.Value)
	if err != nil || sess == nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if remaining := time.Until(sess.ExpiresAt); remaining < 50*time.Minute || remaining > time.Hour+time.Minute {
		t.Errorf("unexpected expiry in %v", remaining)
	}
}

func TestSession_RedisBackedStore(t *testing.T) {
	mr := miniredis.RunT(t)
	settings := newTestSettings(t, func(s *config.Settings) {
		s.RedisURL = "redis://" + mr.Addr()
	})

	store, err := storage.NewStore(context.Background(), settings)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	if !store.IsRedisEnabled() {
		t.Fatal("expected redis cache to be enabled")
	}

	srv, err := NewServer(settings, store)
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })

	cl := newClient(t, srv)
	cl.login()
	if len(mr.Keys()) == 0 {
		t.Fatal("expected session to be written through to redis")
	}

	// SQL 中的数据仍可用：清空缓存后依然保持登录
	mr.FlushAll()
	w := cl.get("/api/me")
	if resp := mustParseAPIResponse[meResponse](t, w.Body.Bytes()); !resp.Data.IsAuthenticated {
		t.Fatal("session should fall back to SQL when cache is empty")
	}

	w = cl.get("/api/health")
	if resp := mustParseAPIResponse[healthResponse](t, w.Body.Bytes()); !resp.Data.Redis {
		t.Error("health should report redis enabled")
	}
}

func TestMessageStore(t *testing.T) {
	sess := &model.Session{Data: map[string]any{}}
	m := &messageStore{}
	m.bind(sess)

	m.add(model.MessageInfo, "uno")
	m.add(model.MessageWarning, "dos")
	if !sess.Modified() {
		t.Error("adding messages should modify the session")
	}

	// 新的请求从会话中重新加载（值经过序列化后为通用类型）
	encoded, err := util.MarshalJSON(sess.Data[model.SessionKeyMessages])
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	var raw any
	if err := util.UnmarshalJSON([]byte(encoded), &raw); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	next := &model.Session{Data: map[string]any{model.SessionKeyMessages: raw}}
	m2 := &messageStore{}
	m2.bind(next)

	got := m2.consume()
	if len(got) != 2 || got[0].Text != "uno" || got[1].Level != model.MessageWarning {
		t.Fatalf("unexpected messages %+v", got)
	}
	if _, ok := next.Get(model.SessionKeyMessages); ok {
		t.Error("messages should be removed after consume")
	}
	if again := m2.consume(); len(again) != 0 {
		t.Errorf("second consume should be empty, got %+v", again)
	}
}

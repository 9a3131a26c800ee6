package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"gymcore/internal/config"
	"gymcore/internal/storage"
	"gymcore/internal/testutil"

	"github.com/gin-gonic/gin"
)

const (
	testAdminUser     = "admin"
	testAdminPassword = "test_password_123"
)

// newTestSettings base 配置档 + 测试管理员账号，可通过 mutate 调整
func newTestSettings(t testing.TB, mutate ...func(*config.Settings)) *config.Settings {
	t.Helper()
	return testutil.NewSettings(t, append([]func(*config.Settings){func(s *config.Settings) {
		s.AdminUser = testAdminUser
		s.AdminPassword = testAdminPassword
		s.CORSAllowAllOrigins = false
		s.CORSAllowedOrigins = nil
	}}, mutate...)...)
}

// newTestServer 使用临时 SQLite 创建完整 Server
func newTestServer(t testing.TB, mutate ...func(*config.Settings)) *Server {
	t.Helper()
	return newTestServerWithStore(t, testutil.SetupTestStore(t), mutate...)
}

func newTestServerWithStore(t testing.TB, store storage.Store, mutate ...func(*config.Settings)) *Server {
	t.Helper()

	srv, err := NewServer(newTestSettings(t, mutate...), store)
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})
	return srv
}

func serveHTTP(t testing.TB, h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	return testutil.ServeHTTP(t, h, req)
}

func mustParseAPIResponse[T any](t testing.TB, body []byte) testutil.APIResponse[T] {
	return testutil.MustParseAPIResponse[T](t, body)
}

// client 在多次请求间保持 Cookie 的测试客户端
type client struct {
	t       testing.TB
	h       http.Handler
	cookies map[string]string
}

func newClient(t testing.TB, srv *Server) *client {
	return &client{t: t, h: srv.Handler(), cookies: make(map[string]string)}
}

func (cl *client) do(req *http.Request) *httptest.ResponseRecorder {
	cl.t.Helper()
	for name, value := range cl.cookies {
		req.AddCookie(&http.Cookie{Name: name, Value: value})
	}
	w := serveHTTP(cl.t, cl.h, req)
	for _, ck := range w.Result().Cookies() {
		if ck.MaxAge < 0 || ck.Value == "" {
			delete(cl.cookies, ck.Name)
			continue
		}
		cl.cookies[ck.Name] = ck.Value
	}
	return w
}

func (cl *client) get(target string) *httptest.ResponseRecorder {
	cl.t.Helper()
	return cl.do(httptest.NewRequest(http.MethodGet, target, nil))
}

// postForm 提交表单，自动附带 csrftoken 与同源 Origin
func (cl *client) postForm(target string, form url.Values) *httptest.ResponseRecorder {
	cl.t.Helper()
	return cl.do(cl.newFormRequest(target, form))
}

func (cl *client) newFormRequest(target string, form url.Values) *http.Request {
	if form == nil {
		form = url.Values{}
	}
	if token, ok := cl.cookies[config.CSRFCookieName]; ok && form.Get(config.CSRFFormField) == "" {
		form.Set(config.CSRFFormField, token)
	}
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Origin", "http://"+testutil.TestHost)
	return req
}

// login 取得 csrftoken 后以管理员身份登录
func (cl *client) login() {
	cl.t.Helper()
	cl.get(adminLoginPath)
	w := cl.postForm(adminLoginPath, url.Values{
		"username": {testAdminUser},
		"password": {testAdminPassword},
	})
	if w.Code != http.StatusFound {
		cl.t.Fatalf("login: expected 302, got %d: %s", w.Code, w.Body.String())
	}
}

// runMiddleware 在最小 gin 路由中运行中间件链
func runMiddleware(t testing.TB, req *http.Request, handlers ...gin.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()

	w := httptest.NewRecorder()
	_, engine := gin.CreateTestContext(w)
	handlers = append(handlers, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"passed": true, "secure": IsSecure(c)})
	})
	engine.Any("/test", handlers...)
	engine.ServeHTTP(w, req)
	return w
}

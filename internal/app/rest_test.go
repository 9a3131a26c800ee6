package app

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"gymcore/internal/config"
	apperrors "gymcore/internal/errors"
	"gymcore/internal/model"
	"gymcore/internal/testutil"

	"github.com/gin-gonic/gin"
)

type meResponse struct {
	Username        string `json:"username"`
	IsStaff         bool   `json:"is_staff"`
	IsAuthenticated bool   `json:"is_authenticated"`
}

func withREST(auth []string, perms []string) func(*config.Settings) {
	return func(s *config.Settings) {
		s.RESTFramework.DefaultAuthenticationClasses = auth
		s.RESTFramework.DefaultPermissionClasses = perms
	}
}

func TestREST_AllowAnyAnonymous(t *testing.T) {
	srv := newTestServer(t)

	w := serveHTTP(t, srv.Handler(), httptest.NewRequest(http.MethodGet, "/api/me", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	resp := mustParseAPIResponse[meResponse](t, w.Body.Bytes())
	if resp.Data.IsAuthenticated || resp.Data.Username != "" {
		t.Errorf("expected anonymous user, got %+v", resp.Data)
	}
}

func TestREST_SessionAuthentication(t *testing.T) {
	srv := newTestServer(t, withREST(
		[]string{config.AuthClassSession},
		[]string{config.PermissionIsAuthenticated},
	))
	cl := newClient(t, srv)

	// 未登录：首个认证类不是 basic，返回 403 且无质询头
	w := cl.get("/api/me")
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
	if got := w.Header().Get("WWW-Authenticate"); got != "" {
		t.Errorf("unexpected WWW-Authenticate %q", got)
	}
	resp := mustParseAPIResponse[any](t, w.Body.Bytes())
	if resp.Code != string(apperrors.ErrCodeUnauthorized) {
		t.Errorf("expected code %s, got %q", apperrors.ErrCodeUnauthorized, resp.Code)
	}

	cl.login()
	w = cl.get("/api/me")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 after login, got %d", w.Code)
	}
	me := mustParseAPIResponse[meResponse](t, w.Body.Bytes())
	if me.Data.Username != testAdminUser || !me.Data.IsStaff || !me.Data.IsAuthenticated {
		t.Errorf("unexpected user %+v", me.Data)
	}
}

func TestREST_SessionAuthenticationEnforcesCSRF(t *testing.T) {
	srv := newTestServer(t)
	cl := newClient(t, srv)
	cl.login()

	// 自定义一个不安全方法的接口
	srv.engine.POST("/api/echo", srv.restFramework(config.PermissionIsAuthenticated), func(c *gin.Context) {
		srv.resp.Success(c, CurrentUser(c).Username)
	})

	req := httptest.NewRequest(http.MethodPost, "/api/echo", nil)
	w := cl.do(req)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 without csrf token, got %d", w.Code)
	}
	if resp := mustParseAPIResponse[any](t, w.Body.Bytes()); resp.Code != string(apperrors.ErrCodeCSRFFailed) {
		t.Errorf("expected code %s, got %q", apperrors.ErrCodeCSRFFailed, resp.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/echo", nil)
	req.Header.Set(config.CSRFHeaderName, cl.cookies[config.CSRFCookieName])
	w = cl.do(req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 with csrf token, got %d: %s", w.Code, w.Body.String())
	}
}

func TestREST_BasicAuthentication(t *testing.T) {
	srv := newTestServer(t, withREST(
		[]string{config.AuthClassBasic, config.AuthClassSession},
		[]string{config.PermissionIsAdminUser},
	))

	tests := []struct {
		name      string
		user      string
		pass      string
		wantCode  int
		challenge bool
	}{
		{name: "anonymous", wantCode: http.StatusUnauthorized, challenge: true},
		{name: "bad password", user: testAdminUser, pass: "nope", wantCode: http.StatusUnauthorized, challenge: true},
		{name: "bad username", user: "root", pass: testAdminPassword, wantCode: http.StatusUnauthorized, challenge: true},
		{name: "valid", user: testAdminUser, pass: testAdminPassword, wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
			if tt.user != "" {
				req.SetBasicAuth(tt.user, tt.pass)
			}
			w := serveHTTP(t, srv.Handler(), req)

			if w.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d: %s", tt.wantCode, w.Code, w.Body.String())
			}
			if got := w.Header().Get("WWW-Authenticate"); (got == basicRealm) != tt.challenge {
				t.Errorf("WWW-Authenticate=%q, challenge=%v", got, tt.challenge)
			}
		})
	}
}

func TestREST_AuthenticatedButNotAdmin(t *testing.T) {
	srv := newTestServer(t, withREST(
		[]string{config.AuthClassSession},
		[]string{config.PermissionIsAdminUser},
	))
	srv.engine.GET("/api/staff-only", func(c *gin.Context) {
		// 模拟普通用户会话
		Session(c).Set(model.SessionKeyUser, "member")
		c.Next()
	}, srv.restFramework(), func(c *gin.Context) {
		srv.resp.Success(c, nil)
	})

	w := serveHTTP(t, srv.Handler(), httptest.NewRequest(http.MethodGet, "/api/staff-only", nil))
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
	if resp := testutil.MustParseAPIResponse[any](t, w.Body.Bytes()); resp.Code != string(apperrors.ErrCodeForbidden) {
		t.Errorf("expected code %s, got %q", apperrors.ErrCodeForbidden, resp.Code)
	}
}

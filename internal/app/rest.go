package app

import (
	"net/http"

	"gymcore/internal/config"
	apperrors "gymcore/internal/errors"
	"gymcore/internal/model"

	"github.com/gin-gonic/gin"
)

// authResult 认证类的判定结果
type authResult struct {
	user   model.User
	ok     bool // 该认证类识别出了用户
	err    error
	status int
}

// authenticator REST 认证类
type authenticator func(s *Server, c *gin.Context) authResult

var authenticators = map[string]authenticator{
	config.AuthClassSession: (*Server).sessionAuthentication,
	config.AuthClassBasic:   (*Server).basicAuthentication,
}

// permission REST 权限类
type permission func(u model.User) bool

var permissions = map[string]permission{
	config.PermissionAllowAny:        func(model.User) bool { return true },
	config.PermissionIsAuthenticated: model.User.IsAuthenticated,
	config.PermissionIsAdminUser:     func(u model.User) bool { return u.IsAuthenticated() && u.IsStaff },
}

// basicRealm WWW-Authenticate 领域
const basicRealm = `Basic realm="api"`

// sessionAuthentication 使用会话中的登录用户；不安全方法额外校验 CSRF
func (s *Server) sessionAuthentication(c *gin.Context) authResult {
	u := userFromSession(Session(c))
	if !u.IsAuthenticated() {
		return authResult{}
	}
	if !isSafeMethod(c.Request.Method) {
		if err := s.checkCSRF(c); err != nil {
			return authResult{err: err, status: http.StatusForbidden}
		}
	}
	return authResult{user: u, ok: true}
}

// basicAuthentication HTTP Basic，凭据与管理员账号比对
// 未携带 Authorization 头时不参与判定
func (s *Server) basicAuthentication(c *gin.Context) authResult {
	username, password, ok := c.Request.BasicAuth()
	if !ok {
		return authResult{}
	}
	if !s.auth.Authenticate(username, password) {
		return authResult{
			err:    apperrors.UnauthorizedError("invalid username/password"),
			status: http.StatusUnauthorized,
		}
	}
	return authResult{user: model.User{Username: username, IsStaff: true}, ok: true}
}

// restFramework REST 接口的认证与权限检查
// perms 为空时使用 RESTFramework.DefaultPermissionClasses
func (s *Server) restFramework(perms ...string) gin.HandlerFunc {
	classes := s.settings.RESTFramework.DefaultAuthenticationClasses
	if len(perms) == 0 {
		perms = s.settings.RESTFramework.DefaultPermissionClasses
	}

	// 未认证时：首个认证类为 basic 则返回 401 + 质询头，否则 403
	challenge := len(classes) > 0 && classes[0] == config.AuthClassBasic

	return func(c *gin.Context) {
		user := model.User{}
		for _, name := range classes {
			res := authenticators[name](s, c)
			if res.err != nil {
				if res.status == http.StatusUnauthorized {
					c.Header("WWW-Authenticate", basicRealm)
				}
				s.resp.Error(c, res.status, res.err)
				c.Abort()
				return
			}
			if res.ok {
				user = res.user
				break
			}
		}
		setUser(c, user)

		for _, name := range perms {
			if permissions[name](user) {
				continue
			}
			if !user.IsAuthenticated() {
				status := http.StatusForbidden
				if challenge {
					c.Header("WWW-Authenticate", basicRealm)
					status = http.StatusUnauthorized
				}
				s.resp.Error(c, status, apperrors.UnauthorizedError("authentication credentials were not provided"))
			} else {
				s.resp.Error(c, http.StatusForbidden, apperrors.ForbiddenError(name))
			}
			c.Abort()
			return
		}
		c.Next()
	}
}

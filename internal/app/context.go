package app

import (
	"gymcore/internal/model"

	"github.com/gin-gonic/gin"
)

// gin.Context 键
const (
	ctxKeySession   = "gymcore.session"
	ctxKeyUser      = "gymcore.user"
	ctxKeySecure    = "gymcore.secure"
	ctxKeyCSRFToken = "gymcore.csrf_token"
	ctxKeyMessages  = "gymcore.messages"
)

// CurrentUser 当前请求的用户（未登录时返回匿名用户）
func CurrentUser(c *gin.Context) model.User {
	if v, ok := c.Get(ctxKeyUser); ok {
		if u, ok := v.(model.User); ok {
			return u
		}
	}
	return model.User{}
}

func setUser(c *gin.Context, u model.User) {
	c.Set(ctxKeyUser, u)
}

// IsSecure 请求是否经 HTTPS 到达（直连 TLS 或可信代理头）
func IsSecure(c *gin.Context) bool {
	if v, ok := c.Get(ctxKeySecure); ok {
		return v.(bool)
	}
	return c.Request.TLS != nil
}

// CSRFToken 当前请求的 CSRF 令牌（csrf 中间件未启用时为空）
func CSRFToken(c *gin.Context) string {
	return c.GetString(ctxKeyCSRFToken)
}

func sessionFrom(c *gin.Context) *sessionState {
	v, ok := c.Get(ctxKeySession)
	if !ok {
		return nil
	}
	st, _ := v.(*sessionState)
	return st
}

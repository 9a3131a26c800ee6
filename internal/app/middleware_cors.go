package app

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	corsAllowMethods = "DELETE, GET, OPTIONS, PATCH, POST, PUT"
	corsAllowHeaders = "accept, authorization, content-type, user-agent, x-csrftoken, x-requested-with"
	corsMaxAge       = "86400"
)

// normalizeOrigin 小写并去掉末尾斜杠，便于比较
func normalizeOrigin(origin string) string {
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(origin)), "/")
}

// corsMiddleware 跨域资源共享
// CORSAllowAllOrigins 为 true 时允许任意来源，否则只允许 CORSAllowedOrigins
func (s *Server) corsMiddleware() gin.HandlerFunc {
	allowAll := s.settings.CORSAllowAllOrigins
	allowed := make(map[string]bool, len(s.settings.CORSAllowedOrigins))
	for _, o := range s.settings.CORSAllowedOrigins {
		allowed[normalizeOrigin(o)] = true
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin == "" {
			c.Next()
			return
		}

		h := c.Writer.Header()
		if !allowAll {
			// 响应随 Origin 变化，防止缓存串用
			h.Add("Vary", "Origin")
		}

		switch {
		case allowAll:
			h.Set("Access-Control-Allow-Origin", "*")
		case allowed[normalizeOrigin(origin)]:
			h.Set("Access-Control-Allow-Origin", origin)
		default:
			// 不设置 CORS 头，由浏览器拦截
			c.Next()
			return
		}

		if c.Request.Method == http.MethodOptions && c.GetHeader("Access-Control-Request-Method") != "" {
			h.Set("Access-Control-Allow-Methods", corsAllowMethods)
			h.Set("Access-Control-Allow-Headers", corsAllowHeaders)
			h.Set("Access-Control-Max-Age", corsMaxAge)
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

package app

import (
	"net"
	"net/http"
	"strings"

	apperrors "gymcore/internal/errors"
	"gymcore/internal/util"

	"github.com/gin-gonic/gin"
)

// securityMiddleware 安全响应头 + HTTPS 识别
// 配置了 SecureProxySSLHeader 时，只有该头取值匹配才视为 HTTPS
func (s *Server) securityMiddleware() gin.HandlerFunc {
	proxy := s.settings.SecureProxySSLHeader
	hsts := s.settings.IsProduction()

	return func(c *gin.Context) {
		secure := c.Request.TLS != nil
		if !secure && proxy != nil {
			secure = strings.EqualFold(c.GetHeader(proxy.Header), proxy.Value)
		}
		c.Set(ctxKeySecure, secure)

		h := c.Writer.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("Referrer-Policy", "same-origin")
		h.Set("Cross-Origin-Opener-Policy", "same-origin")
		if secure && hsts {
			h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}

// clickjackingMiddleware 禁止页面被嵌入 frame
// 在响应头写出前补充默认值，处理器或其他中间件已设置时不覆盖
func (s *Server) clickjackingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		setDefault := func() {
			if c.Writer.Header().Get("X-Frame-Options") == "" {
				c.Header("X-Frame-Options", "DENY")
			}
		}
		c.Writer = &beforeWriteWriter{ResponseWriter: c.Writer, before: setDefault}
		c.Next()
		if !c.Writer.Written() {
			setDefault()
		}
	}
}

// debugDefaultHosts Debug 模式且白名单为空时允许的主机
var debugDefaultHosts = []string{".localhost", "127.0.0.1", "[::1]"}

// commonMiddleware 校验 Host 头是否在 AllowedHosts 白名单内
func (s *Server) commonMiddleware() gin.HandlerFunc {
	allowed := s.settings.AllowedHosts
	if len(allowed) == 0 && s.settings.Debug {
		allowed = debugDefaultHosts
	}

	return func(c *gin.Context) {
		host := hostWithoutPort(c.Request.Host)
		if !validateHost(host, allowed) {
			util.SafePrintf("[WARN] 拒绝 Host: %s", c.Request.Host)
			s.resp.Error(c, http.StatusBadRequest, apperrors.DisallowedHostError(c.Request.Host))
			c.Abort()
			return
		}
		c.Next()
	}
}

// hostWithoutPort 去掉端口并转小写，IPv6 保留方括号
func hostWithoutPort(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	if host == "" {
		return ""
	}
	if h, _, err := net.SplitHostPort(host); err == nil {
		if strings.Contains(h, ":") {
			return "[" + h + "]"
		}
		return h
	}
	return strings.TrimSuffix(host, ".")
}

// validateHost 主机匹配规则：
//   - "*" 匹配任意主机
//   - ".example.com" 匹配 example.com 及其任意子域
//   - 其他值精确匹配（忽略大小写）
func validateHost(host string, patterns []string) bool {
	if host == "" {
		return false
	}
	host = strings.TrimSuffix(host, ".")
	for _, p := range patterns {
		p = strings.ToLower(p)
		switch {
		case p == "*":
			return true
		case strings.HasPrefix(p, "."):
			if host == p[1:] || strings.HasSuffix(host, p) {
				return true
			}
		case host == p:
			return true
		}
	}
	return false
}

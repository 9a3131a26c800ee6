package app

import (
	"context"
	"net/http"
	"time"

	"gymcore/internal/config"
	"gymcore/internal/version"

	"github.com/gin-gonic/gin"
)

// healthCheckTimeout 健康检查的存储探测超时
const healthCheckTimeout = 2 * time.Second

func (s *Server) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api")

	// 健康检查不受默认权限约束
	api.GET("/health", s.restFramework(config.PermissionAllowAny), s.handleHealth)

	api.GET("/me", s.restFramework(), s.handleMe)
	api.GET("/settings", s.restFramework(), s.handleSettings)
}

// handleHealth GET /api/health
func (s *Server) handleHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	data := gin.H{
		"status":   "ok",
		"version":  version.Version,
		"database": s.store.Dialect().String(),
		"redis":    s.store.IsRedisEnabled(),
	}
	if err := s.store.Ping(ctx); err != nil {
		data["status"] = "unavailable"
		if s.settings.Debug {
			data["error"] = err.Error()
		}
		c.JSON(http.StatusServiceUnavailable, StandardResponse[any]{Success: false, Data: data, Error: "storage unavailable"})
		return
	}
	s.resp.Success(c, data)
}

// handleMe GET /api/me
func (s *Server) handleMe(c *gin.Context) {
	u := CurrentUser(c)
	s.resp.Success(c, gin.H{
		"username":         u.Username,
		"is_staff":         u.IsStaff,
		"is_authenticated": u.IsAuthenticated(),
	})
}

// handleSettings GET /api/settings（仅 Debug 模式，敏感值已脱敏）
func (s *Server) handleSettings(c *gin.Context) {
	if !s.settings.Debug {
		s.resp.NotFound(c, "page")
		return
	}
	s.resp.Success(c, s.settings.Public())
}

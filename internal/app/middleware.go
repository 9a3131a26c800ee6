package app

import (
	"gymcore/internal/config"
	apperrors "gymcore/internal/errors"

	"github.com/gin-gonic/gin"
)

// middlewareFactory 根据服务器状态构造中间件
type middlewareFactory func(s *Server) gin.HandlerFunc

// middlewareRegistry 配置名称 → 中间件
var middlewareRegistry = map[string]middlewareFactory{
	config.MiddlewareCORS:         (*Server).corsMiddleware,
	config.MiddlewareSecurity:     (*Server).securityMiddleware,
	config.MiddlewareSessions:     (*Server).sessionMiddleware,
	config.MiddlewareCommon:       (*Server).commonMiddleware,
	config.MiddlewareCSRF:         (*Server).csrfMiddleware,
	config.MiddlewareAuth:         (*Server).authMiddleware,
	config.MiddlewareMessages:     (*Server).messagesMiddleware,
	config.MiddlewareClickjacking: (*Server).clickjackingMiddleware,
	config.MiddlewareCompression:  func(*Server) gin.HandlerFunc { return ZstdMiddleware() },
}

// buildMiddleware 按 Settings.Middleware 的顺序构造中间件链
func (s *Server) buildMiddleware() ([]gin.HandlerFunc, error) {
	chain := make([]gin.HandlerFunc, 0, len(s.settings.Middleware))
	for _, name := range s.settings.Middleware {
		factory, ok := middlewareRegistry[name]
		if !ok {
			return nil, apperrors.UnknownNameError("middleware", name)
		}
		chain = append(chain, factory(s))
	}
	return chain, nil
}

package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"gymcore/internal/config"
	"gymcore/internal/storage"
	"gymcore/internal/util"

	"github.com/gin-gonic/gin"
)

// Server HTTP 服务：按配置组装中间件链、模板、静态文件与各应用路由
type Server struct {
	settings  *config.Settings
	store     storage.Store
	keys      *Keys
	templates *Templates
	auth      *AuthService
	resp      *ResponseHelper
	engine    *gin.Engine

	staticRoot string

	// 优雅关闭
	shutdownCh   chan struct{}
	shutdownOnce sync.Once
	wg           sync.WaitGroup
}

// NewServer 创建服务实例
// 中间件名称未知、模板解析失败时返回错误（拒绝启动）
func NewServer(settings *config.Settings, store storage.Store) (*Server, error) {
	keys, err := DeriveKeys(settings.SecretKey)
	if err != nil {
		return nil, err
	}
	templates, err := LoadTemplates(settings)
	if err != nil {
		return nil, err
	}
	auth, err := NewAuthService(settings, util.NewLoginRateLimiter())
	if err != nil {
		return nil, err
	}

	s := &Server{
		settings:   settings,
		store:      store,
		keys:       keys,
		templates:  templates,
		auth:       auth,
		resp:       NewResponseHelper(settings.Debug),
		shutdownCh: make(chan struct{}),
	}

	engine := gin.New()
	if gin.Mode() != gin.TestMode {
		engine.Use(gin.Logger())
	}
	engine.Use(gin.Recovery())
	// 未配置 TRUSTED_PROXIES 时 ClientIP 只使用连接地址（登录限流按此计数）
	if err := engine.SetTrustedProxies(settings.TrustedProxies); err != nil {
		auth.Close()
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}
	if settings.HasApp(config.AppAdmin) && !settings.HasMiddleware(config.MiddlewareSessions) {
		log.Printf("[WARN] admin 应用未启用 %s 中间件，登录状态不会保存", config.MiddlewareSessions)
	}

	chain, err := s.buildMiddleware()
	if err != nil {
		auth.Close()
		return nil, err
	}
	engine.Use(chain...)

	s.engine = engine
	s.setupRoutes(engine)

	s.wg.Add(1)
	go s.sessionCleanupLoop()

	return s, nil
}

// setupRoutes 按已安装应用注册路由
func (s *Server) setupRoutes(r *gin.Engine) {
	if s.settings.HasApp(config.AppStaticFiles) {
		s.setupStaticFiles(r)
	}
	if s.settings.HasApp(config.AppAdmin) {
		s.registerAdminRoutes(r)
	}
	if s.settings.HasApp(config.AppAPI) {
		s.registerAPIRoutes(r)
	}

	r.NoRoute(func(c *gin.Context) {
		s.resp.NotFound(c, "page")
	})
}

// Handler 返回 HTTP 处理器（测试与嵌入使用）
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run 监听 Settings.Addr()，ctx 取消后优雅关闭
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.settings.Addr(),
		Handler:           s.engine,
		ReadHeaderTimeout: config.HTTPReadHeaderTimeout,
		ReadTimeout:       config.HTTPReadTimeout,
		WriteTimeout:      config.HTTPWriteTimeout,
		IdleTimeout:       config.HTTPIdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("[INFO] 监听 %s（profile=%s, debug=%v）", srv.Addr, s.settings.Profile, s.settings.Debug)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		_ = s.Shutdown(context.Background())
		if ok {
			return fmt.Errorf("listen %s: %w", srv.Addr, err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Print("[INFO] 收到关闭信号，正在关闭 HTTP 服务...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()

	httpErr := srv.Shutdown(shutdownCtx)
	if err := s.Shutdown(shutdownCtx); err != nil && httpErr == nil {
		httpErr = err
	}
	return httpErr
}

// sessionCleanupLoop 定期清理过期会话
func (s *Server) sessionCleanupLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(config.SessionCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.cleanExpiredSessions()
		case <-s.shutdownCh:
			return
		}
	}
}

func (s *Server) cleanExpiredSessions() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	n, err := s.store.CleanExpiredSessions(ctx)
	if err != nil {
		util.SafePrintf("[WARN] 清理过期会话失败: %v", err)
		return
	}
	if n > 0 {
		log.Printf("[INFO] 清理过期会话 %d 条", n)
	}
}

// Shutdown 停止后台任务，等待其退出（可重复调用）
// 超时返回 ctx.Err()
func (s *Server) Shutdown(ctx context.Context) error {
	s.shutdownOnce.Do(func() {
		close(s.shutdownCh)
		s.auth.Close()
	})

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		log.Print("[WARN] Server关闭超时，部分后台任务可能未完成")
		return ctx.Err()
	}
}

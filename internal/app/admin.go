package app

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"gymcore/internal/model"

	"github.com/gin-gonic/gin"
)

// 管理后台路由
const (
	adminIndexPath  = "/admin/"
	adminLoginPath  = "/admin/login/"
	adminLogoutPath = "/admin/logout/"
)

const (
	msgInvalidLogin = "Por favor, introduzca un nombre de usuario y contraseña correctos."
	msgLoginLocked  = "Demasiados intentos fallidos. Inténtelo de nuevo en %d segundos."
	msgLoginOff     = "El inicio de sesión de administración no está configurado."
	msgLoggedOut    = "Sesión terminada."
)

func (s *Server) registerAdminRoutes(r *gin.Engine) {
	r.GET(adminIndexPath, s.handleAdminIndex)
	r.GET(adminLoginPath, s.handleAdminLoginPage)
	r.POST(adminLoginPath, s.handleAdminLogin)
	r.POST(adminLogoutPath, s.handleAdminLogout)
}

// safeRedirect 只允许站内相对路径，防止开放重定向
func safeRedirect(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, `\`) {
		return adminIndexPath
	}
	return next
}

func (s *Server) renderLogin(c *gin.Context, status int, username, next, errMsg string) {
	s.templates.Render(c, status, "admin/login.html", gin.H{
		"username": username,
		"next":     next,
		"error":    errMsg,
	})
}

// handleAdminLoginPage GET /admin/login/
func (s *Server) handleAdminLoginPage(c *gin.Context) {
	next := c.Query("next")
	if u := CurrentUser(c); u.IsStaff {
		c.Redirect(http.StatusFound, safeRedirect(next))
		return
	}
	errMsg := ""
	if !s.auth.Enabled() {
		errMsg = msgLoginOff
	}
	s.renderLogin(c, http.StatusOK, "", next, errMsg)
}

// handleAdminLogin POST /admin/login/
// 集成登录速率限制，防暴力破解
func (s *Server) handleAdminLogin(c *gin.Context) {
	clientIP := c.ClientIP()
	username := c.PostForm("username")
	next := c.PostForm("next")

	limiter := s.auth.Limiter()
	if !limiter.AllowAttempt(clientIP) {
		lockout := limiter.GetLockoutTime(clientIP)
		log.Printf("[WARN] 登录被限流: IP=%s, 剩余锁定=%ds", clientIP, lockout)
		c.Header("Retry-After", fmt.Sprint(lockout))
		s.renderLogin(c, http.StatusTooManyRequests, username, next, fmt.Sprintf(msgLoginLocked, lockout))
		return
	}

	if !s.auth.Authenticate(username, c.PostForm("password")) {
		log.Printf("[WARN] 登录失败: IP=%s, 尝试次数=%d", clientIP, limiter.GetAttemptCount(clientIP))
		errMsg := msgInvalidLogin
		if !s.auth.Enabled() {
			errMsg = msgLoginOff
		}
		s.renderLogin(c, http.StatusOK, username, next, errMsg)
		return
	}

	limiter.RecordSuccess(clientIP)
	login(c, model.User{Username: username, IsStaff: true})
	log.Printf("[INFO] 登录成功: IP=%s", clientIP)

	c.Redirect(http.StatusFound, safeRedirect(next))
}

// handleAdminLogout POST /admin/logout/
func (s *Server) handleAdminLogout(c *gin.Context) {
	logout(c)
	AddMessage(c, model.MessageInfo, msgLoggedOut)
	c.Redirect(http.StatusFound, adminLoginPath)
}

// handleAdminIndex GET /admin/（仅限管理员）
func (s *Server) handleAdminIndex(c *gin.Context) {
	user := CurrentUser(c)
	if !user.IsStaff {
		c.Redirect(http.StatusFound, adminLoginPath+"?next="+url.QueryEscape(c.Request.URL.Path))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()
	count, err := s.store.CountSessions(ctx)
	if err != nil {
		log.Printf("[WARN] 统计会话失败: %v", err)
	}

	s.templates.Render(c, http.StatusOK, "admin/index.html", gin.H{
		"user":      user,
		"database":  s.store.Dialect().String(),
		"sessions":  count,
		"time_zone": s.settings.TimeZone,
		"now":       s.settings.Now().In(s.settings.Location()).Format(time.RFC3339),
	})
}

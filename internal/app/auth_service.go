package app

import (
	"crypto/subtle"
	"fmt"
	"log"
	"strings"

	"gymcore/internal/config"
	"gymcore/internal/util"

	"golang.org/x/crypto/bcrypt"
)

// AuthService 管理员账号校验 + 登录速率限制
// 账号来自 ADMIN_USER / ADMIN_PASSWORD；密码为空时禁用登录
type AuthService struct {
	username     string
	passwordHash []byte // bcrypt 哈希，nil 表示禁用

	loginRateLimiter *util.LoginRateLimiter
}

// NewAuthService 创建认证服务
// ADMIN_PASSWORD 可以是明文，也可以是 bcrypt 哈希（$2a$/$2b$/$2y$ 前缀）
func NewAuthService(s *config.Settings, limiter *util.LoginRateLimiter) (*AuthService, error) {
	svc := &AuthService{
		username:         s.AdminUser,
		loginRateLimiter: limiter,
	}

	switch {
	case s.AdminPassword == "":
		log.Printf("[WARN] %s 未设置，管理后台登录已禁用", config.EnvAdminPassword)
	case isBcryptHash(s.AdminPassword):
		svc.passwordHash = []byte(s.AdminPassword)
	default:
		hash, err := bcrypt.GenerateFromPassword([]byte(s.AdminPassword), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash admin password: %w", err)
		}
		svc.passwordHash = hash
	}
	return svc, nil
}

func isBcryptHash(v string) bool {
	if !strings.HasPrefix(v, "$2a$") && !strings.HasPrefix(v, "$2b$") && !strings.HasPrefix(v, "$2y$") {
		return false
	}
	_, err := bcrypt.Cost([]byte(v))
	return err == nil
}

// Enabled 是否配置了管理员密码
func (a *AuthService) Enabled() bool {
	return a.passwordHash != nil
}

// Authenticate 校验用户名与密码（bcrypt 安全比较）
func (a *AuthService) Authenticate(username, password string) bool {
	if !a.Enabled() {
		return false
	}
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(a.username)) == 1
	// 用户名错误时同样执行 bcrypt
	passOK := bcrypt.CompareHashAndPassword(a.passwordHash, []byte(password)) == nil
	return userOK && passOK
}

// Limiter 登录速率限制器
func (a *AuthService) Limiter() *util.LoginRateLimiter {
	return a.loginRateLimiter
}

// Close 停止后台清理协程
func (a *AuthService) Close() {
	a.loginRateLimiter.Stop()
}

package app

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
	"net/url"
	"strings"

	"gymcore/internal/config"
	apperrors "gymcore/internal/errors"

	"github.com/gin-gonic/gin"
)

const (
	csrfNonceBytes = 16
	csrfMACBytes   = 16
	csrfTokenLen   = 2 * (csrfNonceBytes + csrfMACBytes)

	// csrfCookieMaxAge 一年
	csrfCookieMaxAge = 365 * 24 * 3600
)

// newCSRFToken 生成令牌：hex(nonce) + hex(HMAC(key, nonce) 截断)
func newCSRFToken(key []byte) (string, error) {
	nonce := make([]byte, csrfNonceBytes)
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	return hex.EncodeToString(nonce) + hex.EncodeToString(csrfMAC(key, nonce)), nil
}

func csrfMAC(key, nonce []byte) []byte {
	m := hmac.New(sha256.New, key)
	m.Write(nonce)
	return m.Sum(nil)[:csrfMACBytes]
}

// validCSRFToken 校验令牌格式与签名
func validCSRFToken(key []byte, token string) bool {
	if len(token) != csrfTokenLen {
		return false
	}
	raw, err := hex.DecodeString(token)
	if err != nil {
		return false
	}
	nonce, mac := raw[:csrfNonceBytes], raw[csrfNonceBytes:]
	return hmac.Equal(mac, csrfMAC(key, nonce))
}

// isSafeMethod RFC 9110 安全方法无需 CSRF 校验
func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return true
	}
	return false
}

// csrfExempt REST 接口由 session 认证类自行校验
func csrfExempt(path string) bool {
	return path == "/api" || strings.HasPrefix(path, "/api/")
}

// csrfMiddleware 下发 csrftoken Cookie，校验不安全方法的请求
func (s *Server) csrfMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(config.CSRFCookieName)
		if err != nil || !validCSRFToken(s.keys.CSRF, token) {
			token, err = newCSRFToken(s.keys.CSRF)
			if err != nil {
				s.resp.InternalError(c, err)
				c.Abort()
				return
			}
			http.SetCookie(c.Writer, &http.Cookie{
				Name:     config.CSRFCookieName,
				Value:    token,
				Path:     "/",
				MaxAge:   csrfCookieMaxAge,
				Secure:   s.settings.CSRFCookieSecure,
				SameSite: http.SameSiteLaxMode,
			})
		}
		c.Set(ctxKeyCSRFToken, token)

		if !isSafeMethod(c.Request.Method) && !csrfExempt(c.Request.URL.Path) {
			if err := s.checkCSRF(c); err != nil {
				s.resp.Error(c, http.StatusForbidden, err)
				c.Abort()
				return
			}
		}
		c.Next()
	}
}

// checkCSRF 校验请求来源与令牌
// 请求携带的 Cookie 必须签名有效，且与 X-CSRFToken 头或表单字段一致
func (s *Server) checkCSRF(c *gin.Context) error {
	if err := s.checkCSRFOrigin(c); err != nil {
		return err
	}

	cookie, err := c.Cookie(config.CSRFCookieName)
	if err != nil || cookie == "" {
		return apperrors.CSRFError("CSRF cookie not set")
	}
	if !validCSRFToken(s.keys.CSRF, cookie) {
		return apperrors.CSRFError("CSRF cookie has incorrect format")
	}

	submitted := c.GetHeader(config.CSRFHeaderName)
	if submitted == "" {
		submitted = c.PostForm(config.CSRFFormField)
	}
	if submitted == "" {
		return apperrors.CSRFError("CSRF token missing")
	}
	if subtle.ConstantTimeCompare([]byte(submitted), []byte(cookie)) != 1 {
		return apperrors.CSRFError("CSRF token incorrect")
	}
	return nil
}

// checkCSRFOrigin Origin 必须同源或在 CORS 白名单内；HTTPS 请求无 Origin 时检查 Referer
func (s *Server) checkCSRFOrigin(c *gin.Context) error {
	scheme := "http"
	if IsSecure(c) {
		scheme = "https"
	}
	self := normalizeOrigin(scheme + "://" + c.Request.Host)

	if origin := c.GetHeader("Origin"); origin != "" {
		o := normalizeOrigin(origin)
		if o == self || s.trustedOrigin(o) {
			return nil
		}
		return apperrors.CSRFError("origin checking failed - " + origin + " does not match any trusted origins")
	}

	if scheme == "https" {
		referer := c.GetHeader("Referer")
		if referer == "" {
			return apperrors.CSRFError("referer checking failed - no Referer")
		}
		u, err := url.Parse(referer)
		if err != nil || u.Scheme != "https" || u.Host == "" {
			return apperrors.CSRFError("referer checking failed - Referer is malformed")
		}
		if normalizeOrigin(u.Scheme+"://"+u.Host) != self && !s.trustedOrigin(normalizeOrigin(u.Scheme+"://"+u.Host)) {
			return apperrors.CSRFError("referer checking failed - " + u.Host + " does not match any trusted origins")
		}
	}
	return nil
}

func (s *Server) trustedOrigin(origin string) bool {
	for _, o := range s.settings.CORSAllowedOrigins {
		if normalizeOrigin(o) == origin {
			return true
		}
	}
	return false
}

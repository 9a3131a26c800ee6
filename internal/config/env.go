package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	apperrors "gymcore/internal/errors"
)

// 识别的环境变量
const (
	EnvProfile            = "SETTINGS_PROFILE"
	EnvBaseDir            = "APP_BASE_DIR"
	EnvSecretKey          = "DJANGO_SECRET_KEY"
	EnvDebug              = "DJANGO_DEBUG"
	EnvAllowedHosts       = "DJANGO_ALLOWED_HOSTS"
	EnvProdAllowedHosts   = "ALLOWED_HOSTS"
	EnvDBEngine           = "DB_ENGINE"
	EnvDBName             = "DB_NAME"
	EnvDBUser             = "DB_USER"
	EnvDBPassword         = "DB_PASSWORD"
	EnvDBHost             = "DB_HOST"
	EnvDBPort             = "DB_PORT"
	EnvDBSSLMode          = "DB_SSLMODE"
	EnvCORSAllowAll       = "CORS_ALLOW_ALL"
	EnvCORSAllowedOrigins = "CORS_ALLOWED_ORIGINS"
	EnvPort               = "PORT"
	EnvGinMode            = "GIN_MODE"
	EnvRedisURL           = "REDIS_URL"
	EnvTrustedProxies     = "TRUSTED_PROXIES"
	EnvSessionCookieAge   = "SESSION_COOKIE_AGE"
	EnvAdminUser          = "ADMIN_USER"
	EnvAdminPassword      = "ADMIN_PASSWORD"
)

// DB_ENGINE 取值
const (
	EngineValuePostgres = "postgres"
	EngineValueMySQL    = "mysql"
)

// getEnvOrDefault 已设置（包括空字符串）时原样返回，未设置时返回默认值
func getEnvOrDefault(key, defaultValue string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return defaultValue
}

// getFlagEnv 布尔开关：值（或默认值）忽略大小写等于 "true" 时为真
// 与 getBoolEnv 不同，"1"/"yes" 不视为真
func getFlagEnv(key, defaultValue string) bool {
	return strings.EqualFold(getEnvOrDefault(key, defaultValue), "true")
}

// getListEnv 逗号分隔列表，去除首尾空白并丢弃空项
func getListEnv(key, defaultValue string) []string {
	return splitList(getEnvOrDefault(key, defaultValue))
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// getDurationEnv 支持 Go duration 字符串或秒数
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	val, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(val) == "" {
		return defaultValue
	}
	val = strings.TrimSpace(val)
	if secs, err := strconv.Atoi(val); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if d, err := time.ParseDuration(val); err == nil && d > 0 {
		return d
	}
	return defaultValue
}

// requireEnv 必填变量：未设置或为空时返回错误
func requireEnv(key string) (string, error) {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return "", apperrors.MissingConfigError(key)
	}
	return val, nil
}

package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode 错误代码类型（便于机器识别和监控）
type ErrorCode string

const (
	// 配置相关错误
	ErrCodeInvalidConfig ErrorCode = "INVALID_CONFIG" // 配置无效
	ErrCodeMissingConfig ErrorCode = "MISSING_CONFIG" // 配置缺失
	ErrCodeUnknownName   ErrorCode = "UNKNOWN_NAME"   // 未知的中间件/应用/认证类

	// 数据库操作错误
	ErrCodeDBOpen    ErrorCode = "DB_OPEN"    // 数据库连接失败
	ErrCodeDBQuery   ErrorCode = "DB_QUERY"   // 数据库查询失败
	ErrCodeDBMigrate ErrorCode = "DB_MIGRATE" // 迁移失败

	// 请求校验错误
	ErrCodeDisallowedHost ErrorCode = "DISALLOWED_HOST" // Host 不在白名单
	ErrCodeCSRFFailed     ErrorCode = "CSRF_FAILED"     // CSRF 校验失败

	// 认证相关错误
	ErrCodeUnauthorized     ErrorCode = "UNAUTHORIZED"      // 未认证
	ErrCodeForbidden        ErrorCode = "FORBIDDEN"         // 无权限
	ErrCodeInvalidLogin     ErrorCode = "INVALID_LOGIN"     // 用户名或密码错误
	ErrCodeTooManyAttempts  ErrorCode = "TOO_MANY_ATTEMPTS" // 登录尝试过多
	ErrCodeSessionCorrupted ErrorCode = "SESSION_CORRUPTED" // 会话数据损坏
)

// AppError 应用级错误结构（支持错误链和上下文信息）
type AppError struct {
	Code    ErrorCode      // 错误代码（机器可识别）
	Message string         // 错误消息（人类可读）
	Err     error          // 底层错误（支持错误链）
	Context map[string]any // 错误上下文（便于调试和监控）
}

// Error 实现 error 接口
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap 实现错误链
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithContext 添加错误上下文
func (e *AppError) WithContext(key string, value any) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// ============== 配置错误工厂函数 ==============

// InvalidConfigError 配置无效
func InvalidConfigError(field string, reason string) *AppError {
	return &AppError{
		Code:    ErrCodeInvalidConfig,
		Message: fmt.Sprintf("invalid %s: %s", field, reason),
		Context: map[string]any{"field": field, "reason": reason},
	}
}

// MissingConfigError 配置缺失
func MissingConfigError(field string) *AppError {
	return &AppError{
		Code:    ErrCodeMissingConfig,
		Message: fmt.Sprintf("%s is required", field),
		Context: map[string]any{"field": field},
	}
}

// UnknownNameError 配置中出现未注册的名称
func UnknownNameError(kind string, name string) *AppError {
	return &AppError{
		Code:    ErrCodeUnknownName,
		Message: fmt.Sprintf("unknown %s %q", kind, name),
		Context: map[string]any{"kind": kind, "name": name},
	}
}

// ============== 数据库错误工厂函数 ==============

// DBOpenError 数据库连接失败
func DBOpenError(engine string, err error) *AppError {
	return &AppError{
		Code:    ErrCodeDBOpen,
		Message: fmt.Sprintf("open %s database", engine),
		Err:     err,
		Context: map[string]any{"engine": engine},
	}
}

// DBQueryError 数据库查询失败
func DBQueryError(operation string, err error) *AppError {
	return &AppError{
		Code:    ErrCodeDBQuery,
		Message: fmt.Sprintf("database query failed: %s", operation),
		Err:     err,
		Context: map[string]any{"operation": operation},
	}
}

// DBMigrateError 迁移失败
func DBMigrateError(version string, err error) *AppError {
	return &AppError{
		Code:    ErrCodeDBMigrate,
		Message: fmt.Sprintf("migration %s failed", version),
		Err:     err,
		Context: map[string]any{"version": version},
	}
}

// ============== 请求校验错误工厂函数 ==============

// DisallowedHostError Host 不在白名单
func DisallowedHostError(host string) *AppError {
	return &AppError{
		Code:    ErrCodeDisallowedHost,
		Message: fmt.Sprintf("invalid HTTP_HOST header: %q", host),
		Context: map[string]any{"host": host},
	}
}

// CSRFError CSRF 校验失败
func CSRFError(reason string) *AppError {
	return &AppError{
		Code:    ErrCodeCSRFFailed,
		Message: "CSRF verification failed: " + reason,
		Context: map[string]any{"reason": reason},
	}
}

// ============== 认证错误工厂函数 ==============

// UnauthorizedError 未认证
func UnauthorizedError(reason string) *AppError {
	return &AppError{
		Code:    ErrCodeUnauthorized,
		Message: "unauthorized: " + reason,
		Context: map[string]any{"reason": reason},
	}
}

// ForbiddenError 无权限
func ForbiddenError(permission string) *AppError {
	return &AppError{
		Code:    ErrCodeForbidden,
		Message: "permission denied: " + permission,
		Context: map[string]any{"permission": permission},
	}
}

// InvalidLoginError 用户名或密码错误
func InvalidLoginError() *AppError {
	return &AppError{
		Code:    ErrCodeInvalidLogin,
		Message: "invalid username or password",
	}
}

// TooManyAttemptsError 登录尝试过多
func TooManyAttemptsError(retryAfterSeconds int) *AppError {
	return &AppError{
		Code:    ErrCodeTooManyAttempts,
		Message: fmt.Sprintf("too many login attempts, retry after %ds", retryAfterSeconds),
		Context: map[string]any{"retry_after": retryAfterSeconds},
	}
}

// SessionCorruptedError 会话数据无法解析
func SessionCorruptedError(err error) *AppError {
	return &AppError{
		Code:    ErrCodeSessionCorrupted,
		Message: "session data corrupted",
		Err:     err,
	}
}

// ============== 工具函数 ==============

// IsAppError 判断错误链中是否包含AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// GetErrorCode 获取错误代码（错误链中第一个AppError）
func GetErrorCode(err error) ErrorCode {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// HasErrorCode 判断错误是否为特定错误代码
func HasErrorCode(err error, code ErrorCode) bool {
	return GetErrorCode(err) == code
}

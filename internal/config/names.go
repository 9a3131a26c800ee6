package config

// 已安装应用名称
const (
	AppAdmin        = "admin"
	AppAuth         = "auth"
	AppContentTypes = "contenttypes"
	AppSessions     = "sessions"
	AppMessages     = "messages"
	AppStaticFiles  = "staticfiles"
	AppREST         = "rest"
	AppCORS         = "cors"
	AppAPI          = "api"
)

// 中间件名称（列表顺序即请求经过的顺序）
const (
	MiddlewareCORS         = "cors"
	MiddlewareSecurity     = "security"
	MiddlewareSessions     = "sessions"
	MiddlewareCommon       = "common"
	MiddlewareCSRF         = "csrf"
	MiddlewareAuth         = "auth"
	MiddlewareMessages     = "messages"
	MiddlewareClickjacking = "clickjacking"
	MiddlewareCompression  = "compression"
)

// 模板上下文处理器
const (
	ContextProcessorDebug    = "debug"
	ContextProcessorRequest  = "request"
	ContextProcessorAuth     = "auth"
	ContextProcessorMessages = "messages"
)

// REST 认证与权限类
const (
	AuthClassSession = "session"
	AuthClassBasic   = "basic"

	PermissionAllowAny        = "allow_any"
	PermissionIsAuthenticated = "is_authenticated"
	PermissionIsAdminUser     = "is_admin_user"
)

// KnownApps 可安装的应用
var KnownApps = map[string]bool{
	AppAdmin: true, AppAuth: true, AppContentTypes: true, AppSessions: true,
	AppMessages: true, AppStaticFiles: true, AppREST: true, AppCORS: true, AppAPI: true,
}

// KnownMiddleware 可用中间件
var KnownMiddleware = map[string]bool{
	MiddlewareCORS: true, MiddlewareSecurity: true, MiddlewareSessions: true,
	MiddlewareCommon: true, MiddlewareCSRF: true, MiddlewareAuth: true,
	MiddlewareMessages: true, MiddlewareClickjacking: true, MiddlewareCompression: true,
}

// KnownContextProcessors 可用模板上下文处理器
var KnownContextProcessors = map[string]bool{
	ContextProcessorDebug: true, ContextProcessorRequest: true,
	ContextProcessorAuth: true, ContextProcessorMessages: true,
}

// KnownAuthClasses 可用认证类
var KnownAuthClasses = map[string]bool{
	AuthClassSession: true,
	AuthClassBasic:   true,
}

// KnownPermissionClasses 可用权限类
var KnownPermissionClasses = map[string]bool{
	PermissionAllowAny:        true,
	PermissionIsAuthenticated: true,
	PermissionIsAdminUser:     true,
}

// middlewareRequires 中间件对其他中间件的前置依赖
var middlewareRequires = map[string][]string{
	MiddlewareAuth:     {MiddlewareSessions},
	MiddlewareMessages: {MiddlewareSessions},
}

// baseInstalledApps 默认应用列表
func baseInstalledApps() []string {
	return []string{
		AppAdmin, AppAuth, AppContentTypes, AppSessions, AppMessages, AppStaticFiles,
		// 第三方
		AppREST,
		AppCORS,
		// 本项目
		AppAPI,
	}
}

// baseMiddleware 默认中间件顺序
func baseMiddleware() []string {
	return []string{
		MiddlewareCORS,
		MiddlewareSecurity,
		MiddlewareSessions,
		MiddlewareCommon,
		MiddlewareCSRF,
		MiddlewareAuth,
		MiddlewareMessages,
		MiddlewareClickjacking,
	}
}

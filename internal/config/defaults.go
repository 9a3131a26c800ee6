package config

import "time"

// 基础配置默认值（环境变量未设置时使用）
const (
	// DefaultSecretKey 开发环境密钥，生产环境必须覆盖
	DefaultSecretKey = "dev-unsafe"

	// DefaultDebug DJANGO_DEBUG 未设置时的取值（按字符串比较后得到 true）
	DefaultDebug = "True"

	// DefaultAllowedHosts 逗号分隔的默认主机白名单
	DefaultAllowedHosts = "127.0.0.1,localhost"

	// DefaultCORSAllowAll CORS_ALLOW_ALL 未设置时的取值
	DefaultCORSAllowAll = "True"

	// DefaultPort HTTP 监听端口
	DefaultPort = "8000"
)

// 数据库默认值
const (
	DefaultDBHost         = "127.0.0.1"
	DefaultPostgresPort   = "5432"
	DefaultMySQLPort      = "3306"
	DefaultSQLiteFileName = "db.sqlite3"

	// DefaultPostgresSSLMode lib/pq 不支持 prefer，未设置时不启用 TLS
	DefaultPostgresSSLMode = "disable"

	// local 配置档的 PostgreSQL 默认凭据
	DefaultLocalDBName     = "gym_local"
	DefaultLocalDBUser     = "postgres"
	DefaultLocalDBPassword = "postgres"
)

// 静态文件与模板
const (
	DefaultStaticURL      = "static/"
	DefaultStaticRootDir  = "staticfiles"
	DefaultTemplatesDir   = "templates"
	DefaultRootURLConf    = "core.urls"
	TemplateBackendHTML   = "html/template"
	DefaultAutoFieldBig   = "bigauto"
	DefaultAutoFieldSmall = "auto"
)

// 区域设置
const (
	DefaultLanguageCode = "es-mx"
	DefaultTimeZone     = "America/Mexico_City"
)

// 会话与Cookie
const (
	// DefaultSessionCookieAge 会话有效期（两周）
	DefaultSessionCookieAge = 14 * 24 * time.Hour

	SessionCookieName = "sessionid"
	CSRFCookieName    = "csrftoken"
	CSRFHeaderName    = "X-CSRFToken"
	CSRFFormField     = "csrfmiddlewaretoken"

	// SessionCleanupInterval 过期会话清理间隔
	SessionCleanupInterval = 1 * time.Hour
)

// SQL 连接池配置常量
const (
	// SQLiteMaxOpenConns SQLite 强制单连接（单写者模式）
	SQLiteMaxOpenConns = 1

	// SQLConnMaxLifetime 连接最大生命周期
	SQLConnMaxLifetime = 5 * time.Minute

	// ServerMaxOpenConns PostgreSQL/MySQL 最大连接数
	ServerMaxOpenConns = 10

	// ServerMaxIdleConns PostgreSQL/MySQL 最大空闲连接数
	ServerMaxIdleConns = 5
)

// 启动阶段超时
const (
	StartupDBPingTimeout    = 5 * time.Second
	StartupMigrationTimeout = 30 * time.Second
	ShutdownTimeout         = 10 * time.Second
)

// HTTP 服务器超时
const (
	HTTPReadHeaderTimeout = 10 * time.Second
	HTTPReadTimeout       = 30 * time.Second
	HTTPWriteTimeout      = 60 * time.Second
	HTTPIdleTimeout       = 120 * time.Second
)

// 日志
const (
	// LogMaxMessageLength 单条日志最大长度
	LogMaxMessageLength = 2000
)

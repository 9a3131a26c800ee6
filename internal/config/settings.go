package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"slices"
	"time"
	_ "time/tzdata" // 容器内缺少系统时区库时使用内嵌数据

	"github.com/joho/godotenv"
	"golang.org/x/text/language"
)

// Profile 配置档
type Profile string

const (
	ProfileBase  Profile = "base"
	ProfileLocal Profile = "local"
	ProfileProd  Profile = "prod"
)

// Engine 数据库引擎
type Engine string

const (
	EngineSQLite   Engine = "sqlite3"
	EnginePostgres Engine = "postgresql"
	EngineMySQL    Engine = "mysql"
)

// DefaultDatabaseAlias 默认数据库别名
const DefaultDatabaseAlias = "default"

// DatabaseConfig 数据库连接参数
type DatabaseConfig struct {
	Engine   Engine `json:"engine"`
	Name     string `json:"name"`
	User     string `json:"user,omitempty"`
	Password string `json:"password,omitempty"`
	Host     string `json:"host,omitempty"`
	Port     string `json:"port,omitempty"`
	// SSLMode 仅 PostgreSQL 使用
	SSLMode string `json:"sslmode,omitempty"`
}

// TemplateBackend 模板引擎配置
type TemplateBackend struct {
	Backend           string   `json:"backend"`
	Dirs              []string `json:"dirs"`
	AppDirs           bool     `json:"app_dirs"`
	ContextProcessors []string `json:"context_processors"`
}

// RESTFramework REST 接口默认认证与权限策略
type RESTFramework struct {
	DefaultAuthenticationClasses []string `json:"default_authentication_classes"`
	DefaultPermissionClasses     []string `json:"default_permission_classes"`
}

// ProxySSLHeader 反向代理传递的 HTTPS 标识头
type ProxySSLHeader struct {
	Header string `json:"header"`
	Value  string `json:"value"`
}

// Settings 进程启动时组装的完整配置（只读，启动后不再修改）
type Settings struct {
	Profile Profile `json:"profile"`
	BaseDir string  `json:"base_dir"`

	SecretKey    string   `json:"secret_key"`
	Debug        bool     `json:"debug"`
	AllowedHosts []string `json:"allowed_hosts"`

	InstalledApps []string          `json:"installed_apps"`
	Middleware    []string          `json:"middleware"`
	RootURLConf   string            `json:"root_urlconf"`
	Templates     []TemplateBackend `json:"templates"`

	Databases map[string]DatabaseConfig `json:"databases"`

	StaticURL  string `json:"static_url"`
	StaticRoot string `json:"static_root"`

	RESTFramework RESTFramework `json:"rest_framework"`

	CORSAllowAllOrigins bool     `json:"cors_allow_all_origins"`
	CORSAllowedOrigins  []string `json:"cors_allowed_origins"`

	LanguageCode     string `json:"language_code"`
	TimeZone         string `json:"time_zone"`
	UseI18N          bool   `json:"use_i18n"`
	UseTZ            bool   `json:"use_tz"`
	DefaultAutoField string `json:"default_auto_field"`

	// 生产加固
	SecureProxySSLHeader *ProxySSLHeader `json:"secure_proxy_ssl_header,omitempty"`
	SessionCookieSecure  bool            `json:"session_cookie_secure"`
	CSRFCookieSecure     bool            `json:"csrf_cookie_secure"`
	SessionCookieAge     time.Duration   `json:"session_cookie_age"`
	// TrustedProxies 允许提供 X-Forwarded-For 的代理（IP 或 CIDR），为空时 ClientIP 只取连接地址
	TrustedProxies []string `json:"trusted_proxies"`

	// 服务进程
	Port     string `json:"port"`
	GinMode  string `json:"gin_mode"`
	RedisURL string `json:"redis_url,omitempty"`

	// 管理后台账号（ADMIN_PASSWORD 为空时不启用登录）
	AdminUser     string `json:"admin_user,omitempty"`
	AdminPassword string `json:"admin_password,omitempty"`

	location *time.Location
	langTag  language.Tag
}

// LoadOptions 加载选项
type LoadOptions struct {
	// BaseDir 项目根目录，空值时依次使用 APP_BASE_DIR 和当前工作目录
	BaseDir string
	// Profile 强制配置档，空值时读取 SETTINGS_PROFILE
	Profile Profile
	// SkipDotEnv 不读取 BaseDir/.env
	SkipDotEnv bool
}

// Load 读取 .env 与环境变量，组装并验证配置
func Load(opts LoadOptions) (*Settings, error) {
	baseDir, err := resolveBaseDir(opts.BaseDir)
	if err != nil {
		return nil, err
	}

	// .env 不覆盖已存在的环境变量
	if !opts.SkipDotEnv {
		envFile := filepath.Join(baseDir, ".env")
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("load %s: %w", envFile, err)
			}
			log.Printf("[INFO] no .env file at %s", envFile)
		}
	}

	profile := opts.Profile
	if profile == "" {
		profile = Profile(getEnvOrDefault(EnvProfile, string(ProfileBase)))
	}

	s := newBaseSettings(baseDir)
	switch profile {
	case ProfileBase:
	case ProfileLocal:
		applyLocal(s)
	case ProfileProd:
		if err := applyProd(s); err != nil {
			return nil, fmt.Errorf("prod settings: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown %s: %q (want base, local or prod)", EnvProfile, profile)
	}
	s.Profile = profile
	s.finalize()

	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}
	return s, nil
}

// resolveBaseDir 解析项目根目录为绝对路径
func resolveBaseDir(dir string) (string, error) {
	if dir == "" {
		dir = getEnvOrDefault(EnvBaseDir, "")
	}
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("resolve working directory: %w", err)
		}
		dir = wd
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve base dir %q: %w", dir, err)
	}
	return abs, nil
}

// finalize 计算派生字段
func (s *Settings) finalize() {
	if s.GinMode == "" {
		if s.Debug {
			s.GinMode = "debug"
		} else {
			s.GinMode = "release"
		}
	}
}

// Default 返回 default 数据库配置
func (s *Settings) Default() DatabaseConfig {
	return s.Databases[DefaultDatabaseAlias]
}

// IsProduction 是否为生产配置档
func (s *Settings) IsProduction() bool {
	return s.Profile == ProfileProd
}

// HasApp 应用是否已安装
func (s *Settings) HasApp(name string) bool {
	return slices.Contains(s.InstalledApps, name)
}

// HasMiddleware 中间件是否启用
func (s *Settings) HasMiddleware(name string) bool {
	return slices.Contains(s.Middleware, name)
}

// Location 返回 TIME_ZONE 对应的时区（Validate 之后可用）
func (s *Settings) Location() *time.Location {
	if s.location == nil {
		return time.UTC
	}
	return s.location
}

// Now 当前时间：USE_TZ 时存储为 UTC，否则使用本地时区
func (s *Settings) Now() time.Time {
	if s.UseTZ {
		return time.Now().UTC()
	}
	return time.Now().In(s.Location())
}

// Language 返回 LANGUAGE_CODE 解析后的语言标签
func (s *Settings) Language() language.Tag {
	return s.langTag
}

// Addr 监听地址
func (s *Settings) Addr() string {
	return ":" + s.Port
}

// redacted 敏感值脱敏占位
const redacted = "********"

// Public 返回敏感字段已脱敏的副本（用于 diffsettings 与调试接口）
func (s *Settings) Public() *Settings {
	cp := *s
	cp.AllowedHosts = slices.Clone(s.AllowedHosts)
	cp.Databases = make(map[string]DatabaseConfig, len(s.Databases))
	for alias, db := range s.Databases {
		if db.Password != "" {
			db.Password = redacted
		}
		cp.Databases[alias] = db
	}
	cp.SecretKey = redacted
	if cp.RedisURL != "" {
		cp.RedisURL = redacted
	}
	if cp.AdminPassword != "" {
		cp.AdminPassword = redacted
	}
	return &cp
}

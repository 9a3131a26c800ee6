package config

import (
	"errors"
	"fmt"
	"log"
	"net"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"

	apperrors "gymcore/internal/errors"
)

// Validate 验证配置合法性，汇总所有错误
// 同时解析 TIME_ZONE 与 LANGUAGE_CODE，供 Location/Language 使用
func (s *Settings) Validate() error {
	var errs []error

	if s.SecretKey == "" {
		errs = append(errs, errors.New("SECRET_KEY must not be empty"))
	}
	if s.IsProduction() {
		if s.SecretKey == DefaultSecretKey {
			log.Printf("[WARN] %s is not set, production is running with the development key", EnvSecretKey)
		}
		if len(s.AllowedHosts) == 0 {
			errs = append(errs, fmt.Errorf("%s must list at least one host in production", EnvProdAllowedHosts))
		}
	}

	if port, err := strconv.Atoi(s.Port); err != nil || port < 1 || port > 65535 {
		errs = append(errs, fmt.Errorf("invalid %s: %q", EnvPort, s.Port))
	}
	switch s.GinMode {
	case "debug", "release", "test":
	default:
		errs = append(errs, fmt.Errorf("invalid %s: %q", EnvGinMode, s.GinMode))
	}

	errs = append(errs, checkNames("installed app", s.InstalledApps, KnownApps)...)
	errs = append(errs, checkNames("middleware", s.Middleware, KnownMiddleware)...)
	errs = append(errs, s.checkMiddlewareOrder()...)
	for _, tb := range s.Templates {
		if tb.Backend != TemplateBackendHTML {
			errs = append(errs, fmt.Errorf("unknown template backend %q", tb.Backend))
		}
		errs = append(errs, checkNames("context processor", tb.ContextProcessors, KnownContextProcessors)...)
	}
	errs = append(errs, checkNames("authentication class", s.RESTFramework.DefaultAuthenticationClasses, KnownAuthClasses)...)
	errs = append(errs, checkNames("permission class", s.RESTFramework.DefaultPermissionClasses, KnownPermissionClasses)...)

	if db, ok := s.Databases[DefaultDatabaseAlias]; !ok {
		errs = append(errs, errors.New("databases: missing default connection"))
	} else if err := db.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("databases.default: %w", err))
	}

	if s.StaticURL == "" || s.StaticURL == "/" {
		errs = append(errs, fmt.Errorf("invalid static url %q", s.StaticURL))
	} else if !strings.HasSuffix(s.StaticURL, "/") {
		errs = append(errs, fmt.Errorf("static url %q must end with a slash", s.StaticURL))
	}

	if loc, err := time.LoadLocation(s.TimeZone); err != nil {
		errs = append(errs, fmt.Errorf("invalid time zone %q: %w", s.TimeZone, err))
	} else {
		s.location = loc
	}
	if tag, err := language.Parse(s.LanguageCode); err != nil {
		errs = append(errs, fmt.Errorf("invalid language code %q: %w", s.LanguageCode, err))
	} else {
		s.langTag = tag
	}

	for _, p := range s.TrustedProxies {
		if !isIPOrCIDR(p) {
			errs = append(errs, fmt.Errorf("invalid %s entry %q", EnvTrustedProxies, p))
		}
	}
	switch s.DefaultAutoField {
	case DefaultAutoFieldBig, DefaultAutoFieldSmall:
	default:
		errs = append(errs, fmt.Errorf("invalid default auto field %q", s.DefaultAutoField))
	}

	if s.SessionCookieAge <= 0 {
		errs = append(errs, errors.New("session cookie age must be positive"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Validate 数据库参数校验：端口与 sslmode
func (d DatabaseConfig) Validate() error {
	switch d.Engine {
	case EngineSQLite:
		if d.Name == "" {
			return errors.New("sqlite database path is empty")
		}
		return nil
	case EnginePostgres, EngineMySQL:
		// 库名、主机可为空（沿用默认值），prod 配置档由 applyProd 强制必填
		if port, err := strconv.Atoi(d.Port); err != nil || port < 1 || port > 65535 {
			return fmt.Errorf("%s: invalid %s %q", d.Engine, EnvDBPort, d.Port)
		}
		if d.Engine == EnginePostgres {
			switch d.SSLMode {
			case "", "disable", "require", "verify-ca", "verify-full":
			default:
				return fmt.Errorf("%s: invalid %s %q", d.Engine, EnvDBSSLMode, d.SSLMode)
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown engine %q", d.Engine)
	}
}

func isIPOrCIDR(v string) bool {
	if _, _, err := net.ParseCIDR(v); err == nil {
		return true
	}
	return net.ParseIP(v) != nil
}

func checkNames(kind string, names []string, known map[string]bool) []error {
	var errs []error
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		if !known[n] {
			errs = append(errs, apperrors.UnknownNameError(kind, n))
		}
		if seen[n] {
			errs = append(errs, fmt.Errorf("duplicate %s %q", kind, n))
		}
		seen[n] = true
	}
	return errs
}

// checkMiddlewareOrder auth/messages 依赖会话中间件且必须排在其后
func (s *Settings) checkMiddlewareOrder() []error {
	var errs []error
	pos := make(map[string]int, len(s.Middleware))
	for i, name := range s.Middleware {
		pos[name] = i
	}
	for name, deps := range middlewareRequires {
		i, ok := pos[name]
		if !ok {
			continue
		}
		for _, dep := range deps {
			j, ok := pos[dep]
			if !ok || j > i {
				errs = append(errs, fmt.Errorf("middleware %q must come after %q", name, dep))
			}
		}
	}
	return errs
}

package config

import (
	"errors"
	"path/filepath"
)

// newBaseSettings base 配置档：环境变量 + 字面默认值
func newBaseSettings(baseDir string) *Settings {
	s := &Settings{
		BaseDir: baseDir,

		SecretKey:    getEnvOrDefault(EnvSecretKey, DefaultSecretKey),
		Debug:        getFlagEnv(EnvDebug, DefaultDebug),
		AllowedHosts: getListEnv(EnvAllowedHosts, DefaultAllowedHosts),

		InstalledApps: baseInstalledApps(),
		Middleware:    baseMiddleware(),
		RootURLConf:   DefaultRootURLConf,
		Templates: []TemplateBackend{{
			Backend: TemplateBackendHTML,
			Dirs:    []string{filepath.Join(baseDir, DefaultTemplatesDir)},
			AppDirs: true,
			ContextProcessors: []string{
				ContextProcessorDebug,
				ContextProcessorRequest,
				ContextProcessorAuth,
				ContextProcessorMessages,
			},
		}},

		Databases: map[string]DatabaseConfig{
			DefaultDatabaseAlias: baseDatabase(baseDir),
		},

		StaticURL:  DefaultStaticURL,
		StaticRoot: filepath.Join(baseDir, DefaultStaticRootDir),

		RESTFramework: RESTFramework{
			DefaultAuthenticationClasses: []string{AuthClassSession},
			DefaultPermissionClasses:     []string{PermissionAllowAny},
		},

		CORSAllowAllOrigins: getFlagEnv(EnvCORSAllowAll, DefaultCORSAllowAll),
		CORSAllowedOrigins:  getListEnv(EnvCORSAllowedOrigins, ""),

		LanguageCode:     DefaultLanguageCode,
		TimeZone:         DefaultTimeZone,
		UseI18N:          true,
		UseTZ:            true,
		DefaultAutoField: DefaultAutoFieldBig,

		SessionCookieAge: getDurationEnv(EnvSessionCookieAge, DefaultSessionCookieAge),
		TrustedProxies:   getListEnv(EnvTrustedProxies, ""),

		Port:     getEnvOrDefault(EnvPort, DefaultPort),
		GinMode:  getEnvOrDefault(EnvGinMode, ""),
		RedisURL: getEnvOrDefault(EnvRedisURL, ""),

		AdminUser:     getEnvOrDefault(EnvAdminUser, "admin"),
		AdminPassword: getEnvOrDefault(EnvAdminPassword, ""),
	}
	return s
}

// baseDatabase 按 DB_ENGINE 选择数据库，默认 SQLite
func baseDatabase(baseDir string) DatabaseConfig {
	switch getEnvOrDefault(EnvDBEngine, "") {
	case EngineValuePostgres:
		return DatabaseConfig{
			Engine:   EnginePostgres,
			Name:     getEnvOrDefault(EnvDBName, ""),
			User:     getEnvOrDefault(EnvDBUser, ""),
			Password: getEnvOrDefault(EnvDBPassword, ""),
			Host:     getEnvOrDefault(EnvDBHost, DefaultDBHost),
			Port:     getEnvOrDefault(EnvDBPort, DefaultPostgresPort),
			SSLMode:  getEnvOrDefault(EnvDBSSLMode, DefaultPostgresSSLMode),
		}
	case EngineValueMySQL:
		return DatabaseConfig{
			Engine:   EngineMySQL,
			Name:     getEnvOrDefault(EnvDBName, ""),
			User:     getEnvOrDefault(EnvDBUser, ""),
			Password: getEnvOrDefault(EnvDBPassword, ""),
			Host:     getEnvOrDefault(EnvDBHost, DefaultDBHost),
			Port:     getEnvOrDefault(EnvDBPort, DefaultMySQLPort),
		}
	default:
		return DatabaseConfig{
			Engine: EngineSQLite,
			Name:   filepath.Join(baseDir, DefaultSQLiteFileName),
		}
	}
}

// applyLocal local 配置档：本地 PostgreSQL，固定主机白名单
func applyLocal(s *Settings) {
	s.Debug = true
	s.AllowedHosts = []string{"localhost", "127.0.0.1"}
	s.Databases[DefaultDatabaseAlias] = DatabaseConfig{
		Engine:   EnginePostgres,
		Name:     getEnvOrDefault(EnvDBName, DefaultLocalDBName),
		User:     getEnvOrDefault(EnvDBUser, DefaultLocalDBUser),
		Password: getEnvOrDefault(EnvDBPassword, DefaultLocalDBPassword),
		Host:     getEnvOrDefault(EnvDBHost, DefaultDBHost),
		Port:     getEnvOrDefault(EnvDBPort, DefaultPostgresPort),
		SSLMode:  getEnvOrDefault(EnvDBSSLMode, DefaultPostgresSSLMode),
	}
}

// applyProd prod 配置档：关闭调试，代理 HTTPS 头，安全 Cookie，必填数据库参数
func applyProd(s *Settings) error {
	s.Debug = false
	s.AllowedHosts = getListEnv(EnvProdAllowedHosts, "")

	s.SecureProxySSLHeader = &ProxySSLHeader{Header: "X-Forwarded-Proto", Value: "https"}
	s.SessionCookieSecure = true
	s.CSRFCookieSecure = true

	var errs []error
	required := func(key string) string {
		v, err := requireEnv(key)
		if err != nil {
			errs = append(errs, err)
		}
		return v
	}
	db := DatabaseConfig{
		Engine:   EnginePostgres,
		Name:     required(EnvDBName),
		User:     required(EnvDBUser),
		Password: required(EnvDBPassword),
		Host:     required(EnvDBHost),
		Port:     getEnvOrDefault(EnvDBPort, DefaultPostgresPort),
		SSLMode:  getEnvOrDefault(EnvDBSSLMode, DefaultPostgresSSLMode),
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	s.Databases[DefaultDatabaseAlias] = db
	return nil
}

package config

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"
)

var allEnvKeys = []string{
	EnvProfile, EnvBaseDir, EnvSecretKey, EnvDebug, EnvAllowedHosts, EnvProdAllowedHosts,
	EnvDBEngine, EnvDBName, EnvDBUser, EnvDBPassword, EnvDBHost, EnvDBPort, EnvDBSSLMode,
	EnvCORSAllowAll, EnvCORSAllowedOrigins, EnvPort, EnvGinMode, EnvRedisURL, EnvTrustedProxies,
	EnvSessionCookieAge, EnvAdminUser, EnvAdminPassword,
}

// clearEnv 清空所有识别的环境变量，测试结束后自动恢复
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range allEnvKeys {
		t.Setenv(k, "")
		_ = os.Unsetenv(k)
	}
}

func load(t *testing.T, profile Profile) *Settings {
	t.Helper()
	s, err := Load(LoadOptions{BaseDir: t.TempDir(), Profile: profile, SkipDotEnv: true})
	if err != nil {
		t.Fatalf("Load(%s) failed: %v", profile, err)
	}
	return s
}

func TestLoad_BaseDefaults(t *testing.T) {
	clearEnv(t)
	s := load(t, "")

	if s.Profile != ProfileBase {
		t.Errorf("Profile = %q, want base", s.Profile)
	}
	if s.SecretKey != DefaultSecretKey {
		t.Errorf("SecretKey = %q, want %q", s.SecretKey, DefaultSecretKey)
	}
	if !s.Debug {
		t.Error("Debug should default to true")
	}
	if !slices.Equal(s.AllowedHosts, []string{"127.0.0.1", "localhost"}) {
		t.Errorf("AllowedHosts = %v", s.AllowedHosts)
	}
	if !s.CORSAllowAllOrigins {
		t.Error("CORSAllowAllOrigins should default to true")
	}
	if s.Port != DefaultPort {
		t.Errorf("Port = %q, want %q", s.Port, DefaultPort)
	}
	if s.GinMode != "debug" {
		t.Errorf("GinMode = %q, want debug (derived from Debug)", s.GinMode)
	}

	db := s.Default()
	if db.Engine != EngineSQLite {
		t.Errorf("Engine = %q, want sqlite3", db.Engine)
	}
	if db.Name != filepath.Join(s.BaseDir, "db.sqlite3") {
		t.Errorf("sqlite path = %q", db.Name)
	}

	if s.StaticURL != "static/" {
		t.Errorf("StaticURL = %q", s.StaticURL)
	}
	if s.StaticRoot != filepath.Join(s.BaseDir, "staticfiles") {
		t.Errorf("StaticRoot = %q", s.StaticRoot)
	}
	if len(s.Templates) != 1 || !s.Templates[0].AppDirs ||
		s.Templates[0].Dirs[0] != filepath.Join(s.BaseDir, "templates") {
		t.Errorf("Templates = %+v", s.Templates)
	}
	if !slices.Equal(s.Templates[0].ContextProcessors, []string{"debug", "request", "auth", "messages"}) {
		t.Errorf("ContextProcessors = %v", s.Templates[0].ContextProcessors)
	}
	if !slices.Equal(s.RESTFramework.DefaultAuthenticationClasses, []string{AuthClassSession}) {
		t.Errorf("auth classes = %v", s.RESTFramework.DefaultAuthenticationClasses)
	}
	if !slices.Equal(s.RESTFramework.DefaultPermissionClasses, []string{PermissionAllowAny}) {
		t.Errorf("permission classes = %v", s.RESTFramework.DefaultPermissionClasses)
	}
	if s.LanguageCode != "es-mx" || s.TimeZone != "America/Mexico_City" || !s.UseI18N || !s.UseTZ {
		t.Errorf("locale = %q %q i18n=%v tz=%v", s.LanguageCode, s.TimeZone, s.UseI18N, s.UseTZ)
	}
	if s.Location().String() != "America/Mexico_City" {
		t.Errorf("Location = %v", s.Location())
	}
	if s.Language().String() != "es-MX" {
		t.Errorf("Language = %v", s.Language())
	}
	if s.DefaultAutoField != DefaultAutoFieldBig {
		t.Errorf("DefaultAutoField = %q", s.DefaultAutoField)
	}
}

func TestLoad_MiddlewareAndAppsOrder(t *testing.T) {
	clearEnv(t)
	s := load(t, ProfileBase)

	wantMW := []string{"cors", "security", "sessions", "common", "csrf", "auth", "messages", "clickjacking"}
	if !slices.Equal(s.Middleware, wantMW) {
		t.Errorf("Middleware = %v, want %v", s.Middleware, wantMW)
	}
	wantApps := []string{"admin", "auth", "contenttypes", "sessions", "messages", "staticfiles", "rest", "cors", "api"}
	if !slices.Equal(s.InstalledApps, wantApps) {
		t.Errorf("InstalledApps = %v, want %v", s.InstalledApps, wantApps)
	}
}

func TestLoad_EnvPropagatesVerbatim(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvSecretKey, "s3cr3t-value")
	t.Setenv(EnvAllowedHosts, " api.example.com , .example.org ")
	t.Setenv(EnvPort, "9090")
	t.Setenv(EnvGinMode, "release")
	t.Setenv(EnvCORSAllowedOrigins, "https://a.example.com,https://b.example.com")
	t.Setenv(EnvSessionCookieAge, "3600")

	s := load(t, ProfileBase)

	if s.SecretKey != "s3cr3t-value" {
		t.Errorf("SecretKey = %q", s.SecretKey)
	}
	if !slices.Equal(s.AllowedHosts, []string{"api.example.com", ".example.org"}) {
		t.Errorf("AllowedHosts = %v", s.AllowedHosts)
	}
	if s.Port != "9090" || s.GinMode != "release" {
		t.Errorf("Port/GinMode = %q/%q", s.Port, s.GinMode)
	}
	if len(s.CORSAllowedOrigins) != 2 {
		t.Errorf("CORSAllowedOrigins = %v", s.CORSAllowedOrigins)
	}
	if s.SessionCookieAge != time.Hour {
		t.Errorf("SessionCookieAge = %v", s.SessionCookieAge)
	}
}

func TestLoad_FlagParsing(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"True", true},
		{"true", true},
		{"TRUE", true},
		{"False", false},
		{"1", false},
		{"yes", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run("value="+tt.value, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(EnvDebug, tt.value)
			t.Setenv(EnvCORSAllowAll, tt.value)
			s := load(t, ProfileBase)
			if s.Debug != tt.want {
				t.Errorf("Debug = %v, want %v", s.Debug, tt.want)
			}
			if s.CORSAllowAllOrigins != tt.want {
				t.Errorf("CORSAllowAllOrigins = %v, want %v", s.CORSAllowAllOrigins, tt.want)
			}
		})
	}
}

func TestLoad_PostgresSelection(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvDBEngine, "postgres")
	t.Setenv(EnvDBName, "gym")
	t.Setenv(EnvDBUser, "gymuser")
	t.Setenv(EnvDBPassword, "pw")

	db := load(t, ProfileBase).Default()
	want := DatabaseConfig{Engine: EnginePostgres, Name: "gym", User: "gymuser", Password: "pw", Host: "127.0.0.1", Port: "5432", SSLMode: "disable"}
	if db != want {
		t.Errorf("db = %+v, want %+v", db, want)
	}

	t.Setenv(EnvDBHost, "db.internal")
	t.Setenv(EnvDBPort, "6432")
	t.Setenv(EnvDBSSLMode, "verify-full")
	db = load(t, ProfileBase).Default()
	if db.Host != "db.internal" || db.Port != "6432" || db.SSLMode != "verify-full" {
		t.Errorf("db = %+v", db)
	}
}

func TestLoad_PostgresWithoutNameUsesEmptyDefault(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvDBEngine, "postgres")

	db := load(t, ProfileBase).Default()
	want := DatabaseConfig{Engine: EnginePostgres, Host: DefaultDBHost, Port: DefaultPostgresPort, SSLMode: DefaultPostgresSSLMode}
	if db != want {
		t.Errorf("db = %+v, want %+v", db, want)
	}

	// 非 prod 配置档中库名、主机为空也能加载
	t.Setenv(EnvDBHost, "")
	if got := load(t, ProfileBase).Default().Host; got != "" {
		t.Errorf("Host = %q, want empty", got)
	}
}

func TestLoad_TrustedProxies(t *testing.T) {
	clearEnv(t)
	if got := load(t, ProfileBase).TrustedProxies; len(got) != 0 {
		t.Errorf("TrustedProxies default = %v, want empty", got)
	}

	t.Setenv(EnvTrustedProxies, "10.0.0.0/8, 192.168.1.10")
	got := load(t, ProfileBase).TrustedProxies
	if len(got) != 2 || got[0] != "10.0.0.0/8" || got[1] != "192.168.1.10" {
		t.Errorf("TrustedProxies = %v", got)
	}
}

func TestLoad_MySQLSelection(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvDBEngine, "mysql")
	t.Setenv(EnvDBName, "gym")

	db := load(t, ProfileBase).Default()
	if db.Engine != EngineMySQL || db.Port != DefaultMySQLPort || db.Host != DefaultDBHost {
		t.Errorf("db = %+v", db)
	}
}

func TestLoad_UnknownEngineFallsBackToSQLite(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvDBEngine, "Postgres")

	if got := load(t, ProfileBase).Default().Engine; got != EngineSQLite {
		t.Errorf("Engine = %q, want sqlite3 (match is exact)", got)
	}
}

func TestLoad_LocalProfile(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvDebug, "false")
	t.Setenv(EnvAllowedHosts, "ignored.example.com")

	s := load(t, ProfileLocal)
	if !s.Debug {
		t.Error("local profile forces Debug=true")
	}
	if !slices.Equal(s.AllowedHosts, []string{"localhost", "127.0.0.1"}) {
		t.Errorf("AllowedHosts = %v", s.AllowedHosts)
	}
	want := DatabaseConfig{Engine: EnginePostgres, Name: "gym_local", User: "postgres", Password: "postgres", Host: "127.0.0.1", Port: "5432", SSLMode: "disable"}
	if db := s.Default(); db != want {
		t.Errorf("db = %+v, want %+v", db, want)
	}

	t.Setenv(EnvDBName, "other")
	if db := load(t, ProfileLocal).Default(); db.Name != "other" {
		t.Errorf("DB_NAME override ignored: %+v", db)
	}
}

func setProdEnv(t *testing.T) {
	t.Helper()
	t.Setenv(EnvSecretKey, "prod-secret")
	t.Setenv(EnvProdAllowedHosts, "gym.example.com,www.gym.example.com")
	t.Setenv(EnvDBName, "gym")
	t.Setenv(EnvDBUser, "gym")
	t.Setenv(EnvDBPassword, "pw")
	t.Setenv(EnvDBHost, "db")
}

func TestLoad_ProdProfile(t *testing.T) {
	clearEnv(t)
	setProdEnv(t)
	t.Setenv(EnvDebug, "true")

	s := load(t, ProfileProd)
	if s.Debug {
		t.Error("prod profile forces Debug=false")
	}
	if s.GinMode != "release" {
		t.Errorf("GinMode = %q", s.GinMode)
	}
	if !slices.Equal(s.AllowedHosts, []string{"gym.example.com", "www.gym.example.com"}) {
		t.Errorf("AllowedHosts = %v", s.AllowedHosts)
	}
	if s.SecureProxySSLHeader == nil || s.SecureProxySSLHeader.Header != "X-Forwarded-Proto" || s.SecureProxySSLHeader.Value != "https" {
		t.Errorf("SecureProxySSLHeader = %+v", s.SecureProxySSLHeader)
	}
	if !s.SessionCookieSecure || !s.CSRFCookieSecure {
		t.Error("prod cookies must be secure")
	}
	db := s.Default()
	if db.Engine != EnginePostgres || db.Port != "5432" || db.Host != "db" {
		t.Errorf("db = %+v", db)
	}
}

func TestLoad_ProdMissingRequired(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvProdAllowedHosts, "gym.example.com")
	t.Setenv(EnvDBName, "gym")

	_, err := Load(LoadOptions{BaseDir: t.TempDir(), Profile: ProfileProd, SkipDotEnv: true})
	if err == nil {
		t.Fatal("expected prod load to fail without DB credentials")
	}
	for _, key := range []string{EnvDBUser, EnvDBPassword, EnvDBHost} {
		if !strings.Contains(err.Error(), key) {
			t.Errorf("error should mention %s: %v", key, err)
		}
	}
	if strings.Contains(err.Error(), EnvDBName+" is required") {
		t.Errorf("DB_NAME was set and must not be reported: %v", err)
	}
}

func TestLoad_ProdEmptyAllowedHostsRefused(t *testing.T) {
	clearEnv(t)
	setProdEnv(t)
	_ = os.Unsetenv(EnvProdAllowedHosts)

	_, err := Load(LoadOptions{BaseDir: t.TempDir(), Profile: ProfileProd, SkipDotEnv: true})
	if err == nil || !strings.Contains(err.Error(), EnvProdAllowedHosts) {
		t.Fatalf("expected ALLOWED_HOSTS error, got %v", err)
	}
}

func TestLoad_ProfileFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvProfile, "local")
	if s := load(t, ""); s.Profile != ProfileLocal {
		t.Errorf("Profile = %q", s.Profile)
	}

	t.Setenv(EnvProfile, "staging")
	if _, err := Load(LoadOptions{BaseDir: t.TempDir(), SkipDotEnv: true}); err == nil {
		t.Error("expected error for unknown profile")
	}
}

func TestLoad_DotEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	content := "DJANGO_SECRET_KEY=from-dotenv\nPORT=7000\n"
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	// 已存在的环境变量优先于 .env
	t.Setenv(EnvPort, "7100")

	s, err := Load(LoadOptions{BaseDir: dir})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if s.SecretKey != "from-dotenv" {
		t.Errorf("SecretKey = %q, want from-dotenv", s.SecretKey)
	}
	if s.Port != "7100" {
		t.Errorf("Port = %q, want 7100 (process env wins)", s.Port)
	}
}

func TestLoad_BaseDirFromEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	t.Setenv(EnvBaseDir, dir)

	s, err := Load(LoadOptions{SkipDotEnv: true})
	if err != nil {
		t.Fatal(err)
	}
	if s.BaseDir != dir {
		t.Errorf("BaseDir = %q, want %q", s.BaseDir, dir)
	}
}

func TestValidate_Errors(t *testing.T) {
	clearEnv(t)
	tests := []struct {
		name   string
		mutate func(s *Settings)
		want   string
	}{
		{"bad port", func(s *Settings) { s.Port = "70000" }, "PORT"},
		{"bad gin mode", func(s *Settings) { s.GinMode = "verbose" }, "GIN_MODE"},
		{"bad trusted proxy", func(s *Settings) { s.TrustedProxies = []string{"10.0.0.0/8", "proxy.local"} }, `TRUSTED_PROXIES entry "proxy.local"`},
		{"bad auto field", func(s *Settings) { s.DefaultAutoField = "uuid" }, "default auto field"},
		{"unknown middleware", func(s *Settings) { s.Middleware = append(s.Middleware, "gzip") }, `unknown middleware "gzip"`},
		{"duplicate app", func(s *Settings) { s.InstalledApps = append(s.InstalledApps, AppAPI) }, "duplicate installed app"},
		{"auth before sessions", func(s *Settings) {
			s.Middleware = []string{MiddlewareAuth, MiddlewareSessions}
		}, `"auth" must come after "sessions"`},
		{"unknown permission", func(s *Settings) {
			s.RESTFramework.DefaultPermissionClasses = []string{"is_owner"}
		}, "permission class"},
		{"bad timezone", func(s *Settings) { s.TimeZone = "Mars/Olympus" }, "time zone"},
		{"bad language", func(s *Settings) { s.LanguageCode = "not a tag!" }, "language code"},
		{"static url slash", func(s *Settings) { s.StaticURL = "static" }, "must end with a slash"},
		{"empty secret", func(s *Settings) { s.SecretKey = "" }, "SECRET_KEY"},
		{"bad sslmode", func(s *Settings) {
			s.Databases[DefaultDatabaseAlias] = DatabaseConfig{Engine: EnginePostgres, Name: "x", Host: "h", Port: "5432", SSLMode: "prefer"}
		}, "DB_SSLMODE"},
		{"missing default db", func(s *Settings) { delete(s.Databases, DefaultDatabaseAlias) }, "missing default"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := load(t, ProfileBase)
			tt.mutate(s)
			err := s.Validate()
			if err == nil {
				t.Fatalf("expected error containing %q", tt.want)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestPublic_RedactsSecrets(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvDBEngine, "postgres")
	t.Setenv(EnvDBName, "gym")
	t.Setenv(EnvDBPassword, "db-password")
	t.Setenv(EnvRedisURL, "redis://:pw@localhost:6379/0")
	t.Setenv(EnvAdminPassword, "hunter2")

	s := load(t, ProfileBase)
	p := s.Public()

	if p.SecretKey == s.SecretKey || p.Default().Password == "db-password" ||
		p.RedisURL == s.RedisURL || p.AdminPassword == "hunter2" {
		t.Errorf("secrets leaked: %+v", p)
	}
	// 原对象不受影响
	if s.Default().Password != "db-password" {
		t.Error("Public must not mutate the original settings")
	}
}

func TestSplitList(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", []string{}},
		{"a", []string{"a"}},
		{" a , b ,,c ", []string{"a", "b", "c"}},
	}
	for _, tt := range tests {
		if got := splitList(tt.in); !slices.Equal(got, tt.want) {
			t.Errorf("splitList(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

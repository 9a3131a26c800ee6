package testutil

import (
	"testing"

	"gymcore/internal/config"
)

// TestHost httptest.NewRequest 默认的 Host
const TestHost = "example.com"

// NewSettings 以 base 配置档加载设置，BaseDir 为临时目录，不读取 .env
// 白名单加入 httptest 默认主机，可通过 mutate 调整
func NewSettings(t testing.TB, mutate ...func(*config.Settings)) *config.Settings {
	t.Helper()

	s, err := config.Load(config.LoadOptions{
		BaseDir:    t.TempDir(),
		Profile:    config.ProfileBase,
		SkipDotEnv: true,
	})
	if err != nil {
		t.Fatalf("加载测试配置失败: %v", err)
	}
	s.AllowedHosts = append(s.AllowedHosts, TestHost)
	s.AdminUser = "admin"
	s.AdminPassword = ""
	for _, fn := range mutate {
		fn(s)
	}
	return s
}

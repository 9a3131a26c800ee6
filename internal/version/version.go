// Package version 提供构建版本信息
// 版本号通过 go build -ldflags 注入，用于静态资源缓存控制与健康检查
package version

import "fmt"

// 构建信息变量，通过 ldflags 注入
// 构建命令示例:
//
//	go build -ldflags "-X gymcore/internal/version.Version=$(git describe --tags --always) \
//	  -X gymcore/internal/version.Commit=$(git rev-parse --short HEAD) \
//	  -X 'gymcore/internal/version.BuildTime=$(date +%Y-%m-%d\ %H:%M:%S\ %z)'" ./cmd/manage
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// IsDev 未注入版本号的开发构建
func IsDev() bool {
	return Version == "dev"
}

// String 单行版本描述
func String() string {
	return fmt.Sprintf("gymcore %s (commit %s, built %s)", Version, Commit, BuildTime)
}

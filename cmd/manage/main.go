// Command manage 项目管理命令：启动服务、迁移数据库、收集静态文件、检查与导出配置
package main

import (
	"log"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Printf("[FATAL] %v", err)
		os.Exit(1)
	}
}

package version

import (
	"fmt"
	"os"

	"golang.org/x/term"
)

const banner = `
  ██████╗ ██╗   ██╗███╗   ███╗
 ██╔════╝ ╚██╗ ██╔╝████╗ ████║
 ██║  ███╗ ╚████╔╝ ██╔████╔██║
 ██║   ██║  ╚██╔╝  ██║╚██╔╝██║
 ╚██████╔╝   ██║   ██║ ╚═╝ ██║
  ╚═════╝    ╚═╝   ╚═╝     ╚═╝
`

const tagline = "Gym management backend"

// ANSI 颜色码
const (
	colorReset  = "\033[0m"
	colorCyan   = "\033[36m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
)

// PrintBanner 打印启动 Banner、版本信息与配置档到 f
// 非终端不输出颜色
func PrintBanner(f *os.File, profile string) {
	isTTY := term.IsTerminal(int(f.Fd()))

	color := func(c string) string {
		if isTTY {
			return c
		}
		return ""
	}

	fmt.Fprintf(f, "%s%s%s", color(colorCyan), banner, color(colorReset))
	fmt.Fprintf(f, "  %s%s%s\n\n", color(colorYellow), tagline, color(colorReset))
	for _, row := range [][2]string{
		{"Version:", Version},
		{"Commit:", Commit},
		{"Build Time:", BuildTime},
		{"Profile:", profile},
	} {
		fmt.Fprintf(f, "%-14s %s%s%s\n", row[0], color(colorGreen), row[1], color(colorReset))
	}
	fmt.Fprintln(f)
}

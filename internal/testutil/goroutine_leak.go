package testutil

import (
	"runtime"
	"strings"
	"testing"
	"time"
)

// leakSettleTimeout 等待后台 goroutine 退出的最长时间
const leakSettleTimeout = 2 * time.Second

// ignoredStacks 不计入泄漏的 goroutine（测试框架与 database/sql 连接池）
var ignoredStacks = []string{
	"testing.(*T).Run",
	"testing.tRunner",
	"testing.Main",
	"database/sql.(*DB).connectionOpener",
	"database/sql.(*DB).connectionCleaner",
}

// CheckGoroutineLeak 检查测试执行期间启动的 goroutine 是否全部退出
//
//	defer testutil.CheckGoroutineLeak(t)()
func CheckGoroutineLeak(t *testing.T) func() {
	t.Helper()
	before := countRelevantGoroutines()

	return func() {
		t.Helper()

		deadline := time.Now().Add(leakSettleTimeout)
		after := countRelevantGoroutines()
		for after > before && time.Now().Before(deadline) {
			time.Sleep(20 * time.Millisecond)
			runtime.GC()
			after = countRelevantGoroutines()
		}

		if leaked := after - before; leaked > 0 {
			buf := make([]byte, 1<<20)
			n := runtime.Stack(buf, true)
			t.Errorf("goroutine 泄漏 %d 个\n\n当前堆栈:\n%s", leaked, buf[:n])
		}
	}
}

// countRelevantGoroutines 按堆栈分组计数，忽略 ignoredStacks
func countRelevantGoroutines() int {
	buf := make([]byte, 1<<20)
	n := runtime.Stack(buf, true)

	count := 0
	for _, stack := range strings.Split(string(buf[:n]), "\n\n") {
		if strings.TrimSpace(stack) == "" || isIgnoredGoroutine(stack) {
			continue
		}
		count++
	}
	return count
}

func isIgnoredGoroutine(stack string) bool {
	for _, pattern := range ignoredStacks {
		if strings.Contains(stack, pattern) {
			return true
		}
	}
	return false
}

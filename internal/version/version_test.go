package version

import (
	"io"
	"os"
	"strings"
	"testing"
)

func TestString(t *testing.T) {
	origVersion, origCommit, origBuildTime := Version, Commit, BuildTime
	defer func() { Version, Commit, BuildTime = origVersion, origCommit, origBuildTime }()

	Version, Commit, BuildTime = "v1.2.3", "abc1234", "2026-01-01"
	if got, want := String(), "gymcore v1.2.3 (commit abc1234, built 2026-01-01)"; got != want {
		t.Fatalf("String()=%q, want %q", got, want)
	}
	if IsDev() {
		t.Fatal("IsDev() should be false for tagged builds")
	}
}

func TestPrintBanner_NonTTY(t *testing.T) {
	// pipe 不是终端，走无颜色分支
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe failed: %v", err)
	}
	defer func() { _ = r.Close() }()

	origVersion, origCommit, origBuildTime := Version, Commit, BuildTime
	Version, Commit, BuildTime = "test-ver", "test-commit", "test-time"
	defer func() { Version, Commit, BuildTime = origVersion, origCommit, origBuildTime }()

	PrintBanner(w, "prod")
	_ = w.Close()

	out, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("read pipe failed: %v", err)
	}
	s := string(out)
	for _, mustContain := range []string{
		tagline,
		"Version:", "test-ver",
		"Commit:", "test-commit",
		"Build Time:", "test-time",
		"Profile:", "prod",
	} {
		if !strings.Contains(s, mustContain) {
			t.Fatalf("banner output missing %q, got:\n%s", mustContain, s)
		}
	}
	if strings.Contains(s, "\033[") {
		t.Fatalf("non-TTY output should not contain ANSI codes:\n%s", s)
	}
}

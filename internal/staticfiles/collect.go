// Package staticfiles 汇总项目与各应用的静态文件到 StaticRoot
package staticfiles

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"

	"gymcore/internal/config"
)

// sourceDirName 项目与应用目录下的静态文件子目录
const sourceDirName = "static"

// Options 收集选项
type Options struct {
	// Clear 收集前清空 StaticRoot
	Clear bool
	// DryRun 只统计不写文件
	DryRun bool
}

// Result 收集结果
type Result struct {
	Copied     int // 新写入或已更新的文件
	Unmodified int // 目标已是最新
	Skipped    int // 被更早的来源覆盖（同名文件只取第一个）
}

// Sources 静态文件来源目录（按优先级排序，只返回存在的目录）
// <BaseDir>/static 优先，其后依次为 <BaseDir>/<app>/static
func Sources(s *config.Settings) []string {
	candidates := []string{filepath.Join(s.BaseDir, sourceDirName)}
	for _, app := range s.InstalledApps {
		candidates = append(candidates, filepath.Join(s.BaseDir, app, sourceDirName))
	}

	var dirs []string
	for _, dir := range candidates {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			dirs = append(dirs, dir)
		}
	}
	return dirs
}

// Find 在来源目录中查找相对路径对应的文件（Debug 模式下未收集时使用）
func Find(s *config.Settings, rel string) (string, bool) {
	rel = filepath.Clean(filepath.FromSlash(strings.TrimPrefix(rel, "/")))
	if rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	for _, dir := range Sources(s) {
		p := filepath.Join(dir, rel)
		if info, err := os.Stat(p); err == nil && info.Mode().IsRegular() {
			return p, true
		}
	}
	return "", false
}

// Collect 把全部来源目录复制到 StaticRoot
func Collect(ctx context.Context, s *config.Settings, opts Options) (Result, error) {
	var res Result
	root := s.StaticRoot
	if root == "" {
		return res, fmt.Errorf("static root is not configured")
	}

	if opts.Clear && !opts.DryRun {
		if err := os.RemoveAll(root); err != nil {
			return res, fmt.Errorf("clear %s: %w", root, err)
		}
	}

	seen := make(map[string]string)
	for _, src := range Sources(s) {
		// 防止 StaticRoot 位于来源目录内时递归复制
		if IsPathUnder(root, src) {
			log.Printf("[WARN] 静态文件目录 %s 位于来源 %s 内，跳过", root, src)
			continue
		}

		err := filepath.WalkDir(src, func(path string, d fs.DirEntry, walkErr error) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if walkErr != nil {
				return walkErr
			}
			if d.IsDir() || !d.Type().IsRegular() {
				return nil
			}

			rel, err := filepath.Rel(src, path)
			if err != nil {
				return err
			}
			if first, dup := seen[rel]; dup {
				log.Printf("[INFO] 忽略 %s（已由 %s 提供）", path, first)
				res.Skipped++
				return nil
			}
			seen[rel] = path

			dest := filepath.Join(root, rel)
			if upToDate(path, dest) {
				res.Unmodified++
				return nil
			}
			if !opts.DryRun {
				if err := copyFile(path, dest); err != nil {
					return err
				}
			}
			res.Copied++
			return nil
		})
		if err != nil {
			return res, fmt.Errorf("collect %s: %w", src, err)
		}
	}
	return res, nil
}

// upToDate 目标存在、大小相同且不早于来源
func upToDate(src, dest string) bool {
	si, err := os.Stat(src)
	if err != nil {
		return false
	}
	di, err := os.Stat(dest)
	if err != nil {
		return false
	}
	return si.Size() == di.Size() && !di.ModTime().Before(si.ModTime())
}

// copyFile 先写临时文件再重命名，避免服务进程读到半个文件
func copyFile(src, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	tmp, err := os.CreateTemp(filepath.Dir(dest), ".collect-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := io.Copy(tmp, in); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return err
	}
	return os.Rename(tmpName, dest)
}

// IsPathUnder path 是否位于 base 目录下（含 base 自身）
// 使用 filepath.Rel 而非 HasPrefix，避免 /static 与 /static2 误判
func IsPathUnder(path, base string) bool {
	rel, err := filepath.Rel(base, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

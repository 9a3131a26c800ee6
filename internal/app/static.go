package app

import (
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"gymcore/internal/staticfiles"
	"gymcore/internal/version"

	"github.com/gin-gonic/gin"
)

// staticPrefix STATIC_URL 转为路由前缀："static/" → "/static"
func staticPrefix(staticURL string) string {
	return "/" + strings.Trim(staticURL, "/")
}

// setupStaticFiles 配置静态文件服务
// - 优先从 StaticRoot（collectstatic 输出）读取
// - Debug 模式下未收集的文件回退到各来源目录
// - HTML 文件：不缓存，动态替换版本号占位符
// - CSS/JS/字体：长缓存（1年），依赖版本号刷新；dev 版本不缓存
func (s *Server) setupStaticFiles(r *gin.Engine) {
	root, err := filepath.Abs(s.settings.StaticRoot)
	if err != nil {
		log.Printf("[WARN] 无法解析静态文件目录 %s: %v", s.settings.StaticRoot, err)
		root = s.settings.StaticRoot
	}
	if real, err := filepath.EvalSymlinks(root); err == nil {
		root = real
	} else if !s.settings.Debug {
		log.Printf("[WARN] 静态文件目录不存在: %s（请先执行 collectstatic）", root)
	}
	s.staticRoot = root

	prefix := staticPrefix(s.settings.StaticURL)
	r.GET(prefix+"/*filepath", s.serveStaticFile)
	r.HEAD(prefix+"/*filepath", s.serveStaticFile)
}

// serveStaticFile 处理静态文件请求
func (s *Server) serveStaticFile(c *gin.Context) {
	// Gin wildcard 参数带前导斜杠，如 "/css/site.css"
	reqPath := strings.TrimPrefix(c.Param("filepath"), "/")
	reqPath = filepath.Clean(filepath.FromSlash(reqPath))

	// 防止路径遍历：Clean 后仍以 .. 开头说明试图逃逸
	if reqPath == ".." || strings.HasPrefix(reqPath, ".."+string(filepath.Separator)) {
		c.Status(http.StatusForbidden)
		return
	}

	realPath, status := s.resolveStatic(reqPath)
	if status != http.StatusOK && s.settings.Debug {
		if found, ok := staticfiles.Find(s.settings, reqPath); ok {
			realPath, status = found, http.StatusOK
		}
	}
	if status != http.StatusOK {
		c.Status(status)
		return
	}

	ext := strings.ToLower(filepath.Ext(realPath))
	if ext == ".html" {
		serveHTMLWithVersion(c, realPath)
	} else {
		serveStaticWithCache(c, realPath, ext)
	}
}

// resolveStatic 在 StaticRoot 中定位文件，解析符号链接后必须仍在根目录下
func (s *Server) resolveStatic(reqPath string) (string, int) {
	filePath := filepath.Join(s.staticRoot, reqPath)

	info, err := os.Stat(filePath)
	if err != nil {
		return "", http.StatusNotFound
	}
	// 目录不列出内容
	if info.IsDir() {
		return "", http.StatusNotFound
	}

	realPath, err := filepath.EvalSymlinks(filePath)
	if err != nil {
		return "", http.StatusForbidden
	}
	if !staticfiles.IsPathUnder(realPath, s.staticRoot) {
		return "", http.StatusForbidden
	}
	return realPath, http.StatusOK
}

// serveHTMLWithVersion 处理 HTML 文件，替换版本号占位符
func serveHTMLWithVersion(c *gin.Context, filePath string) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		c.Status(http.StatusInternalServerError)
		return
	}

	html := strings.ReplaceAll(string(content), "__VERSION__", version.Version)

	// HTML 不缓存，确保用户总能获取最新版本号引用
	c.Header("Cache-Control", "no-cache, must-revalidate")
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.String(http.StatusOK, html)
}

// serveStaticWithCache 处理静态资源，设置缓存策略
func serveStaticWithCache(c *gin.Context, filePath, ext string) {
	fileName := filepath.Base(filePath)

	switch {
	case version.IsDev():
		c.Header("Cache-Control", "no-cache, must-revalidate")
	case fileName == "manifest.json" || ext == ".ico":
		c.Header("Cache-Control", "public, max-age=3600, must-revalidate")
	default:
		c.Header("Cache-Control", "public, max-age=31536000, immutable")
	}

	// 自动处理：Content-Type、Content-Length、HEAD、Range、If-Modified-Since/304
	c.File(filePath)
}

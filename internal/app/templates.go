package app

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"gymcore/internal/config"
	"gymcore/internal/util"

	"github.com/gin-gonic/gin"
)

// defaultTemplates 内置模板（优先级最低，可被项目模板同名覆盖）
//
//go:embed templates
var defaultTemplates embed.FS

// appTemplatesDir 应用目录下的模板子目录
const appTemplatesDir = "templates"

// Templates 已解析的模板集合与上下文处理器
type Templates struct {
	set        map[string]*template.Template
	processors []string
	settings   *config.Settings
}

// LoadTemplates 解析全部模板
// 查找顺序：各后端 Dirs → <BaseDir>/<app>/templates（AppDirs 开启时）→ 内置模板
// 同名模板只取第一个
func LoadTemplates(s *config.Settings) (*Templates, error) {
	t := &Templates{set: make(map[string]*template.Template), settings: s}
	funcs := template.FuncMap{
		"static": func(name string) string {
			return staticPrefix(s.StaticURL) + "/" + strings.TrimPrefix(name, "/")
		},
	}

	seen := make(map[string]bool)
	for _, tb := range s.Templates {
		for _, p := range tb.ContextProcessors {
			if !seen[p] {
				seen[p] = true
				t.processors = append(t.processors, p)
			}
		}

		dirs := append([]string(nil), tb.Dirs...)
		if tb.AppDirs {
			for _, app := range s.InstalledApps {
				dirs = append(dirs, filepath.Join(s.BaseDir, app, appTemplatesDir))
			}
		}
		for _, dir := range dirs {
			if info, err := os.Stat(dir); err != nil || !info.IsDir() {
				continue
			}
			if err := t.parseFS(os.DirFS(dir), ".", funcs); err != nil {
				return nil, fmt.Errorf("templates %s: %w", dir, err)
			}
		}
	}

	if err := t.parseFS(defaultTemplates, appTemplatesDir, funcs); err != nil {
		return nil, fmt.Errorf("builtin templates: %w", err)
	}
	return t, nil
}

// parseFS 解析 root 下全部 *.html，模板名为相对 root 的斜杠路径
func (t *Templates) parseFS(fsys fs.FS, root string, funcs template.FuncMap) error {
	return fs.WalkDir(fsys, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || path.Ext(p) != ".html" {
			return nil
		}
		name := p
		if root != "." {
			name = strings.TrimPrefix(p, root+"/")
		}
		if _, exists := t.set[name]; exists {
			return nil
		}
		content, err := fs.ReadFile(fsys, p)
		if err != nil {
			return err
		}
		tmpl, err := template.New(name).Funcs(funcs).Parse(string(content))
		if err != nil {
			return err
		}
		t.set[name] = tmpl
		return nil
	})
}

// Has 模板是否存在
func (t *Templates) Has(name string) bool {
	_, ok := t.set[name]
	return ok
}

// Context 运行上下文处理器，生成模板公共变量
func (t *Templates) Context(c *gin.Context) gin.H {
	data := gin.H{
		"csrf_token":    CSRFToken(c),
		"language_code": t.settings.LanguageCode,
	}
	for _, p := range t.processors {
		switch p {
		case config.ContextProcessorDebug:
			data["debug"] = t.settings.Debug
		case config.ContextProcessorRequest:
			data["request"] = c.Request
		case config.ContextProcessorAuth:
			data["user"] = CurrentUser(c)
		case config.ContextProcessorMessages:
			data["messages"] = ConsumeMessages(c)
		}
	}
	return data
}

// Render 渲染模板，视图数据覆盖上下文处理器的同名变量
func (t *Templates) Render(c *gin.Context, status int, name string, view gin.H) {
	tmpl, ok := t.set[name]
	if !ok {
		c.String(http.StatusInternalServerError, "template %s not found", name)
		return
	}

	data := t.Context(c)
	for k, v := range view {
		data[k] = v
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		util.SafePrintf("[ERROR] 渲染模板 %s 失败: %v", name, err)
		c.String(http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
		return
	}
	c.Data(status, "text/html; charset=utf-8", buf.Bytes())
}

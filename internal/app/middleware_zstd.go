package app

import (
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/zstd"
)

// zstdEncoderPool 复用 zstd encoder 避免频繁分配
var zstdEncoderPool = sync.Pool{
	New: func() any {
		enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		return enc
	},
}

// zstdResponseWriter 包装 gin.ResponseWriter，首次写入响应体时才启用压缩
// 无响应体的请求（重定向、204、HEAD）保持原样
type zstdResponseWriter struct {
	gin.ResponseWriter
	encoder *zstd.Encoder
}

func (w *zstdResponseWriter) start() {
	if w.encoder != nil {
		return
	}
	h := w.ResponseWriter.Header()
	h.Set("Content-Encoding", "zstd")
	h.Add("Vary", "Accept-Encoding")
	// 压缩后长度未知，移除可能被提前设置的 Content-Length
	h.Del("Content-Length")

	w.encoder = zstdEncoderPool.Get().(*zstd.Encoder)
	w.encoder.Reset(w.ResponseWriter)
}

func (w *zstdResponseWriter) Write(data []byte) (int, error) {
	if len(data) == 0 {
		return 0, nil
	}
	w.start()
	return w.encoder.Write(data)
}

func (w *zstdResponseWriter) WriteString(s string) (int, error) {
	return w.Write([]byte(s))
}

// finish flush 并归还 encoder
func (w *zstdResponseWriter) finish() {
	if w.encoder == nil {
		return
	}
	_ = w.encoder.Close()
	zstdEncoderPool.Put(w.encoder)
	w.encoder = nil
}

// skipExtensions 已压缩的文件类型，不需要再压缩
var skipExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true,
	".ico": true, ".webp": true, ".woff": true, ".woff2": true, ".eot": true,
	".zst": true, ".gz": true, ".br": true, ".zip": true,
}

// ZstdMiddleware 返回 gin 中间件，对支持 zstd 的客户端启用 zstd 压缩
func ZstdMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodHead || !strings.Contains(c.GetHeader("Accept-Encoding"), "zstd") {
			c.Next()
			return
		}

		// 跳过已压缩的文件类型
		reqPath := c.Request.URL.Path
		if dot := strings.LastIndex(reqPath, "."); dot >= 0 {
			if skipExtensions[strings.ToLower(reqPath[dot:])] {
				c.Next()
				return
			}
		}

		w := &zstdResponseWriter{ResponseWriter: c.Writer}
		c.Writer = w
		defer w.finish()

		c.Next()
	}
}

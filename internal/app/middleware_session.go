package app

import (
	"context"
	"log"
	"net/http"
	"time"

	"gymcore/internal/config"
	"gymcore/internal/model"
	"gymcore/internal/util"

	"github.com/gin-gonic/gin"
)

// sessionState 单次请求的会话状态
// 响应头写出前提交（保存会话并下发 Cookie）
type sessionState struct {
	sess      *model.Session
	staleKey  string // 轮换或清空前的会话键，提交时删除
	committed bool
}

// Session 当前会话（sessions 中间件未启用时返回 nil）
func Session(c *gin.Context) *model.Session {
	if st := sessionFrom(c); st != nil {
		return st.sess
	}
	return nil
}

// cycleKey 登录时轮换会话键，保留数据
func (st *sessionState) cycleKey() {
	if st.sess.Key != "" && st.staleKey == "" {
		st.staleKey = st.sess.Key
	}
	st.sess.Key = ""
	st.sess.MarkModified()
}

// flush 注销时清空数据并丢弃会话键
func (st *sessionState) flush() {
	if st.sess.Key != "" && st.staleKey == "" {
		st.staleKey = st.sess.Key
	}
	st.sess = &model.Session{Data: make(map[string]any)}
	// 提交时据此清除浏览器 Cookie
	st.sess.MarkModified()
}

// beforeWriteWriter 在写出响应头前执行 before（会话提交、默认响应头）
type beforeWriteWriter struct {
	gin.ResponseWriter
	before func()
}

func (w *beforeWriteWriter) WriteHeader(code int) {
	w.before()
	w.ResponseWriter.WriteHeader(code)
}

func (w *beforeWriteWriter) WriteHeaderNow() {
	w.before()
	w.ResponseWriter.WriteHeaderNow()
}

func (w *beforeWriteWriter) Write(data []byte) (int, error) {
	w.before()
	return w.ResponseWriter.Write(data)
}

func (w *beforeWriteWriter) WriteString(s string) (int, error) {
	w.before()
	return w.ResponseWriter.WriteString(s)
}

// sessionMiddleware 从 sessionid Cookie 加载会话，响应前按需保存
func (s *Server) sessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		st := &sessionState{}
		if key, err := c.Cookie(config.SessionCookieName); err == nil && key != "" {
			sess, err := s.store.GetSession(c.Request.Context(), key)
			if err != nil {
				util.SafePrintf("[WARN] 读取会话失败: key=%s, err=%v", model.MaskToken(key), err)
			}
			if sess != nil {
				st.sess = sess
			}
		}
		if st.sess == nil {
			st.sess = &model.Session{Data: make(map[string]any)}
		}
		c.Set(ctxKeySession, st)

		commit := func() { s.commitSession(c, st) }
		c.Writer = &beforeWriteWriter{ResponseWriter: c.Writer, before: commit}

		c.Next()

		commit()
	}
}

// commitSession 保存修改过的会话并下发 Cookie（每个请求最多执行一次）
func (s *Server) commitSession(c *gin.Context, st *sessionState) {
	if st.committed || c.Writer.Written() {
		return
	}
	st.committed = true

	// 提交发生在响应阶段，不受客户端断开影响
	ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), 3*time.Second)
	defer cancel()

	if st.staleKey != "" {
		if err := s.store.DeleteSession(ctx, st.staleKey); err != nil {
			util.SafePrintf("[WARN] 删除旧会话失败: key=%s, err=%v", model.MaskToken(st.staleKey), err)
		}
	}

	sess := st.sess
	if !sess.Modified() {
		return
	}

	if len(sess.Data) == 0 {
		// 空会话不落库，清除浏览器中的 Cookie
		if sess.Key != "" {
			if err := s.store.DeleteSession(ctx, sess.Key); err != nil {
				util.SafePrintf("[WARN] 删除空会话失败: %v", err)
			}
		}
		if st.staleKey != "" || sess.Key != "" {
			s.setSessionCookie(c, "", -1)
		}
		sess.MarkClean()
		return
	}

	if sess.Key == "" {
		key, err := model.NewSessionKey()
		if err != nil {
			log.Printf("[ERROR] 生成会话键失败: %v", err)
			return
		}
		sess.Key = key
	}
	sess.ExpiresAt = time.Now().Add(s.settings.SessionCookieAge)

	if err := s.store.SaveSession(ctx, sess); err != nil {
		util.SafePrintf("[ERROR] 保存会话失败: %v", err)
		return
	}
	sess.MarkClean()
	s.setSessionCookie(c, sess.Key, int(s.settings.SessionCookieAge.Seconds()))
}

func (s *Server) setSessionCookie(c *gin.Context, value string, maxAge int) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     config.SessionCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		Secure:   s.settings.SessionCookieSecure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

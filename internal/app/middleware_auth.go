package app

import (
	"gymcore/internal/model"
	"gymcore/internal/util"

	"github.com/gin-gonic/gin"
)

// authMiddleware 把会话中的登录用户解析到请求上下文
func (s *Server) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		setUser(c, userFromSession(Session(c)))
		c.Next()
	}
}

func userFromSession(sess *model.Session) model.User {
	if sess == nil {
		return model.User{}
	}
	return model.User{
		Username: sess.GetString(model.SessionKeyUser),
		IsStaff:  sess.GetBool(model.SessionKeyStaff),
	}
}

// login 写入会话并轮换会话键
func login(c *gin.Context, u model.User) {
	if st := sessionFrom(c); st != nil {
		st.cycleKey()
		st.sess.Set(model.SessionKeyUser, u.Username)
		st.sess.Set(model.SessionKeyStaff, u.IsStaff)
	}
	setUser(c, u)
}

// logout 清空会话
func logout(c *gin.Context) {
	if st := sessionFrom(c); st != nil {
		st.flush()
	}
	setUser(c, model.User{})
}

// messageStore 会话中的一次性提示消息
type messageStore struct {
	sess    *model.Session
	pending []model.Message
	loaded  bool
}

// bind 会话对象被登录/注销替换后重新加载
func (m *messageStore) bind(sess *model.Session) {
	if m.sess != sess {
		m.sess = sess
		m.pending = nil
		m.loaded = false
	}
}

func (m *messageStore) load() {
	if m.loaded {
		return
	}
	m.loaded = true
	if m.sess == nil {
		return
	}
	if _, err := m.sess.Decode(model.SessionKeyMessages, &m.pending); err != nil {
		util.SafePrintf("[WARN] 会话消息解析失败: %v", err)
		m.pending = nil
	}
}

func (m *messageStore) add(level model.MessageLevel, text string) {
	m.load()
	m.pending = append(m.pending, model.Message{Level: level, Text: text})
	if m.sess != nil {
		m.sess.Set(model.SessionKeyMessages, m.pending)
	}
}

// consume 取出全部消息，取出后从会话删除
func (m *messageStore) consume() []model.Message {
	m.load()
	out := m.pending
	m.pending = nil
	if m.sess != nil {
		m.sess.Delete(model.SessionKeyMessages)
	}
	return out
}

// messagesMiddleware 为请求挂载会话消息存储
func (s *Server) messagesMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ctxKeyMessages, &messageStore{sess: Session(c)})
		c.Next()
	}
}

func messagesFrom(c *gin.Context) *messageStore {
	if v, ok := c.Get(ctxKeyMessages); ok {
		return v.(*messageStore)
	}
	return nil
}

// AddMessage 添加一次性提示消息（messages 中间件未启用时忽略）
func AddMessage(c *gin.Context, level model.MessageLevel, text string) {
	if m := messagesFrom(c); m != nil {
		m.bind(Session(c))
		m.add(level, text)
	}
}

// ConsumeMessages 读取并清空提示消息
func ConsumeMessages(c *gin.Context) []model.Message {
	if m := messagesFrom(c); m != nil {
		m.bind(Session(c))
		return m.consume()
	}
	return nil
}

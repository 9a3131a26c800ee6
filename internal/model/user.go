package model

// User 当前请求的用户
// 未登录时为零值（匿名用户）
type User struct {
	Username string `json:"username"`
	IsStaff  bool   `json:"is_staff"`
}

// IsAuthenticated 是否已登录
func (u User) IsAuthenticated() bool {
	return u.Username != ""
}

// MessageLevel 消息级别
type MessageLevel string

const (
	MessageDebug   MessageLevel = "debug"
	MessageInfo    MessageLevel = "info"
	MessageSuccess MessageLevel = "success"
	MessageWarning MessageLevel = "warning"
	MessageError   MessageLevel = "error"
)

// Message 一次性提示消息（读取后即从会话中移除）
type Message struct {
	Level MessageLevel `json:"level"`
	Text  string       `json:"message"`
}

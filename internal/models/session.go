package models

// Session 登录会话（登录/注册/恢复时创建，登出时销毁）
// 所有需要鉴权的操作（拉取、创建、订阅流）都以 Token 为凭证
type Session struct {
	User      string
	Token     string
	Connected bool
}

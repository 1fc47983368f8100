package port

// Pusher 把消息推送到用户当前在线的连接，返回送达的连接数
type Pusher interface {
	Push(userID uint, payload []byte) int
}

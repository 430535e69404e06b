// Package request 定义入站请求与事件的数据结构
package request

// 入站事件名，封闭集合
// 网关收到的每条 WebSocket 消息都必须是其中之一，由 broker 的单一 switch 分发
const (
	EventAuthenticate = "authenticate" // 认证（携带昵称）
	EventJoinRoom     = "joinRoom"     // 加入房间
	EventLeaveRoom    = "leaveRoom"    // 离开当前房间
	EventSendMessage  = "sendMessage"  // 发送文本消息
	EventStartTyping  = "startTyping"  // 开始输入
	EventStopTyping   = "stopTyping"   // 停止输入
	EventDisconnect   = "disconnect"   // 连接断开（由网关注入，非客户端发送）
)

// ClientEvent 入站事件信封
// 客户端每条 WebSocket 消息反序列化为该结构；ConnectionId 由网关填充，
// 客户端传入的该字段值被忽略（不信任客户端提供的身份）
type ClientEvent struct {
	Event       string `json:"event"`                 // 事件名，见上方常量
	DisplayName string `json:"displayName,omitempty"` // authenticate 专用
	RoomId      string `json:"roomId,omitempty"`      // joinRoom 专用
	Content     string `json:"content,omitempty"`     // sendMessage 专用

	ConnectionId string `json:"connectionId,omitempty"` // 网关填充的连接标识
}

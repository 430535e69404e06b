// Package respond 定义出站事件与响应的数据结构
package respond

import "encoding/json"

// 出站事件名，封闭集合
const (
	EventAuthenticated = "authenticated" // 认证成功
	EventRoomSnapshot  = "roomSnapshot"  // 加入房间后的房间快照
	EventMemberEntered = "memberEntered" // 有成员进入房间
	EventMemberLeft    = "memberLeft"    // 有成员离开房间
	EventMessage       = "message"       // 新消息（文本或系统）
	EventTyping        = "typing"        // 有成员正在输入
	EventStoppedTyping = "stoppedTyping" // 成员停止输入
	EventFailed        = "operationFailed" // 操作失败
)

// ServerEvent 出站事件信封
// 所有推送给客户端的消息统一包装为 {event, data}
type ServerEvent struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// Encode 序列化出站事件
// 序列化失败属于编程错误，返回 nil 由调用方丢弃该条推送
func Encode(event string, data any) []byte {
	payload, err := json.Marshal(ServerEvent{Event: event, Data: data})
	if err != nil {
		return nil
	}
	return payload
}

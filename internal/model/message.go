package model

import "time"

// 消息类型
const (
	MessageKindText   = "text"   // 用户文本消息
	MessageKindSystem = "system" // 系统消息（加入/离开公告）
)

// Message 消息模型，写入后不可变（只可整条删除）
// 存储键：message_{MessageId}，带保留期 TTL
// 历史索引键：room_history_{RoomId}，最新在前的消息 ID 列表，截断到条数上限
type Message struct {
	// MessageId 雪花 ID 的字符串形式，单调可排序
	MessageId string `json:"messageId"`

	// RoomId 所属房间
	RoomId string `json:"roomId"`

	// SenderSessionId 发送者会话 ID，系统消息为 SYSTEM 哨兵值
	SenderSessionId string `json:"senderSessionId"`

	// SenderDisplayName 发送者昵称，冗余存储用于展示
	SenderDisplayName string `json:"senderDisplayName"`

	// Content 消息内容，trim 后不超过长度上限
	Content string `json:"content"`

	// CreatedAt 写入时间
	CreatedAt time.Time `json:"createdAt"`

	// Kind 消息类型：text 或 system
	Kind string `json:"kind"`
}

package respond

// MessageRespond 消息响应体
// 同时用于 message 推送事件和历史分页查询
type MessageRespond struct {
	MessageId         string `json:"messageId"`
	RoomId            string `json:"roomId"`
	SenderSessionId   string `json:"senderId"`
	SenderDisplayName string `json:"displayName"`
	Content           string `json:"content"`
	CreatedAt         string `json:"createdAt"` // "2006-01-02 15:04:05" 格式
	Kind              string `json:"kind"`      // text | system
}

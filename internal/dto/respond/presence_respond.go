package respond

// AuthenticatedRespond 认证成功响应
type AuthenticatedRespond struct {
	SessionId   string `json:"sessionId"`
	DisplayName string `json:"displayName"`
}

// MemberEnteredRespond 成员进入房间通知
type MemberEnteredRespond struct {
	SessionId   string `json:"sessionId"`
	DisplayName string `json:"displayName"`
	Occupancy   int    `json:"occupancy"`
}

// MemberLeftRespond 成员离开房间通知
type MemberLeftRespond struct {
	SessionId   string `json:"sessionId"`
	DisplayName string `json:"displayName"`
	Occupancy   int    `json:"occupancy"`
}

// TypingRespond 输入状态通知，typing 和 stoppedTyping 共用
type TypingRespond struct {
	SessionId   string `json:"sessionId"`
	DisplayName string `json:"displayName"`
}

// OperationFailedRespond 操作失败通知
type OperationFailedRespond struct {
	Code   int    `json:"code"`
	Reason string `json:"reason"`
}

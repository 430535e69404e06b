package respond

// MemberRespond 房间成员响应体
type MemberRespond struct {
	SessionId   string `json:"sessionId"`
	DisplayName string `json:"displayName"`
	IsOnline    bool   `json:"isOnline"`
}

package request

// CreateRoomRequest 创建房间请求
type CreateRoomRequest struct {
	Name         string `json:"name" binding:"required,min=1,max=100"` // 房间名
	Description  string `json:"description" binding:"max=500"`        // 房间描述
	IsPrivate    bool   `json:"isPrivate"`                            // 是否私有
	MaxOccupancy int    `json:"maxOccupancy" binding:"omitempty,min=1,max=200"` // 容量上限，缺省用默认值
	CreatedBy    string `json:"createdBy"`                            // 创建者会话 ID
}

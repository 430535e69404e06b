package request

// UpdateRoomRequest 更新房间信息请求
// 仅允许更新展示性字段与容量，房间 ID 不可变
type UpdateRoomRequest struct {
	RoomId       string `json:"roomId" binding:"required"`
	Name         string `json:"name" binding:"omitempty,min=1,max=100"`
	Description  string `json:"description" binding:"max=500"`
	MaxOccupancy int    `json:"maxOccupancy" binding:"omitempty,min=1,max=200"`
}

package respond

// RoomRespond 房间信息响应体
type RoomRespond struct {
	RoomId         string `json:"roomId"`
	Name           string `json:"name"`
	Description    string `json:"description"`
	IsPrivate      bool   `json:"isPrivate"`
	MaxOccupancy   int    `json:"maxOccupancy"`
	OccupancyCount int    `json:"occupancyCount"` // 展示用缓存值
	CreatedBy      string `json:"createdBy"`
	CreatedAt      string `json:"createdAt"`
}

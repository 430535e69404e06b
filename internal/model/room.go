package model

import "time"

// Room 房间模型
// 存储键：room_{RoomId}；全局索引集合键：rooms
// 成员集合键：room_members_{RoomId}（成员关系的权威来源）
type Room struct {
	// RoomId 房间唯一标识
	// 格式：R + 时间戳前缀随机字符串
	RoomId string `json:"roomId"`

	// Name 房间名，1-100 字符
	Name string `json:"name"`

	// Description 房间描述
	Description string `json:"description"`

	// IsPrivate 是否私有房间（私有房间不出现在公开列表）
	IsPrivate bool `json:"isPrivate"`

	// MaxOccupancy 容量上限，1-200，默认 50
	MaxOccupancy int `json:"maxOccupancy"`

	// OccupancyCount 在室人数缓存
	// 仅用于展示；容量判断必须以成员集合的基数为准
	OccupancyCount int `json:"occupancyCount"`

	// CreatedBy 创建者会话 ID
	CreatedBy string `json:"createdBy"`

	// CreatedAt 创建时间，房间列表按此倒序
	CreatedAt time.Time `json:"createdAt"`
}

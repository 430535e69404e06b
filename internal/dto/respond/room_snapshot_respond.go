package respond

// RoomSnapshotRespond 加入房间成功后的房间快照
// Messages 按时间正序排列（最旧在前），便于前端直接渲染
type RoomSnapshotRespond struct {
	Room      RoomRespond      `json:"room"`
	Members   []MemberRespond  `json:"members"`
	Messages  []MessageRespond `json:"messages"`
	Occupancy int              `json:"occupancy"` // 加入后从权威集合重算的人数
}

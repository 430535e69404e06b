package request

// ListRoomsRequest 房间列表查询请求
type ListRoomsRequest struct {
	PublicOnly bool   `form:"publicOnly"` // 仅返回公开房间
	Search     string `form:"search"`     // 按名称模糊过滤
}

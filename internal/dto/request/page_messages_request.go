package request

// PageMessagesRequest 消息分页查询请求
// 返回的页可能短于 limit：索引里某些条目的消息记录可能已过保留期
type PageMessagesRequest struct {
	RoomId string `form:"roomId" binding:"required"`
	Limit  int    `form:"limit" binding:"omitempty,min=1,max=200"`
	Offset int    `form:"offset" binding:"omitempty,min=0"`
}

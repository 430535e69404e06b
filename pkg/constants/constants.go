package constants

import "time"

const (
	CHANNEL_SIZE = 100 // 通道大小

	// 会话相关
	SESSION_TTL          = 24 * time.Hour // 会话记录过期时间（断线后可重连窗口）
	DISPLAY_NAME_MAX_LEN = 50             // 昵称最大长度

	// 房间相关
	ROOM_NAME_MAX_LEN     = 100 // 房间名最大长度
	ROOM_MAX_OCCUPANCY    = 200 // 房间容量上限
	ROOM_MIN_OCCUPANCY    = 1   // 房间容量下限
	DEFAULT_MAX_OCCUPANCY = 50  // 未指定时的默认房间容量

	// 消息相关
	MESSAGE_MAX_LEN       = 500                // 消息内容最大长度（trim 后）
	MESSAGE_HISTORY_CAP   = 1000               // 每房间历史索引条数上限
	MESSAGE_RETENTION     = 7 * 24 * time.Hour // 消息记录保留时长
	SNAPSHOT_MESSAGE_SIZE = 50                 // 加入房间时返回的最近消息条数

	// 系统消息发送者哨兵值
	SYSTEM_SENDER_ID = "SYSTEM"
)

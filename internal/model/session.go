// Package model 定义核心实体模型
// 实体以 JSON 形式存入 Redis，不依赖关系型存储
package model

import "time"

// Session 会话模型
// 代表一个已认证、当前在线或刚离线的参与者
// 存储键：session_{SessionId}，带可刷新的过期时间
// 反向索引键：conn_{ConnectionId} -> SessionId
type Session struct {
	// SessionId 会话唯一标识
	// 格式：S + 时间戳前缀随机字符串
	SessionId string `json:"sessionId"`

	// DisplayName 昵称，1-50 字符
	DisplayName string `json:"displayName"`

	// ConnectionId 当前传输连接标识
	// 断线后可能为空或过期，重连时刷新
	ConnectionId string `json:"connectionId"`

	// CurrentRoomId 当前所在房间
	// 不变式：非空时该房间的成员集合必须包含本会话；任何时刻至多一个
	CurrentRoomId string `json:"currentRoomId"`

	// IsOnline 是否在线
	IsOnline bool `json:"isOnline"`

	// LastSeenAt 最近活跃时间，断线和刷新时更新
	LastSeenAt time.Time `json:"lastSeenAt"`
}

// Package metrics 提供 Prometheus 指标
// 指标通过 promauto 在包初始化时注册到默认注册表，经 /metrics 暴露
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SessionsOnline 当前在线会话数
	SessionsOnline = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "huddle",
		Name:      "sessions_online",
		Help:      "Number of sessions currently marked online.",
	})

	// RoomsCreated 累计创建的房间数
	RoomsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "huddle",
		Name:      "rooms_created_total",
		Help:      "Total number of rooms created.",
	})

	// RoomJoins 累计成功加入房间次数（不含重复加入）
	RoomJoins = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "huddle",
		Name:      "room_joins_total",
		Help:      "Total number of successful room joins.",
	})

	// RoomLeaves 累计离开房间次数
	RoomLeaves = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "huddle",
		Name:      "room_leaves_total",
		Help:      "Total number of room leaves.",
	})

	// MessagesAppended 累计写入消息数，按 kind 区分
	MessagesAppended = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "huddle",
		Name:      "messages_appended_total",
		Help:      "Total number of messages appended to room logs.",
	}, []string{"kind"})

	// BroadcastDeliveries 累计广播投递的连接次数
	BroadcastDeliveries = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "huddle",
		Name:      "broadcast_deliveries_total",
		Help:      "Total number of payload deliveries to websocket connections.",
	})

	// ConnectionsActive 当前活跃的 websocket 连接数
	ConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "huddle",
		Name:      "connections_active",
		Help:      "Number of active websocket connections.",
	})
)

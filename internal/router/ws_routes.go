// Package router 提供 HTTP 路由注册
// 本文件定义 WebSocket 相关的路由
package router

import (
	"github.com/gin-gonic/gin"

	"huddle_chat_server/internal/handler"
)

// RegisterWebSocketRoutes 注册 WebSocket 相关路由
func (rt *Router) RegisterWebSocketRoutes(rg *gin.RouterGroup) {
	// WebSocket 连接入口
	// 请求示例: ws://host:port/ws/connect
	// 连接建立后客户端发送 authenticate 事件完成认证
	rg.GET("/ws/connect", handler.WsConnectHandler)
}

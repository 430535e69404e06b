// Package handler 提供 HTTP 请求处理器
// 本文件处理 WebSocket 连接相关的 API 请求
package handler

import (
	"github.com/gin-gonic/gin"

	"huddle_chat_server/internal/service/chat"
)

// WsConnectHandler WebSocket 接入（升级 HTTP 连接为 WebSocket）
// GET /ws/connect
// 功能:
//   - 将 HTTP 连接升级为 WebSocket 连接
//   - 生成连接标识并注册到在线连接表
//   - 开始监听事件收发；会话身份由后续 authenticate 事件建立
func WsConnectHandler(c *gin.Context) {
	chat.NewClientInit(c)
}

// Package router 提供 HTTP 路由注册
// 本文件定义消息历史相关的路由
package router

import (
	"github.com/gin-gonic/gin"
)

// RegisterMessageRoutes 注册消息相关路由
func (rt *Router) RegisterMessageRoutes(rg *gin.RouterGroup) {
	messageGroup := rg.Group("/message")
	{
		messageGroup.GET("/pageMessages", rt.handlers.Message.PageMessages)    // 分页查询消息历史
		messageGroup.GET("/getMessage", rt.handlers.Message.GetMessage)        // 按 ID 获取消息
		messageGroup.POST("/deleteMessage", rt.handlers.Message.DeleteMessage) // 删除消息
		messageGroup.GET("/countMessages", rt.handlers.Message.CountMessages)  // 历史索引长度
	}
}

// Package router 提供 HTTP 路由注册
// 本文件定义会话注册表相关的路由（运维/调试用途）
package router

import (
	"github.com/gin-gonic/gin"
)

// RegisterSessionRoutes 注册会话相关路由
func (rt *Router) RegisterSessionRoutes(rg *gin.RouterGroup) {
	sessionGroup := rg.Group("/session")
	{
		sessionGroup.GET("/getSession", rt.handlers.Session.GetSession)         // 查询会话
		sessionGroup.POST("/expireSession", rt.handlers.Session.ExpireSession) // 回收离线超时会话
	}
}

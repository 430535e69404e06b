// Package router 提供 HTTP 路由注册
// 本文件是路由注册的入口，聚合所有子模块的路由
package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"huddle_chat_server/internal/handler"
)

// Router 路由管理器，持有 Handler 聚合实例
type Router struct {
	handlers *handler.Handlers
}

// NewRouter 创建路由管理器
func NewRouter(handlers *handler.Handlers) *Router {
	return &Router{handlers: handlers}
}

// RegisterRoutes 注册所有路由
// 在 http_server.Init() 中调用，按模块分别注册各个路由组
func (rt *Router) RegisterRoutes(r *gin.Engine) {
	// Prometheus 指标端点
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/")
	rt.RegisterRoomRoutes(api)      // 房间目录路由
	rt.RegisterMessageRoutes(api)   // 消息历史路由
	rt.RegisterSessionRoutes(api)   // 会话注册表路由
	rt.RegisterWebSocketRoutes(api) // WebSocket 路由
}

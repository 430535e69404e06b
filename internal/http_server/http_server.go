// Package http_server 提供 HTTP 服务器的初始化和配置
// 负责创建 Gin 引擎实例并配置中间件和路由
package http_server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"huddle_chat_server/internal/config"
	"huddle_chat_server/internal/handler"
	"huddle_chat_server/internal/infrastructure/logger"
	"huddle_chat_server/internal/infrastructure/middleware"
	"huddle_chat_server/internal/router"
)

// Init 初始化 HTTP 服务器并返回 Gin 引擎实例
// handlers: 通过依赖注入传入的 handler 聚合对象
// 配置顺序：
//  1. 创建空白 Gin 引擎（不含默认中间件）
//  2. 注册日志和恢复中间件
//  3. 配置 CORS 跨域规则
//  4. 注册业务路由
func Init(handlers *handler.Handlers) *gin.Engine {
	conf := config.GetConfig()
	if conf.MainConfig.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	// Zap 日志中间件替代 Gin 默认日志；恢复中间件带堆栈
	engine.Use(logger.GinLogger())
	engine.Use(logger.GinRecovery(true))

	// CORS 跨域规则，生产环境应收紧来源
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"*"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	engine.Use(cors.New(corsConfig))

	// HTTPS 重定向，由 Nginx 终结 SSL 时在配置中关闭
	if conf.MainConfig.EnableTls {
		engine.Use(middleware.TlsHandler(conf.MainConfig.Host, conf.MainConfig.Port))
	}

	rt := router.NewRouter(handlers)
	rt.RegisterRoutes(engine)

	return engine
}

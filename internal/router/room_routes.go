// Package router 提供 HTTP 路由注册
// 本文件定义房间目录相关的路由
package router

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoomRoutes 注册房间相关路由
// 包括房间的增删改查和成员列表查询
func (rt *Router) RegisterRoomRoutes(rg *gin.RouterGroup) {
	roomGroup := rg.Group("/room")
	{
		roomGroup.POST("/createRoom", rt.handlers.Room.CreateRoom)  // 创建房间
		roomGroup.GET("/getRoom", rt.handlers.Room.GetRoom)         // 获取房间信息
		roomGroup.GET("/listRooms", rt.handlers.Room.ListRooms)     // 获取房间列表
		roomGroup.POST("/updateRoom", rt.handlers.Room.UpdateRoom)  // 更新房间信息
		roomGroup.POST("/deleteRoom", rt.handlers.Room.DeleteRoom)  // 删除房间
		roomGroup.GET("/listMembers", rt.handlers.Room.ListMembers) // 获取房间成员列表
	}
}

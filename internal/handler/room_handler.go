// Package handler 提供 HTTP 请求处理器
// 本文件处理房间目录相关的 API 请求
package handler

import (
	"github.com/gin-gonic/gin"

	"huddle_chat_server/internal/dto/request"
	"huddle_chat_server/internal/service"
	"huddle_chat_server/pkg/errorx"
)

// RoomHandler 房间请求处理器
// 通过构造函数注入 RoomDirectoryService 与 MembershipCoordinatorService
type RoomHandler struct {
	roomSvc        service.RoomDirectoryService
	coordinatorSvc service.MembershipCoordinatorService
}

// NewRoomHandler 创建房间处理器实例
func NewRoomHandler(roomSvc service.RoomDirectoryService, coordinatorSvc service.MembershipCoordinatorService) *RoomHandler {
	return &RoomHandler{roomSvc: roomSvc, coordinatorSvc: coordinatorSvc}
}

// CreateRoom 创建房间
// POST /room/createRoom
// 请求体: request.CreateRoomRequest
// 响应: respond.RoomRespond
func (h *RoomHandler) CreateRoom(c *gin.Context) {
	var req request.CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	data, err := h.roomSvc.CreateRoom(c.Request.Context(), req)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// GetRoom 获取房间信息
// GET /room/getRoom?roomId=xxx
func (h *RoomHandler) GetRoom(c *gin.Context) {
	roomId := c.Query("roomId")
	if roomId == "" {
		HandleError(c, errorx.New(errorx.CodeInvalidParam, "roomId不能为空"))
		return
	}
	room, err := h.roomSvc.GetRoom(c.Request.Context(), roomId)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, room)
}

// ListRooms 获取房间列表
// GET /room/listRooms?publicOnly=true&search=xxx
// 响应: []respond.RoomRespond，按创建时间倒序
func (h *RoomHandler) ListRooms(c *gin.Context) {
	var req request.ListRoomsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	data, err := h.roomSvc.ListRooms(c.Request.Context(), req)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// UpdateRoom 更新房间信息
// POST /room/updateRoom
// 请求体: request.UpdateRoomRequest
func (h *RoomHandler) UpdateRoom(c *gin.Context) {
	var req request.UpdateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	if err := h.roomSvc.UpdateRoom(c.Request.Context(), req); err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, nil)
}

// DeleteRoom 删除房间
// POST /room/deleteRoom
// 请求体: {"roomId": "xxx"}
// 响应: bool 表示房间是否确实存在过
func (h *RoomHandler) DeleteRoom(c *gin.Context) {
	var req struct {
		RoomId string `json:"roomId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	existed, err := h.roomSvc.DeleteRoom(c.Request.Context(), req.RoomId)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, existed)
}

// ListMembers 获取房间当前成员
// GET /room/listMembers?roomId=xxx
// 响应: []respond.MemberRespond
func (h *RoomHandler) ListMembers(c *gin.Context) {
	roomId := c.Query("roomId")
	if roomId == "" {
		HandleError(c, errorx.New(errorx.CodeInvalidParam, "roomId不能为空"))
		return
	}
	data, err := h.coordinatorSvc.ListMembers(c.Request.Context(), roomId)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

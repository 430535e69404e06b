// Package handler 提供 HTTP 请求处理器
// 本文件处理消息历史相关的 API 请求
package handler

import (
	"github.com/gin-gonic/gin"

	"huddle_chat_server/internal/dto/request"
	"huddle_chat_server/internal/service"
	"huddle_chat_server/pkg/errorx"
)

// MessageHandler 消息请求处理器
type MessageHandler struct {
	messageSvc service.MessageLogService
}

// NewMessageHandler 创建消息处理器实例
func NewMessageHandler(messageSvc service.MessageLogService) *MessageHandler {
	return &MessageHandler{messageSvc: messageSvc}
}

// PageMessages 分页查询房间消息历史
// GET /message/pageMessages?roomId=xxx&limit=50&offset=0
// 响应: []respond.MessageRespond，页内按时间正序
func (h *MessageHandler) PageMessages(c *gin.Context) {
	var req request.PageMessagesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	data, err := h.messageSvc.Page(c.Request.Context(), req.RoomId, req.Limit, req.Offset)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// GetMessage 按 ID 获取单条消息
// GET /message/getMessage?messageId=xxx
func (h *MessageHandler) GetMessage(c *gin.Context) {
	messageId := c.Query("messageId")
	if messageId == "" {
		HandleError(c, errorx.New(errorx.CodeInvalidParam, "messageId不能为空"))
		return
	}
	data, err := h.messageSvc.Get(c.Request.Context(), messageId)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// DeleteMessage 删除单条消息
// POST /message/deleteMessage
// 请求体: {"messageId": "xxx"}
// 响应: bool 表示消息是否确实存在过
func (h *MessageHandler) DeleteMessage(c *gin.Context) {
	var req struct {
		MessageId string `json:"messageId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	existed, err := h.messageSvc.Delete(c.Request.Context(), req.MessageId)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, existed)
}

// CountMessages 查询房间历史索引长度
// GET /message/countMessages?roomId=xxx
func (h *MessageHandler) CountMessages(c *gin.Context) {
	roomId := c.Query("roomId")
	if roomId == "" {
		HandleError(c, errorx.New(errorx.CodeInvalidParam, "roomId不能为空"))
		return
	}
	count, err := h.messageSvc.Count(c.Request.Context(), roomId)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, count)
}

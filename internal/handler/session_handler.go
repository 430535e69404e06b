// Package handler 提供 HTTP 请求处理器
// 本文件处理会话注册表相关的 API 请求（运维/调试用途）
package handler

import (
	"github.com/gin-gonic/gin"

	"huddle_chat_server/internal/service"
	"huddle_chat_server/pkg/errorx"
)

// SessionHandler 会话请求处理器
type SessionHandler struct {
	registrySvc service.SessionRegistryService
}

// NewSessionHandler 创建会话处理器实例
func NewSessionHandler(registrySvc service.SessionRegistryService) *SessionHandler {
	return &SessionHandler{registrySvc: registrySvc}
}

// GetSession 按会话 ID 查询会话
// GET /session/getSession?sessionId=xxx
func (h *SessionHandler) GetSession(c *gin.Context) {
	sessionId := c.Query("sessionId")
	if sessionId == "" {
		HandleError(c, errorx.New(errorx.CodeInvalidParam, "sessionId不能为空"))
		return
	}
	session, err := h.registrySvc.GetSession(c.Request.Context(), sessionId)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, session)
}

// ExpireSession 回收离线超时的会话
// POST /session/expireSession
// 请求体: {"sessionId": "xxx"}
// 仅允许回收已离线且超过不活跃窗口的会话，否则返回业务错误
func (h *SessionHandler) ExpireSession(c *gin.Context) {
	var req struct {
		SessionId string `json:"sessionId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	if err := h.registrySvc.Expire(c.Request.Context(), req.SessionId); err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, nil)
}

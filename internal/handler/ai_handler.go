package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/datapulse/datapulse/internal/service"
)

// AIHandler AI 问答处理器
type AIHandler struct {
	svc *service.Services
}

// NewAIHandler 创建 AI 问答处理器
func NewAIHandler(svc *service.Services) *AIHandler {
	return &AIHandler{svc: svc}
}

// ChatRequest 问答请求
type ChatRequest struct {
	Question string `json:"question" binding:"required"`
	Context  string `json:"context"`
}

// Chat 与数据对话
// POST /api/ai/chat
// AI 端失败不转为 HTTP 错误：返回零置信度结果供前端降级展示
func (h *AIHandler) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	OK(c, h.svc.Insight.Ask(c.Request.Context(), req.Question, req.Context))
}

package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/datapulse/datapulse/internal/service"
)

// SystemHandler 系统处理器
type SystemHandler struct {
	svc *service.Services
}

// NewSystemHandler 创建系统处理器
func NewSystemHandler(svc *service.Services) *SystemHandler {
	return &SystemHandler{svc: svc}
}

// Root 根路径元信息
// GET /
func (h *SystemHandler) Root(c *gin.Context) {
	OK(c, gin.H{
		"message": "AI Data Analytics Dashboard API",
		"version": h.svc.Config.App.Version,
		"health":  "ok",
	})
}

// Health 健康检查
// GET /health
func (h *SystemHandler) Health(c *gin.Context) {
	OK(c, gin.H{"status": "healthy"})
}

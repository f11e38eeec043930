package handler

import (
	"encoding/json"

	"github.com/gin-gonic/gin"

	"github.com/datapulse/datapulse/internal/service"
	"github.com/datapulse/datapulse/internal/service/eda"
)

// ReportHandler 报告生成处理器
type ReportHandler struct {
	svc *service.Services
}

// NewReportHandler 创建报告生成处理器
func NewReportHandler(svc *service.Services) *ReportHandler {
	return &ReportHandler{svc: svc}
}

// GenerateReport 生成 AI 报告
// POST /api/report/generate?format=html|pdf
func (h *ReportHandler) GenerateReport(c *gin.Context) {
	format := c.DefaultQuery("format", "html")
	if format != "html" && format != "pdf" {
		BadRequest(c, "format must be html or pdf")
		return
	}

	frame, ok := loadFrame(c, h.svc)
	if !ok {
		return
	}

	summary := eda.Summarize(frame)
	summaryText, err := json.Marshal(summary)
	if err != nil {
		Error(c, err)
		return
	}

	report := h.svc.Insight.GenerateReport(c.Request.Context(), string(summaryText))

	OK(c, gin.H{
		"report": report.Report,
		"format": format,
		"status": report.Status,
	})
}

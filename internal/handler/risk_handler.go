package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/datapulse/datapulse/internal/service"
	"github.com/datapulse/datapulse/internal/service/risk"
)

// RiskHandler 风险分析处理器
type RiskHandler struct {
	svc *service.Services
}

// NewRiskHandler 创建风险分析处理器
func NewRiskHandler(svc *service.Services) *RiskHandler {
	return &RiskHandler{svc: svc}
}

// AnalyzeRisk 异常检测与风险评分
// POST /api/risk/analyze?contamination=0.1
func (h *RiskHandler) AnalyzeRisk(c *gin.Context) {
	contamination := 0.1
	if raw := c.Query("contamination"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			BadRequest(c, "contamination must be a number")
			return
		}
		contamination = v
	}
	if contamination < 0.01 || contamination > 0.5 {
		BadRequest(c, "contamination must be between 0.01 and 0.5")
		return
	}

	frame, ok := loadFrame(c, h.svc)
	if !ok {
		return
	}

	OK(c, h.svc.Risk.DetectAnomalies(frame, contamination))
}

// GetDataQuality 数据质量评分
// GET /api/risk/quality
func (h *RiskHandler) GetDataQuality(c *gin.Context) {
	frame, ok := loadFrame(c, h.svc)
	if !ok {
		return
	}

	OK(c, gin.H{"quality_score": risk.QualityScore(frame)})
}

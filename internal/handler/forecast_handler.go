package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/datapulse/datapulse/internal/service"
)

// ForecastHandler 时间序列预测处理器
type ForecastHandler struct {
	svc *service.Services
}

// NewForecastHandler 创建预测处理器
func NewForecastHandler(svc *service.Services) *ForecastHandler {
	return &ForecastHandler{svc: svc}
}

// ForecastRequest 预测请求
type ForecastRequest struct {
	DateColumn  string `json:"date_column" binding:"required"`
	ValueColumn string `json:"value_column" binding:"required"`
	Periods     int    `json:"periods"`
}

// Forecast 生成预测
// POST /api/forecast
// 主路径结果携带错误标记时，换用同一值列与步数的指数平滑兜底
func (h *ForecastHandler) Forecast(c *gin.Context) {
	var req ForecastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	if req.Periods <= 0 {
		req.Periods = 12
	}

	frame, ok := loadFrame(c, h.svc)
	if !ok {
		return
	}

	result := h.svc.Forecast.SeasonalForecast(frame, req.DateColumn, req.ValueColumn, req.Periods)
	if result.Error != "" {
		fallback, err := h.svc.Forecast.Smooth(frame, req.ValueColumn, req.Periods)
		if err != nil {
			Error(c, err)
			return
		}
		OK(c, fallback)
		return
	}

	OK(c, result)
}

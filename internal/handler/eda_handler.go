package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/datapulse/datapulse/internal/dataframe"
	"github.com/datapulse/datapulse/internal/service"
	"github.com/datapulse/datapulse/internal/service/eda"
)

// EDAHandler 探索性分析处理器
type EDAHandler struct {
	svc *service.Services
}

// NewEDAHandler 创建探索性分析处理器
func NewEDAHandler(svc *service.Services) *EDAHandler {
	return &EDAHandler{svc: svc}
}

// loadFrame 按 file_id + filename 查询参数加载表格
// 参数缺失返回 400，加载失败返回 500，两种情况都已写出响应
func loadFrame(c *gin.Context, svc *service.Services) (*dataframe.Frame, bool) {
	fileID := c.Query("file_id")
	filename := c.Query("filename")
	if fileID == "" || filename == "" {
		BadRequest(c, "file_id and filename are required")
		return nil, false
	}

	frame, err := svc.File.Load(fileID, filename)
	if err != nil {
		Error(c, err)
		return nil, false
	}
	return frame, true
}

// GetSummary 数据集概要
// GET /api/eda/summary
func (h *EDAHandler) GetSummary(c *gin.Context) {
	frame, ok := loadFrame(c, h.svc)
	if !ok {
		return
	}
	OK(c, eda.Summarize(frame))
}

// GetColumnStats 逐列统计
// GET /api/eda/stats
func (h *EDAHandler) GetColumnStats(c *gin.Context) {
	frame, ok := loadFrame(c, h.svc)
	if !ok {
		return
	}
	OK(c, eda.ColumnStats(frame))
}

// GetCorrelation 相关系数矩阵
// GET /api/eda/correlation
func (h *EDAHandler) GetCorrelation(c *gin.Context) {
	frame, ok := loadFrame(c, h.svc)
	if !ok {
		return
	}
	OK(c, eda.Correlation(frame))
}

// GetOutliers IQR 离群点
// GET /api/eda/outliers
func (h *EDAHandler) GetOutliers(c *gin.Context) {
	frame, ok := loadFrame(c, h.svc)
	if !ok {
		return
	}
	OK(c, eda.Outliers(frame))
}

// GetChartData 图表数据
// GET /api/eda/charts
func (h *EDAHandler) GetChartData(c *gin.Context) {
	frame, ok := loadFrame(c, h.svc)
	if !ok {
		return
	}
	OK(c, gin.H{"charts": eda.ChartData(frame)})
}

package router

import (
	"github.com/gin-gonic/gin"

	"github.com/datapulse/datapulse/internal/handler"
	"github.com/datapulse/datapulse/internal/middleware"
)

// SetupRouter 设置路由
func SetupRouter(h *handler.Handlers) *gin.Engine {
	r := gin.New()

	// 中间件
	r.Use(middleware.RecoveryMiddleware())
	r.Use(middleware.LoggingMiddleware())
	r.Use(middleware.CORSMiddleware())

	// 存活探针
	r.GET("/", h.System.Root)
	r.GET("/health", h.System.Health)

	// API
	api := r.Group("/api")
	{
		// Upload 上传
		api.POST("/upload", h.Upload.UploadDataset)
		api.GET("/files", h.Upload.ListDatasets)

		// EDA 探索性分析
		eda := api.Group("/eda")
		{
			eda.GET("/summary", h.EDA.GetSummary)
			eda.GET("/stats", h.EDA.GetColumnStats)
			eda.GET("/correlation", h.EDA.GetCorrelation)
			eda.GET("/outliers", h.EDA.GetOutliers)
			eda.GET("/charts", h.EDA.GetChartData)
		}

		// Model 模型训练
		api.POST("/model/train", h.Model.TrainModel)

		// Forecast 时间序列预测
		api.POST("/forecast", h.Forecast.Forecast)

		// Risk 风险分析
		api.POST("/risk/analyze", h.Risk.AnalyzeRisk)
		api.GET("/risk/quality", h.Risk.GetDataQuality)

		// AI 洞察
		api.POST("/ai/chat", h.AI.Chat)
		api.POST("/report/generate", h.Report.GenerateReport)
	}

	return r
}

package handler

import (
	"github.com/datapulse/datapulse/internal/service"
)

// Handlers 处理器集合
type Handlers struct {
	Upload   *UploadHandler
	EDA      *EDAHandler
	Model    *ModelHandler
	Forecast *ForecastHandler
	Risk     *RiskHandler
	AI       *AIHandler
	Report   *ReportHandler
	System   *SystemHandler
}

// NewHandlers 创建所有处理器
func NewHandlers(svc *service.Services) *Handlers {
	return &Handlers{
		Upload:   NewUploadHandler(svc),
		EDA:      NewEDAHandler(svc),
		Model:    NewModelHandler(svc),
		Forecast: NewForecastHandler(svc),
		Risk:     NewRiskHandler(svc),
		AI:       NewAIHandler(svc),
		Report:   NewReportHandler(svc),
		System:   NewSystemHandler(svc),
	}
}

package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/datapulse/datapulse/internal/service"
)

// ModelHandler 模型训练处理器
type ModelHandler struct {
	svc *service.Services
}

// NewModelHandler 创建模型训练处理器
func NewModelHandler(svc *service.Services) *ModelHandler {
	return &ModelHandler{svc: svc}
}

// TrainRequest 训练请求
type TrainRequest struct {
	TargetColumn string   `json:"target_column" binding:"required"`
	ModelType    string   `json:"model_type" binding:"required"`
	Features     []string `json:"features"`
	Algorithm    string   `json:"algorithm"`
}

// TrainModel 训练模型
// POST /api/model/train
func (h *ModelHandler) TrainModel(c *gin.Context) {
	var req TrainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	frame, ok := loadFrame(c, h.svc)
	if !ok {
		return
	}

	switch req.ModelType {
	case "regression":
		algorithm := req.Algorithm
		if algorithm == "" {
			algorithm = "linear"
		}
		result, err := h.svc.ML.TrainRegression(frame, req.TargetColumn, algorithm, req.Features)
		if err != nil {
			Error(c, err)
			return
		}
		OK(c, result)
	case "classification":
		result, err := h.svc.ML.TrainClassification(frame, req.TargetColumn, req.Features)
		if err != nil {
			Error(c, err)
			return
		}
		OK(c, result)
	default:
		BadRequest(c, "Invalid model type")
	}
}

package service

import (
	"context"
	"log"
	"time"

	"github.com/datapulse/datapulse/internal/config"
	"github.com/datapulse/datapulse/internal/repository"
	"github.com/datapulse/datapulse/internal/service/file"
	"github.com/datapulse/datapulse/internal/service/forecast"
	"github.com/datapulse/datapulse/internal/service/insight"
	"github.com/datapulse/datapulse/internal/service/ml"
	"github.com/datapulse/datapulse/internal/service/risk"
)

// Services 服务集合
type Services struct {
	File     *file.Service
	ML       *ml.Service
	Forecast *forecast.Engine
	Risk     *risk.Service
	Insight  *insight.Service
	Repos    *repository.Repositories
	Config   *config.Config
}

// NewServices 创建所有服务
func NewServices(repos *repository.Repositories, cfg *config.Config) (*Services, error) {
	ctx := context.Background()

	chatModel, err := newChatModel(ctx, cfg)
	if err != nil {
		// AI 不可用时整体服务仍可启动，问答按错误对象契约降级
		log.Printf("AI chat model unavailable: %v", err)
		chatModel = nil
	}

	var seasonal forecast.Seasonal
	if cfg.Forecast.Engine == "holtwinters" {
		seasonal = forecast.NewHoltWinters()
	}

	return &Services{
		File:     file.NewService(cfg.Storage.UploadDir, cfg.Storage.MaxFileSize, cfg.Storage.AllowedExtensions),
		ML:       ml.NewService(cfg.ML.Seed, cfg.ML.TestSize),
		Forecast: forecast.NewEngine(seasonal),
		Risk:     risk.NewService(cfg.ML.Seed),
		Insight:  insight.NewService(chatModel, cfg.AI.Model, time.Duration(cfg.AI.Timeout)*time.Second),
		Repos:    repos,
		Config:   cfg,
	}, nil
}

package service

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/cloudwego/eino-ext/components/model/openai"
	ecomodel "github.com/cloudwego/eino/components/model"

	"github.com/datapulse/datapulse/internal/config"
)

// newChatModel 创建指向 OpenRouter 的 ChatModel
func newChatModel(ctx context.Context, cfg *config.Config) (ecomodel.ChatModel, error) {
	aiCfg := cfg.AI

	if aiCfg.APIKey == "" {
		return nil, fmt.Errorf("ai.apiKey is not configured")
	}

	temperature := float32(0.7)
	maxTokens := aiCfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1000
	}

	timeout := time.Duration(aiCfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return openai.NewChatModel(ctx, &openai.ChatModelConfig{
		APIKey:      aiCfg.APIKey,
		BaseURL:     aiCfg.BaseURL,
		Model:       aiCfg.Model,
		Temperature: &temperature,
		MaxTokens:   &maxTokens,
		Timeout:     timeout,
		HTTPClient: &http.Client{
			Timeout:   timeout,
			Transport: newHeaderTransport(aiCfg.Referer, aiCfg.AppTitle),
		},
	})
}

// headerTransport 为每个请求附加 OpenRouter 要求的归属头
type headerTransport struct {
	referer string
	title   string
	next    http.RoundTripper
}

func newHeaderTransport(referer, title string) *headerTransport {
	return &headerTransport{
		referer: referer,
		title:   title,
		next:    http.DefaultTransport,
	}
}

// RoundTrip 实现 http.RoundTripper 接口
func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	cloned := req.Clone(req.Context())
	if t.referer != "" {
		cloned.Header.Set("HTTP-Referer", t.referer)
	}
	if t.title != "" {
		cloned.Header.Set("X-Title", t.title)
	}
	return t.next.RoundTrip(cloned)
}

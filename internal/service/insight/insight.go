// Package insight 提供面向数据集的 AI 问答与报告生成
package insight

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

const systemPrompt = `You are a data analyst AI assistant. You have access to dataset information and should provide clear, actionable insights based on the data context provided. Be concise and specific.`

const reportPromptTemplate = `Based on the following dataset analysis, generate a professional data report with:
1. Executive Summary (2-3 sentences)
2. Key Findings (3-5 bullet points)
3. Recommendations (2-3 actionable items)

Dataset Summary:
%s

Please format as structured text.`

// ChatModel 聊天模型能力，eino 的 ChatModel 实现满足该接口
type ChatModel interface {
	Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error)
}

// Service AI 洞察服务
type Service struct {
	chatModel ChatModel
	modelName string
	timeout   time.Duration
}

// NewService 创建 AI 洞察服务，chatModel 为 nil 表示未配置 API Key
func NewService(chatModel ChatModel, modelName string, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Service{
		chatModel: chatModel,
		modelName: modelName,
		timeout:   timeout,
	}
}

// Answer 问答结果
// 失败不抛错：Confidence 为 0 且 Error 非空，调用方按字段分支降级
type Answer struct {
	Answer     string   `json:"answer"`
	Confidence float64  `json:"confidence"`
	Model      string   `json:"model,omitempty"`
	Sources    []string `json:"sources,omitempty"`
	Error      string   `json:"error,omitempty"`
}

// Report 报告生成结果，契约与 Answer 相同：按 Status 分支，不抛错
type Report struct {
	Report *string `json:"report"`
	Status string  `json:"status"`
	Error  string  `json:"error,omitempty"`
}

// Ask 带可选数据集上下文向模型提问
func (s *Service) Ask(ctx context.Context, question, datasetContext string) *Answer {
	if s.chatModel == nil {
		return &Answer{
			Answer:     "Error querying AI",
			Confidence: 0,
			Error:      "AI service is not configured",
		}
	}

	prompt := systemPrompt
	if datasetContext != "" {
		prompt += fmt.Sprintf("\n\nDataset Context:\n%s", datasetContext)
	}

	messages := []*schema.Message{
		{Role: schema.System, Content: prompt},
		{Role: schema.User, Content: question},
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	resp, err := s.chatModel.Generate(ctx, messages)
	if err != nil {
		return &Answer{
			Answer:     fmt.Sprintf("Error: %s", err.Error()),
			Confidence: 0,
			Error:      err.Error(),
		}
	}

	return &Answer{
		Answer:     resp.Content,
		Confidence: 0.9,
		Model:      s.modelName,
	}
}

// GenerateReport 根据数据集概要文本生成结构化报告
func (s *Service) GenerateReport(ctx context.Context, summary string) *Report {
	if s.chatModel == nil {
		return &Report{Status: "error", Error: "AI service is not configured"}
	}

	messages := []*schema.Message{
		{Role: schema.User, Content: fmt.Sprintf(reportPromptTemplate, summary)},
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	resp, err := s.chatModel.Generate(ctx, messages)
	if err != nil {
		return &Report{Status: "error", Error: err.Error()}
	}

	return &Report{Report: &resp.Content, Status: "success"}
}

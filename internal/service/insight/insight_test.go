package insight

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/datapulse/datapulse/internal/testutil"
)

// stubChatModel 可控应答的 ChatModel 实现
type stubChatModel struct {
	content  string
	err      error
	lastMsgs []*schema.Message
}

func (s *stubChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	s.lastMsgs = input
	if s.err != nil {
		return nil, s.err
	}
	return &schema.Message{Role: schema.Assistant, Content: s.content}, nil
}

func TestAskSuccess(t *testing.T) {
	stub := &stubChatModel{content: "Revenue grew 12% quarter over quarter."}
	svc := NewService(stub, "test-model", time.Second)

	answer := svc.Ask(context.Background(), "How did revenue develop?", "rows: 120")
	if answer.Error != "" {
		t.Fatalf("unexpected error: %s", answer.Error)
	}
	if answer.Confidence != 0.9 {
		t.Errorf("successful answer should carry confidence 0.9, got %v", answer.Confidence)
	}
	if answer.Answer != stub.content || answer.Model != "test-model" {
		t.Errorf("unexpected answer: %+v", answer)
	}

	// 数据集上下文拼进系统提示
	if len(stub.lastMsgs) != 2 || stub.lastMsgs[0].Role != schema.System {
		t.Fatalf("expected system+user messages, got %v", stub.lastMsgs)
	}
	if got := stub.lastMsgs[0].Content; !strings.Contains(got, "rows: 120") {
		t.Errorf("dataset context missing from system prompt: %s", got)
	}
}

func TestAskModelFailureDoesNotPanic(t *testing.T) {
	stub := &stubChatModel{err: errors.New("upstream timeout")}
	svc := NewService(stub, "test-model", time.Second)

	answer := svc.Ask(context.Background(), "anything", "")
	if answer.Confidence != 0 {
		t.Errorf("failed answer must carry confidence 0, got %v", answer.Confidence)
	}
	if answer.Error == "" {
		t.Error("failed answer must carry a non-empty error field")
	}
}

func TestAskUnconfigured(t *testing.T) {
	svc := NewService(nil, "", time.Second)

	answer := svc.Ask(context.Background(), "anything", "")
	if answer.Confidence != 0 || answer.Error == "" {
		t.Errorf("unconfigured service should degrade, got %+v", answer)
	}
}

func TestGenerateReportContract(t *testing.T) {
	stub := &stubChatModel{content: "Executive Summary: all good."}
	svc := NewService(stub, "test-model", time.Second)

	report := svc.GenerateReport(context.Background(), `{"row_count": 10}`)
	if report.Status != "success" || report.Report == nil {
		t.Fatalf("unexpected report: %+v", report)
	}
	if *report.Report != stub.content {
		t.Errorf("report text mismatch: %q", *report.Report)
	}

	stub.err = errors.New("rate limited")
	report = svc.GenerateReport(context.Background(), "{}")
	if report.Status != "error" || report.Error == "" || report.Report != nil {
		t.Errorf("failed report should carry error status, got %+v", report)
	}
}

func TestAskAgainstMockEndpoint(t *testing.T) {
	ts := testutil.NewChatCompletionServer(t, "The dataset has no strong outliers.")

	cm, err := openai.NewChatModel(context.Background(), &openai.ChatModelConfig{
		APIKey:  "test-key",
		BaseURL: ts.URL,
		Model:   "test-model",
	})
	if err != nil {
		t.Fatalf("NewChatModel failed: %v", err)
	}

	svc := NewService(cm, "test-model", 5*time.Second)
	answer := svc.Ask(context.Background(), "Any outliers?", "")
	if answer.Error != "" {
		t.Fatalf("unexpected error: %s", answer.Error)
	}
	if answer.Answer != "The dataset has no strong outliers." {
		t.Errorf("unexpected answer: %q", answer.Answer)
	}
}

func TestAskAgainstFailingEndpoint(t *testing.T) {
	ts := testutil.NewFailingChatCompletionServer(t)

	cm, err := openai.NewChatModel(context.Background(), &openai.ChatModelConfig{
		APIKey:  "test-key",
		BaseURL: ts.URL,
		Model:   "test-model",
	})
	if err != nil {
		t.Fatalf("NewChatModel failed: %v", err)
	}

	svc := NewService(cm, "test-model", 5*time.Second)
	answer := svc.Ask(context.Background(), "Any outliers?", "")
	if answer.Confidence != 0 || answer.Error == "" {
		t.Errorf("unreachable endpoint should degrade without panicking, got %+v", answer)
	}
}

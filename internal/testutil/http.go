package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

// NewChatCompletionServer 返回固定应答的 OpenAI 兼容 mock 服务器
func NewChatCompletionServer(t *testing.T, answer string) *httptest.Server {
	t.Helper()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{
			"id": "chatcmpl-test",
			"object": "chat.completion",
			"model": "test-model",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": %q}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 1, "completion_tokens": 1, "total_tokens": 2}
		}`, answer)
	}))
	t.Cleanup(ts.Close)
	return ts
}

// NewFailingChatCompletionServer 返回恒定 500 的 mock 服务器，模拟 AI 端不可达
func NewFailingChatCompletionServer(t *testing.T) *httptest.Server {
	t.Helper()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "upstream unavailable"}`, http.StatusInternalServerError)
	}))
	t.Cleanup(ts.Close)
	return ts
}

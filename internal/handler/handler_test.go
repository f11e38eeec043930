package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/datapulse/datapulse/internal/config"
	"github.com/datapulse/datapulse/internal/database"
	"github.com/datapulse/datapulse/internal/middleware"
	"github.com/datapulse/datapulse/internal/repository"
	"github.com/datapulse/datapulse/internal/service"
)

const peopleCSV = "age,city,score\n30,Berlin,1.5\n41,Paris,2.0\n35,Oslo,2.5\n28,Rome,3.0\n50,Bern,3.5\n"

// newTestRouter 以临时目录搭建完整路由，mutate 可调整默认配置
func newTestRouter(t *testing.T, mutate func(cfg *config.Config)) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("config load failed: %v", err)
	}

	dir := t.TempDir()
	cfg.App.Debug = false
	cfg.Database.Path = filepath.Join(dir, "registry.db")
	cfg.Storage.UploadDir = filepath.Join(dir, "uploads")
	if mutate != nil {
		mutate(cfg)
	}

	db, err := database.New(cfg)
	if err != nil {
		t.Fatalf("database init failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	svcs, err := service.NewServices(repository.NewRepositories(db.DB), cfg)
	if err != nil {
		t.Fatalf("services init failed: %v", err)
	}

	r := gin.New()
	r.Use(middleware.RecoveryMiddleware())
	h := NewHandlers(svcs)

	r.GET("/health", h.System.Health)
	api := r.Group("/api")
	api.POST("/upload", h.Upload.UploadDataset)
	api.GET("/files", h.Upload.ListDatasets)
	api.GET("/eda/summary", h.EDA.GetSummary)
	api.GET("/eda/stats", h.EDA.GetColumnStats)
	api.GET("/eda/outliers", h.EDA.GetOutliers)
	api.POST("/model/train", h.Model.TrainModel)
	api.POST("/forecast", h.Forecast.Forecast)
	api.POST("/risk/analyze", h.Risk.AnalyzeRisk)
	api.GET("/risk/quality", h.Risk.GetDataQuality)
	api.POST("/ai/chat", h.AI.Chat)
	api.POST("/report/generate", h.Report.GenerateReport)

	return r
}

func doUpload(t *testing.T, r *gin.Engine, filename, content string) *httptest.ResponseRecorder {
	t.Helper()

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fw.Write([]byte(content)); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func mustUpload(t *testing.T, r *gin.Engine, filename, content string) UploadResponse {
	t.Helper()

	w := doUpload(t, r, filename, content)
	if w.Code != http.StatusOK {
		t.Fatalf("upload failed with %d: %s", w.Code, w.Body.String())
	}
	var resp UploadResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode upload response: %v", err)
	}
	return resp
}

func decodeDetail(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()

	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return body["detail"]
}

func TestHealth(t *testing.T) {
	r := newTestRouter(t, nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "healthy") {
		t.Fatalf("unexpected health response: %d %s", w.Code, w.Body.String())
	}
}

func TestUploadRoundTrip(t *testing.T) {
	r := newTestRouter(t, nil)

	resp := mustUpload(t, r, "people.csv", peopleCSV)
	if resp.ID == "" || resp.Rows != 5 || resp.Columns != 3 {
		t.Fatalf("unexpected upload response: %+v", resp)
	}

	// 上传历史包含该文件
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/files", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), resp.ID) {
		t.Fatalf("uploaded dataset missing from history: %s", w.Body.String())
	}
}

func TestUploadValidation(t *testing.T) {
	r := newTestRouter(t, func(cfg *config.Config) {
		cfg.Storage.MaxFileSize = 100
	})

	w := doUpload(t, r, "notes.txt", "hello")
	if w.Code != http.StatusBadRequest {
		t.Errorf("txt upload should be 400, got %d", w.Code)
	} else if !strings.Contains(decodeDetail(t, w), "File type not allowed") {
		t.Errorf("unexpected detail: %s", w.Body.String())
	}

	exact := "v\n" + strings.Repeat("1\n", 49) // 100 字节
	if w := doUpload(t, r, "exact.csv", exact); w.Code != http.StatusOK {
		t.Errorf("file at exactly max size should pass, got %d: %s", w.Code, w.Body.String())
	}

	over := exact + "1"
	w = doUpload(t, r, "over.csv", over)
	if w.Code != http.StatusBadRequest {
		t.Errorf("oversize upload should be 400, got %d", w.Code)
	} else if !strings.Contains(decodeDetail(t, w), "File size exceeds") {
		t.Errorf("unexpected detail: %s", w.Body.String())
	}

	// 未携带文件
	req := httptest.NewRequest(http.MethodPost, "/api/upload", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing file should be 400, got %d", rec.Code)
	}
}

func TestSummaryEndpoint(t *testing.T) {
	r := newTestRouter(t, nil)
	resp := mustUpload(t, r, "people.csv", peopleCSV)

	url := fmt.Sprintf("/api/eda/summary?file_id=%s&filename=%s", resp.ID, resp.Filename)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, url, nil))
	if w.Code != http.StatusOK {
		t.Fatalf("summary failed: %d %s", w.Code, w.Body.String())
	}

	var summary map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &summary); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if summary["row_count"] != 5.0 || summary["column_count"] != 3.0 {
		t.Errorf("unexpected summary counts: %v", summary)
	}

	// 缺参数 400
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/eda/summary", nil))
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing params should be 400, got %d", w.Code)
	}

	// 未知 file_id 500
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/eda/summary?file_id=nope&filename=gone.csv", nil))
	if w.Code != http.StatusInternalServerError {
		t.Errorf("unknown dataset should be 500, got %d", w.Code)
	}
}

func TestTrainModelValidation(t *testing.T) {
	r := newTestRouter(t, nil)
	resp := mustUpload(t, r, "people.csv", peopleCSV)

	url := fmt.Sprintf("/api/model/train?file_id=%s&filename=%s", resp.ID, resp.Filename)

	body := `{"target_column": "score", "model_type": "clustering"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, url, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("invalid model type should be 400, got %d", w.Code)
	} else if decodeDetail(t, w) != "Invalid model type" {
		t.Errorf("unexpected detail: %s", w.Body.String())
	}

	// 必填字段缺失
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, url, strings.NewReader(`{"model_type": "regression"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing target_column should be 400, got %d", w.Code)
	}
}

func TestTrainRegressionEndToEnd(t *testing.T) {
	r := newTestRouter(t, nil)

	var b strings.Builder
	b.WriteString("x,y\n")
	for i := 1; i <= 20; i++ {
		fmt.Fprintf(&b, "%d,%d\n", i, 3*i)
	}
	resp := mustUpload(t, r, "linear.csv", b.String())

	url := fmt.Sprintf("/api/model/train?file_id=%s&filename=%s", resp.ID, resp.Filename)
	body := `{"target_column": "y", "model_type": "regression"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, url, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("train failed: %d %s", w.Code, w.Body.String())
	}

	var result map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if result["model_type"] != "linear" {
		t.Errorf("regression should default to linear, got %v", result["model_type"])
	}
	if r2, ok := result["r_squared"].(float64); !ok || r2 < 0.999 {
		t.Errorf("unexpected r_squared: %v", result["r_squared"])
	}
}

func TestForecastFallsBackWithoutSeasonalEngine(t *testing.T) {
	r := newTestRouter(t, func(cfg *config.Config) {
		cfg.Forecast.Engine = "off"
	})

	var b strings.Builder
	b.WriteString("date,sales\n")
	for i := 1; i <= 6; i++ {
		fmt.Fprintf(&b, "2024-0%d-01,%d\n", i, 100+i)
	}
	resp := mustUpload(t, r, "sales.csv", b.String())

	url := fmt.Sprintf("/api/forecast?file_id=%s&filename=%s", resp.ID, resp.Filename)
	body := `{"date_column": "date", "value_column": "sales", "periods": 5}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, url, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("forecast failed: %d %s", w.Code, w.Body.String())
	}

	var result struct {
		Forecast []map[string]float64 `json:"forecast"`
		Method   string               `json:"method"`
		Periods  int                  `json:"periods"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if result.Method != "exponential_smoothing" {
		t.Errorf("fallback result must be tagged with its method, got %q", result.Method)
	}
	if result.Periods != 5 || len(result.Forecast) != 5 {
		t.Errorf("expected exactly 5 forecast points, got %d/%d", result.Periods, len(result.Forecast))
	}
}

func TestForecastInsufficientData(t *testing.T) {
	r := newTestRouter(t, func(cfg *config.Config) {
		cfg.Forecast.Engine = "off"
	})

	resp := mustUpload(t, r, "tiny.csv", "date,sales\n2024-01-01,100\n2024-02-01,110\n")

	url := fmt.Sprintf("/api/forecast?file_id=%s&filename=%s", resp.ID, resp.Filename)
	body := `{"date_column": "date", "value_column": "sales"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, url, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("two observations should fail, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(decodeDetail(t, w), "insufficient data for forecasting") {
		t.Errorf("unexpected detail: %s", w.Body.String())
	}
}

func TestRiskContaminationValidation(t *testing.T) {
	r := newTestRouter(t, nil)
	resp := mustUpload(t, r, "people.csv", peopleCSV)

	base := fmt.Sprintf("/api/risk/analyze?file_id=%s&filename=%s", resp.ID, resp.Filename)

	for _, bad := range []string{"0.6", "0.001", "abc"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, base+"&contamination="+bad, nil))
		if w.Code != http.StatusBadRequest {
			t.Errorf("contamination %s should be 400, got %d", bad, w.Code)
		}
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, base, nil))
	if w.Code != http.StatusOK {
		t.Fatalf("default contamination should pass, got %d: %s", w.Code, w.Body.String())
	}
	var result map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if _, ok := result["risk_score"]; !ok {
		t.Errorf("risk response missing risk_score: %v", result)
	}
}

func TestQualityEndpoint(t *testing.T) {
	r := newTestRouter(t, nil)
	resp := mustUpload(t, r, "people.csv", peopleCSV)

	url := fmt.Sprintf("/api/risk/quality?file_id=%s&filename=%s", resp.ID, resp.Filename)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, url, nil))
	if w.Code != http.StatusOK {
		t.Fatalf("quality failed: %d %s", w.Code, w.Body.String())
	}

	var body map[string]float64
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["quality_score"] != 100 {
		t.Errorf("complete dataset should score 100, got %v", body["quality_score"])
	}
}

func TestChatDegradesWithoutAPIKey(t *testing.T) {
	r := newTestRouter(t, func(cfg *config.Config) {
		cfg.AI.APIKey = ""
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/ai/chat", strings.NewReader(`{"question": "hello"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("chat should not fail the request, got %d: %s", w.Code, w.Body.String())
	}

	var answer map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &answer); err != nil {
		t.Fatalf("decode answer: %v", err)
	}
	if answer["confidence"] != 0.0 {
		t.Errorf("degraded answer should carry confidence 0, got %v", answer["confidence"])
	}
	if e, _ := answer["error"].(string); e == "" {
		t.Errorf("degraded answer should carry an error field: %v", answer)
	}

	// question 必填
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/ai/chat", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing question should be 400, got %d", w.Code)
	}
}

func TestReportFormatValidation(t *testing.T) {
	r := newTestRouter(t, nil)
	resp := mustUpload(t, r, "people.csv", peopleCSV)

	url := fmt.Sprintf("/api/report/generate?format=docx&file_id=%s&filename=%s", resp.ID, resp.Filename)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, url, nil))
	if w.Code != http.StatusBadRequest {
		t.Errorf("unknown format should be 400, got %d", w.Code)
	}

	// AI 未配置时报告按错误状态返回而非 HTTP 错误
	url = fmt.Sprintf("/api/report/generate?file_id=%s&filename=%s", resp.ID, resp.Filename)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, url, nil))
	if w.Code != http.StatusOK {
		t.Fatalf("report should not fail the request, got %d: %s", w.Code, w.Body.String())
	}
	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["status"] != "error" {
		t.Errorf("unconfigured AI should produce error status, got %v", body["status"])
	}
	if body["format"] != "html" {
		t.Errorf("format should default to html, got %v", body["format"])
	}
}

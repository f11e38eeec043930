// Package forecast 提供时间序列预测
// 季节性预测能力为注入式依赖：不可用或拟合失败时结果携带错误标记，
// 由路由改用指数平滑兜底（该错误对象契约是刻意保留的，调用方按字段分支）
package forecast

import (
	"fmt"
	"sort"
	"time"

	"github.com/datapulse/datapulse/internal/dataframe"
)

// Point 一个观测点
type Point struct {
	Timestamp time.Time
	Value     float64
}

// ForecastPoint 一个预测点
type ForecastPoint struct {
	Timestamp      string  `json:"timestamp"`
	PredictedValue float64 `json:"predicted_value"`
}

// SeasonalResult 季节性模型的预测结果
type SeasonalResult struct {
	Forecast   []ForecastPoint `json:"forecast"`
	LowerBound []float64       `json:"lower_bound"`
	UpperBound []float64       `json:"upper_bound"`
	Periods    int             `json:"periods"`
}

// Result 主路径结果，Error 非空即为错误标记
type Result struct {
	*SeasonalResult
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// SmoothPoint 平滑预测的一个标量
type SmoothPoint struct {
	Value float64 `json:"value"`
}

// SmoothResult 指数平滑兜底结果
type SmoothResult struct {
	Forecast []SmoothPoint `json:"forecast"`
	Method   string        `json:"method"`
	Periods  int           `json:"periods"`
}

// Seasonal 季节性预测能力
type Seasonal interface {
	Forecast(points []Point, periods int) (*SeasonalResult, error)
}

// Engine 预测引擎
type Engine struct {
	seasonal Seasonal
}

// NewEngine 创建预测引擎，seasonal 为 nil 表示季节性能力不可用
func NewEngine(seasonal Seasonal) *Engine {
	return &Engine{seasonal: seasonal}
}

// SeasonalForecast 主路径：季节性模型预测
// 失败不返回 Go error，而是携带错误标记的结果
func (e *Engine) SeasonalForecast(frame *dataframe.Frame, dateCol, valueCol string, periods int) *Result {
	if e.seasonal == nil {
		return &Result{
			Error:   "seasonal forecasting engine not available",
			Message: "enable forecast.engine in the configuration",
		}
	}

	points, err := extractSeries(frame, dateCol, valueCol)
	if err != nil {
		return &Result{Error: err.Error()}
	}

	result, err := e.seasonal.Forecast(points, periods)
	if err != nil {
		return &Result{Error: err.Error()}
	}

	return &Result{SeasonalResult: result}
}

// Smooth 兜底路径：简单指数平滑
// 需要至少 3 个非缺失值，不足时显式报错
func (e *Engine) Smooth(frame *dataframe.Frame, valueCol string, periods int) (*SmoothResult, error) {
	col, ok := frame.Column(valueCol)
	if !ok {
		return nil, fmt.Errorf("value column %q not found", valueCol)
	}
	if col.Kind != dataframe.KindNumeric {
		return nil, fmt.Errorf("value column %q is not numeric", valueCol)
	}

	values := col.NonMissing()
	if len(values) < 3 {
		return nil, fmt.Errorf("insufficient data for forecasting")
	}

	const alpha = 0.3
	tailMean := mean(tail(values, 5))

	forecast := make([]SmoothPoint, 0, periods)
	estimate := values[len(values)-1]
	for i := 0; i < periods; i++ {
		estimate = alpha*estimate + (1-alpha)*tailMean
		forecast = append(forecast, SmoothPoint{Value: estimate})
	}

	return &SmoothResult{
		Forecast: forecast,
		Method:   "exponential_smoothing",
		Periods:  periods,
	}, nil
}

// extractSeries 从表格抽取 (时间, 值) 序列并按时间排序
func extractSeries(frame *dataframe.Frame, dateCol, valueCol string) ([]Point, error) {
	dc, ok := frame.Column(dateCol)
	if !ok {
		return nil, fmt.Errorf("date column %q not found", dateCol)
	}
	vc, ok := frame.Column(valueCol)
	if !ok {
		return nil, fmt.Errorf("value column %q not found", valueCol)
	}
	if vc.Kind != dataframe.KindNumeric {
		return nil, fmt.Errorf("value column %q is not numeric", valueCol)
	}

	points := make([]Point, 0, frame.Rows())
	for i := 0; i < frame.Rows(); i++ {
		if dc.Missing[i] || vc.Missing[i] {
			continue
		}
		ts, err := parseTimestamp(dc.Values[i])
		if err != nil {
			return nil, fmt.Errorf("failed to parse %q as timestamp: %w", dc.Values[i], err)
		}
		points = append(points, Point{Timestamp: ts, Value: vc.Floats[i]})
	}

	if len(points) < 3 {
		return nil, fmt.Errorf("insufficient data for forecasting")
	}

	sort.Slice(points, func(a, b int) bool { return points[a].Timestamp.Before(points[b].Timestamp) })
	return points, nil
}

var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"2006-01",
}

func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp format")
}

func tail(v []float64, n int) []float64 {
	if len(v) <= n {
		return v
	}
	return v[len(v)-n:]
}

func mean(v []float64) float64 {
	sum := 0.0
	for _, x := range v {
		sum += x
	}
	return sum / float64(len(v))
}

// Package risk 提供基于异常检测的风险评分与数据质量评分
package risk

import (
	"fmt"
	"math"

	"github.com/datapulse/datapulse/internal/dataframe"
)

// Service 风险分析服务
type Service struct {
	seed int64
}

// NewService 创建风险分析服务
func NewService(seed int64) *Service {
	return &Service{seed: seed}
}

// AnalysisResult 异常检测结果
type AnalysisResult struct {
	Anomalies      []map[string]interface{} `json:"anomalies"`
	TotalAnomalies int                      `json:"total_anomalies"`
	RiskScore      float64                  `json:"risk_score"`
	Summary        string                   `json:"summary"`
}

// DetectAnomalies 在数值列上拟合隔离森林并标记异常行
// contamination 为预期异常占比；无数值列时返回零风险空结果
func (s *Service) DetectAnomalies(frame *dataframe.Frame, contamination float64) *AnalysisResult {
	numeric := frame.NumericColumns()
	if len(numeric) == 0 || frame.Rows() == 0 {
		return &AnalysisResult{
			Anomalies: []map[string]interface{}{},
			RiskScore: 0,
			Summary:   "No numeric columns found",
		}
	}

	// 缺失数值按列均值填充
	X := make([][]float64, frame.Rows())
	for i := range X {
		X[i] = make([]float64, len(numeric))
	}
	for j, col := range numeric {
		m := columnMean(col)
		for i := 0; i < frame.Rows(); i++ {
			if col.Missing[i] {
				X[i][j] = m
			} else {
				X[i][j] = col.Floats[i]
			}
		}
	}

	forest := newIsolationForest(100, 256, s.seed)
	forest.train(X)
	flagged := forest.flag(X, contamination)

	anomalies := make([]map[string]interface{}, 0, 10)
	for _, idx := range flagged {
		if len(anomalies) >= 10 {
			break
		}
		// 完整原始行，保留各列原始类型
		row := frame.Row(idx)
		row["row_index"] = idx
		anomalies = append(anomalies, row)
	}

	riskScore := float64(len(flagged)) / float64(frame.Rows()) * 100

	return &AnalysisResult{
		Anomalies:      anomalies,
		TotalAnomalies: len(flagged),
		RiskScore:      riskScore,
		Summary:        fmt.Sprintf("Detected %d anomalies (%.1f%% of data)", len(flagged), riskScore),
	}
}

// QualityScore 数据质量评分：非缺失单元格占比 × 100，空表为 0
func QualityScore(frame *dataframe.Frame) float64 {
	total := frame.Rows() * frame.Cols()
	if total == 0 {
		return 0
	}
	missing := frame.MissingCells()
	return float64(total-missing) / float64(total) * 100
}

func columnMean(col *dataframe.Column) float64 {
	sum, n := 0.0, 0
	for i, v := range col.Floats {
		if col.Missing[i] || math.IsNaN(v) {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// Package eda 提供探索性数据分析
// 无状态纯函数集合，每次调用只依赖传入的表格
package eda

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/datapulse/datapulse/internal/dataframe"
)

// Summary 数据集概要
type Summary struct {
	RowCount       int                 `json:"row_count"`
	ColumnCount    int                 `json:"column_count"`
	MemoryUsage    string              `json:"memory_usage"`
	MissingValues  map[string]int      `json:"missing_values"`
	DataTypes      map[string]string   `json:"data_types"`
	NumericSummary map[string]Describe `json:"numeric_summary"`
}

// Describe 数值列的描述统计
type Describe struct {
	Count float64 `json:"count"`
	Mean  float64 `json:"mean"`
	Std   float64 `json:"std"`
	Min   float64 `json:"min"`
	Q25   float64 `json:"25%"`
	Q50   float64 `json:"50%"`
	Q75   float64 `json:"75%"`
	Max   float64 `json:"max"`
}

// NumericStat 数值列统计
type NumericStat struct {
	Type   string  `json:"type"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Std    float64 `json:"std"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Q25    float64 `json:"q25"`
	Q75    float64 `json:"q75"`
}

// CategoricalStat 分类列统计
type CategoricalStat struct {
	Type   string  `json:"type"`
	Unique int     `json:"unique"`
	Mode   *string `json:"mode"`
}

// Chart 图表数据
type Chart struct {
	Name string         `json:"name"`
	Type string         `json:"type"`
	Data map[string]int `json:"data"`
}

// Summarize 生成数据集概要
func Summarize(frame *dataframe.Frame) *Summary {
	missing := make(map[string]int, frame.Cols())
	types := make(map[string]string, frame.Cols())
	numeric := make(map[string]Describe)

	for _, col := range frame.Columns() {
		missing[col.Name] = col.MissingCount()
		types[col.Name] = string(col.Kind)

		if col.Kind != dataframe.KindNumeric {
			continue
		}
		values := col.NonMissing()
		if len(values) == 0 {
			continue
		}
		sorted := append([]float64(nil), values...)
		sort.Float64s(sorted)
		numeric[col.Name] = Describe{
			Count: float64(len(values)),
			Mean:  sanitize(stat.Mean(values, nil)),
			Std:   sanitize(stat.StdDev(values, nil)),
			Min:   sorted[0],
			Q25:   quantile(sorted, 0.25),
			Q50:   quantile(sorted, 0.50),
			Q75:   quantile(sorted, 0.75),
			Max:   sorted[len(sorted)-1],
		}
	}

	mb := float64(frame.MemoryBytes()) / (1024 * 1024)

	return &Summary{
		RowCount:       frame.Rows(),
		ColumnCount:    frame.Cols(),
		MemoryUsage:    fmt.Sprintf("%.2f MB", mb),
		MissingValues:  missing,
		DataTypes:      types,
		NumericSummary: numeric,
	}
}

// ColumnStats 按列类型分支计算每列统计
func ColumnStats(frame *dataframe.Frame) map[string]interface{} {
	stats := make(map[string]interface{}, frame.Cols())

	for _, col := range frame.Columns() {
		if col.Kind == dataframe.KindNumeric {
			values := col.NonMissing()
			sorted := append([]float64(nil), values...)
			sort.Float64s(sorted)

			s := NumericStat{Type: "numeric"}
			if len(sorted) > 0 {
				s.Mean = sanitize(stat.Mean(values, nil))
				s.Median = quantile(sorted, 0.5)
				s.Std = sanitize(stat.StdDev(values, nil))
				s.Min = sorted[0]
				s.Max = sorted[len(sorted)-1]
				s.Q25 = quantile(sorted, 0.25)
				s.Q75 = quantile(sorted, 0.75)
			}
			stats[col.Name] = s
			continue
		}

		cs := CategoricalStat{Type: "categorical"}
		counts := col.ValueCounts()
		cs.Unique = len(counts)
		if len(counts) > 0 {
			mode := counts[0].Value
			cs.Mode = &mode
		}
		stats[col.Name] = cs
	}

	return stats
}

// Correlation 数值列两两 Pearson 相关系数
// 每对列只使用双方都非缺失的行；无数值列时返回空映射
func Correlation(frame *dataframe.Frame) map[string]map[string]float64 {
	cols := frame.NumericColumns()
	matrix := make(map[string]map[string]float64, len(cols))

	for _, a := range cols {
		row := make(map[string]float64, len(cols))
		for _, b := range cols {
			if a.Name == b.Name {
				row[b.Name] = 1
				continue
			}
			row[b.Name] = sanitize(pairwiseCorrelation(a, b))
		}
		matrix[a.Name] = row
	}

	return matrix
}

// Outliers 按 IQR 方法逐列标记离群行位置（0 起始）
func Outliers(frame *dataframe.Frame) map[string][]int {
	outliers := make(map[string][]int)

	for _, col := range frame.NumericColumns() {
		values := col.NonMissing()
		sorted := append([]float64(nil), values...)
		sort.Float64s(sorted)

		indices := []int{}
		if len(sorted) > 0 {
			q1 := quantile(sorted, 0.25)
			q3 := quantile(sorted, 0.75)
			iqr := q3 - q1
			lower := q1 - 1.5*iqr
			upper := q3 + 1.5*iqr

			for i, v := range col.Floats {
				if col.Missing[i] {
					continue
				}
				if v < lower || v > upper {
					indices = append(indices, i)
				}
			}
		}
		outliers[col.Name] = indices
	}

	return outliers
}

// ChartData 前 5 个数值列的直方图数据，取频次最高的 10 个值
func ChartData(frame *dataframe.Frame) []Chart {
	charts := []Chart{}

	for _, col := range frame.NumericColumns() {
		if len(charts) >= 5 {
			break
		}

		counts := col.ValueCounts()
		if len(counts) > 10 {
			counts = counts[:10]
		}
		data := make(map[string]int, len(counts))
		for _, vc := range counts {
			data[vc.Value] = vc.Count
		}

		charts = append(charts, Chart{
			Name: col.Name,
			Type: "histogram",
			Data: data,
		})
	}

	return charts
}

// pairwiseCorrelation 成对完整观测上的 Pearson 相关
func pairwiseCorrelation(a, b *dataframe.Column) float64 {
	xs := make([]float64, 0, len(a.Floats))
	ys := make([]float64, 0, len(b.Floats))
	for i := range a.Floats {
		if a.Missing[i] || b.Missing[i] {
			continue
		}
		xs = append(xs, a.Floats[i])
		ys = append(ys, b.Floats[i])
	}
	if len(xs) < 2 {
		return math.NaN()
	}
	return stat.Correlation(xs, ys, nil)
}

// quantile 线性插值分位数，输入必须已排序
func quantile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}
	h := p * float64(n-1)
	lo := int(math.Floor(h))
	if lo >= n-1 {
		return sorted[n-1]
	}
	return sorted[lo] + (h-float64(lo))*(sorted[lo+1]-sorted[lo])
}

// sanitize NaN/Inf 无法 JSON 序列化，归零处理
func sanitize(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

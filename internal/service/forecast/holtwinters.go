package forecast

import (
	"fmt"
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
)

// HoltWinters 内置季节性预测实现
// 按观测间隔推断年度季节长度（月度 12、季度 4、周度 52）；
// 数据不足两个完整季节时退化为带趋势的二次平滑
type HoltWinters struct {
	alpha float64
	beta  float64
	gamma float64
}

// NewHoltWinters 创建季节性预测器
func NewHoltWinters() *HoltWinters {
	return &HoltWinters{alpha: 0.3, beta: 0.1, gamma: 0.1}
}

// Forecast 拟合观测序列并外推 periods 步
func (hw *HoltWinters) Forecast(points []Point, periods int) (*SeasonalResult, error) {
	if len(points) < 3 {
		return nil, fmt.Errorf("insufficient data for forecasting")
	}
	if periods <= 0 {
		return nil, fmt.Errorf("periods must be positive")
	}

	step := medianStep(points)
	if step <= 0 {
		return nil, fmt.Errorf("timestamps are not strictly increasing")
	}

	values := make([]float64, len(points))
	for i, p := range points {
		values[i] = p.Value
	}

	seasonLen := seasonLength(step)
	var fitted []float64
	var predict func(step int) float64

	if seasonLen > 1 && len(values) >= 2*seasonLen {
		fitted, predict = hw.fitSeasonal(values, seasonLen)
	} else {
		fitted, predict = hw.fitTrend(values)
	}

	// 一步预测残差的标准差给出置信带
	residuals := make([]float64, len(fitted))
	for i := range fitted {
		residuals[i] = values[i] - fitted[i]
	}
	sigma := stat.StdDev(residuals, nil)
	if math.IsNaN(sigma) {
		sigma = 0
	}

	last := points[len(points)-1].Timestamp
	forecast := make([]ForecastPoint, 0, periods)
	lower := make([]float64, 0, periods)
	upper := make([]float64, 0, periods)
	for i := 1; i <= periods; i++ {
		v := predict(i)
		ts := last.Add(time.Duration(i) * step)
		forecast = append(forecast, ForecastPoint{
			Timestamp:      ts.Format(time.RFC3339),
			PredictedValue: v,
		})
		lower = append(lower, v-1.96*sigma)
		upper = append(upper, v+1.96*sigma)
	}

	return &SeasonalResult{
		Forecast:   forecast,
		LowerBound: lower,
		UpperBound: upper,
		Periods:    periods,
	}, nil
}

// fitSeasonal 加法 Holt-Winters
func (hw *HoltWinters) fitSeasonal(values []float64, seasonLen int) ([]float64, func(int) float64) {
	n := len(values)

	// 初始化：首季均值为水平，前两季均值差为趋势，首季偏差为季节项
	firstSeason := mean(values[:seasonLen])
	secondSeason := mean(values[seasonLen : 2*seasonLen])
	level := firstSeason
	trend := (secondSeason - firstSeason) / float64(seasonLen)

	seasonal := make([]float64, seasonLen)
	for i := 0; i < seasonLen; i++ {
		seasonal[i] = values[i] - firstSeason
	}

	fitted := make([]float64, n)
	for t := 0; t < n; t++ {
		s := t % seasonLen
		fitted[t] = level + trend + seasonal[s]

		prevLevel := level
		level = hw.alpha*(values[t]-seasonal[s]) + (1-hw.alpha)*(level+trend)
		trend = hw.beta*(level-prevLevel) + (1-hw.beta)*trend
		seasonal[s] = hw.gamma*(values[t]-level) + (1-hw.gamma)*seasonal[s]
	}

	base := n
	return fitted, func(step int) float64 {
		s := (base + step - 1) % seasonLen
		return level + float64(step)*trend + seasonal[s]
	}
}

// fitTrend 不足两个季节时的 Holt 线性趋势平滑
func (hw *HoltWinters) fitTrend(values []float64) ([]float64, func(int) float64) {
	level := values[0]
	trend := values[1] - values[0]

	fitted := make([]float64, len(values))
	for t := 0; t < len(values); t++ {
		fitted[t] = level + trend

		prevLevel := level
		level = hw.alpha*values[t] + (1-hw.alpha)*(level+trend)
		trend = hw.beta*(level-prevLevel) + (1-hw.beta)*trend
	}

	return fitted, func(step int) float64 {
		return level + float64(step)*trend
	}
}

// seasonLength 按观测间隔推断年度季节长度
func seasonLength(step time.Duration) int {
	day := 24 * time.Hour
	switch {
	case step >= 80*day && step <= 100*day:
		return 4 // 季度
	case step >= 27*day && step <= 32*day:
		return 12 // 月度
	case step >= 6*day && step <= 8*day:
		return 52 // 周度
	default:
		return 1
	}
}

// medianStep 排序后时间间隔的中位数
func medianStep(points []Point) time.Duration {
	gaps := make([]time.Duration, 0, len(points)-1)
	for i := 1; i < len(points); i++ {
		gaps = append(gaps, points[i].Timestamp.Sub(points[i-1].Timestamp))
	}
	sort.Slice(gaps, func(a, b int) bool { return gaps[a] < gaps[b] })
	return gaps[len(gaps)/2]
}

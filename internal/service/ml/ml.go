// Package ml 提供回归与分类模型的单次训练与评估
// 模型在请求内训练、评估后即丢弃，不做任何持久化
package ml

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/sajari/regression"

	"github.com/datapulse/datapulse/internal/dataframe"
)

// Service 模型训练服务
type Service struct {
	seed     int64
	testSize float64
}

// NewService 创建训练服务
func NewService(seed int64, testSize float64) *Service {
	if testSize <= 0 || testSize >= 1 {
		testSize = 0.2
	}
	return &Service{seed: seed, testSize: testSize}
}

// RegressionResult 回归训练结果
type RegressionResult struct {
	ModelType      string  `json:"model_type"`
	Target         string  `json:"target"`
	RSquared       float64 `json:"r_squared"`
	RMSE           float64 `json:"rmse"`
	MAE            float64 `json:"mae"`
	SamplesTrained int     `json:"samples_trained"`
}

// ClassificationResult 分类训练结果
type ClassificationResult struct {
	ModelType      string  `json:"model_type"`
	Target         string  `json:"target"`
	Accuracy       float64 `json:"accuracy"`
	Precision      float64 `json:"precision"`
	Recall         float64 `json:"recall"`
	SamplesTrained int     `json:"samples_trained"`
}

// TrainRegression 训练回归模型
// algorithm 为 linear 时拟合最小二乘，其余拟合 100 棵树的随机森林
func (s *Service) TrainRegression(frame *dataframe.Frame, target, algorithm string, features []string) (*RegressionResult, error) {
	cols, err := s.featureColumns(frame, target, features)
	if err != nil {
		return nil, err
	}

	targetCol, ok := frame.Column(target)
	if !ok {
		return nil, fmt.Errorf("target column %q not found", target)
	}
	if targetCol.Kind != dataframe.KindNumeric {
		return nil, fmt.Errorf("target column %q is not numeric", target)
	}

	// 丢弃特征或目标缺失的行
	X := make([][]float64, 0, frame.Rows())
	y := make([]float64, 0, frame.Rows())
	for i := 0; i < frame.Rows(); i++ {
		if targetCol.Missing[i] || anyMissing(cols, i) {
			continue
		}
		row := make([]float64, len(cols))
		for j, c := range cols {
			row[j] = c.Floats[i]
		}
		X = append(X, row)
		y = append(y, targetCol.Floats[i])
	}
	if len(X) == 0 {
		return nil, fmt.Errorf("no rows remain after dropping missing values")
	}

	trainIdx, testIdx, err := s.split(len(X))
	if err != nil {
		return nil, err
	}

	var predict func(row []float64) float64
	if algorithm == "linear" {
		predict, err = fitLinear(cols, X, y, trainIdx)
		if err != nil {
			return nil, fmt.Errorf("linear regression failed: %w", err)
		}
	} else {
		forest := trainRegressionForest(gather(X, trainIdx), gatherFloats(y, trainIdx), 100, s.seed)
		predict = forest.predict
	}

	// 在保留的 20% 上评估
	var sqErr, absErr, ssTot float64
	testMean := mean(gatherFloats(y, testIdx))
	for _, i := range testIdx {
		pred := predict(X[i])
		diff := y[i] - pred
		sqErr += diff * diff
		absErr += math.Abs(diff)
		ssTot += (y[i] - testMean) * (y[i] - testMean)
	}

	n := float64(len(testIdx))
	r2 := 0.0
	if ssTot > 0 {
		r2 = 1 - sqErr/ssTot
	}

	return &RegressionResult{
		ModelType:      algorithm,
		Target:         target,
		RSquared:       r2,
		RMSE:           math.Sqrt(sqErr / n),
		MAE:            absErr / n,
		SamplesTrained: len(trainIdx),
	}, nil
}

// TrainClassification 训练 100 棵树的随机森林分类器
func (s *Service) TrainClassification(frame *dataframe.Frame, target string, features []string) (*ClassificationResult, error) {
	cols, err := s.featureColumns(frame, target, features)
	if err != nil {
		return nil, err
	}

	targetCol, ok := frame.Column(target)
	if !ok {
		return nil, fmt.Errorf("target column %q not found", target)
	}

	// 标签取原始文本，特征或目标缺失的行丢弃
	X := make([][]float64, 0, frame.Rows())
	labels := make([]string, 0, frame.Rows())
	for i := 0; i < frame.Rows(); i++ {
		if targetCol.Missing[i] || anyMissing(cols, i) {
			continue
		}
		row := make([]float64, len(cols))
		for j, c := range cols {
			row[j] = c.Floats[i]
		}
		X = append(X, row)
		labels = append(labels, targetCol.Values[i])
	}
	if len(X) == 0 {
		return nil, fmt.Errorf("no rows remain after dropping missing values")
	}

	classes, y := encodeLabels(labels)

	trainIdx, testIdx, err := s.split(len(X))
	if err != nil {
		return nil, err
	}

	forest := trainClassificationForest(gather(X, trainIdx), gatherInts(y, trainIdx), len(classes), 100, s.seed)

	predicted := make([]int, len(testIdx))
	actual := make([]int, len(testIdx))
	correct := 0
	for k, i := range testIdx {
		predicted[k] = forest.predict(X[i])
		actual[k] = y[i]
		if predicted[k] == actual[k] {
			correct++
		}
	}

	precision, recall := weightedPrecisionRecall(actual, predicted, len(classes))

	return &ClassificationResult{
		ModelType:      "classification",
		Target:         target,
		Accuracy:       float64(correct) / float64(len(testIdx)),
		Precision:      precision,
		Recall:         recall,
		SamplesTrained: len(trainIdx),
	}, nil
}

// featureColumns 选取数值特征列：显式列表或全部非目标数值列
func (s *Service) featureColumns(frame *dataframe.Frame, target string, features []string) ([]*dataframe.Column, error) {
	if _, ok := frame.Column(target); !ok {
		return nil, fmt.Errorf("target column %q not found", target)
	}

	var cols []*dataframe.Column
	if len(features) > 0 {
		for _, name := range features {
			if name == target {
				continue
			}
			col, ok := frame.Column(name)
			if !ok {
				return nil, fmt.Errorf("feature column %q not found", name)
			}
			if col.Kind != dataframe.KindNumeric {
				return nil, fmt.Errorf("feature column %q is not numeric", name)
			}
			cols = append(cols, col)
		}
	} else {
		for _, col := range frame.NumericColumns() {
			if col.Name == target {
				continue
			}
			cols = append(cols, col)
		}
	}

	if len(cols) == 0 {
		return nil, fmt.Errorf("no numeric feature columns available")
	}
	return cols, nil
}

// split 固定种子的 80/20 划分
func (s *Service) split(n int) (train, test []int, err error) {
	nTest := int(math.Ceil(float64(n) * s.testSize))
	if nTest >= n {
		return nil, nil, fmt.Errorf("not enough samples to split: %d", n)
	}

	rng := rand.New(rand.NewSource(s.seed))
	perm := rng.Perm(n)

	test = append(test, perm[:nTest]...)
	train = append(train, perm[nTest:]...)
	return train, test, nil
}

// fitLinear 最小二乘拟合，返回预测函数
func fitLinear(cols []*dataframe.Column, X [][]float64, y []float64, trainIdx []int) (func([]float64) float64, error) {
	var r regression.Regression
	r.SetObserved("target")
	for j, c := range cols {
		r.SetVar(j, c.Name)
	}
	for _, i := range trainIdx {
		r.Train(regression.DataPoint(y[i], X[i]))
	}
	if err := r.Run(); err != nil {
		return nil, err
	}

	return func(row []float64) float64 {
		pred, err := r.Predict(row)
		if err != nil {
			return 0
		}
		return pred
	}, nil
}

// weightedPrecisionRecall 按真实标签支持度加权的精确率与召回率，除零按 0 处理
func weightedPrecisionRecall(actual, predicted []int, nClasses int) (float64, float64) {
	tp := make([]float64, nClasses)
	fp := make([]float64, nClasses)
	fn := make([]float64, nClasses)
	support := make([]float64, nClasses)

	for i := range actual {
		support[actual[i]]++
		if predicted[i] == actual[i] {
			tp[actual[i]]++
		} else {
			fp[predicted[i]]++
			fn[actual[i]]++
		}
	}

	total := float64(len(actual))
	var precision, recall float64
	for c := 0; c < nClasses; c++ {
		if support[c] == 0 {
			continue
		}
		w := support[c] / total
		if tp[c]+fp[c] > 0 {
			precision += w * tp[c] / (tp[c] + fp[c])
		}
		if tp[c]+fn[c] > 0 {
			recall += w * tp[c] / (tp[c] + fn[c])
		}
	}
	return precision, recall
}

func encodeLabels(labels []string) ([]string, []int) {
	index := make(map[string]int)
	classes := []string{}
	y := make([]int, len(labels))
	for i, l := range labels {
		idx, ok := index[l]
		if !ok {
			idx = len(classes)
			index[l] = idx
			classes = append(classes, l)
		}
		y[i] = idx
	}
	return classes, y
}

func anyMissing(cols []*dataframe.Column, row int) bool {
	for _, c := range cols {
		if c.Missing[row] {
			return true
		}
	}
	return false
}

func gather(X [][]float64, idx []int) [][]float64 {
	out := make([][]float64, len(idx))
	for k, i := range idx {
		out[k] = X[i]
	}
	return out
}

func gatherFloats(v []float64, idx []int) []float64 {
	out := make([]float64, len(idx))
	for k, i := range idx {
		out[k] = v[i]
	}
	return out
}

func gatherInts(v []int, idx []int) []int {
	out := make([]int, len(idx))
	for k, i := range idx {
		out[k] = v[i]
	}
	return out
}

func mean(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range v {
		sum += x
	}
	return sum / float64(len(v))
}

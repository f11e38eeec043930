package ml

import (
	"math"
	"math/rand"
	"sort"
)

// 随机森林：自助采样 + 每次分裂随机抽取部分特征的 CART 树集成
// 固定种子保证同一进程内重复训练结果一致

const (
	forestMaxDepth = 10
	forestMinSplit = 2
)

type treeNode struct {
	feature   int
	threshold float64
	left      *treeNode
	right     *treeNode
	leaf      bool
	value     float64 // 回归叶：均值；分类叶：类别下标
}

// ========== 回归森林 ==========

type regressionForest struct {
	trees []*treeNode
}

func trainRegressionForest(X [][]float64, y []float64, nTrees int, seed int64) *regressionForest {
	rng := rand.New(rand.NewSource(seed))
	nFeatures := len(X[0])
	mtry := nFeatures / 3
	if mtry < 1 {
		mtry = 1
	}

	forest := &regressionForest{trees: make([]*treeNode, 0, nTrees)}
	for t := 0; t < nTrees; t++ {
		idx := bootstrap(len(X), rng)
		forest.trees = append(forest.trees, buildRegressionTree(X, y, idx, mtry, 0, rng))
	}
	return forest
}

func (f *regressionForest) predict(row []float64) float64 {
	sum := 0.0
	for _, t := range f.trees {
		sum += predictTree(t, row)
	}
	return sum / float64(len(f.trees))
}

func buildRegressionTree(X [][]float64, y []float64, idx []int, mtry, depth int, rng *rand.Rand) *treeNode {
	if depth >= forestMaxDepth || len(idx) < forestMinSplit || constantFloats(y, idx) {
		return &treeNode{leaf: true, value: meanAt(y, idx)}
	}

	feature, threshold, ok := bestRegressionSplit(X, y, idx, mtry, rng)
	if !ok {
		return &treeNode{leaf: true, value: meanAt(y, idx)}
	}

	left, right := partition(X, idx, feature, threshold)
	if len(left) == 0 || len(right) == 0 {
		return &treeNode{leaf: true, value: meanAt(y, idx)}
	}

	return &treeNode{
		feature:   feature,
		threshold: threshold,
		left:      buildRegressionTree(X, y, left, mtry, depth+1, rng),
		right:     buildRegressionTree(X, y, right, mtry, depth+1, rng),
	}
}

// bestRegressionSplit 在随机抽取的特征子集上按 SSE 最小化选择分裂点
func bestRegressionSplit(X [][]float64, y []float64, idx []int, mtry int, rng *rand.Rand) (int, float64, bool) {
	nFeatures := len(X[0])
	features := sampleFeatures(nFeatures, mtry, rng)

	bestSSE := math.Inf(1)
	bestFeature, bestThreshold := -1, 0.0

	order := make([]int, len(idx))
	for _, f := range features {
		copy(order, idx)
		sort.Slice(order, func(a, b int) bool { return X[order[a]][f] < X[order[b]][f] })

		// 前缀和扫描，O(n) 评估所有切分点
		var sumL, sumSqL float64
		var sumR, sumSqR float64
		for _, i := range order {
			sumR += y[i]
			sumSqR += y[i] * y[i]
		}

		nL := 0
		nTotal := len(order)
		for k := 0; k < nTotal-1; k++ {
			i := order[k]
			sumL += y[i]
			sumSqL += y[i] * y[i]
			sumR -= y[i]
			sumSqR -= y[i] * y[i]
			nL++

			if X[order[k]][f] == X[order[k+1]][f] {
				continue
			}

			nR := nTotal - nL
			sse := (sumSqL - sumL*sumL/float64(nL)) + (sumSqR - sumR*sumR/float64(nR))
			if sse < bestSSE {
				bestSSE = sse
				bestFeature = f
				bestThreshold = (X[order[k]][f] + X[order[k+1]][f]) / 2
			}
		}
	}

	return bestFeature, bestThreshold, bestFeature >= 0
}

// ========== 分类森林 ==========

type classificationForest struct {
	trees    []*treeNode
	nClasses int
}

func trainClassificationForest(X [][]float64, y []int, nClasses, nTrees int, seed int64) *classificationForest {
	rng := rand.New(rand.NewSource(seed))
	nFeatures := len(X[0])
	mtry := int(math.Sqrt(float64(nFeatures)))
	if mtry < 1 {
		mtry = 1
	}

	forest := &classificationForest{nClasses: nClasses, trees: make([]*treeNode, 0, nTrees)}
	for t := 0; t < nTrees; t++ {
		idx := bootstrap(len(X), rng)
		forest.trees = append(forest.trees, buildClassificationTree(X, y, idx, nClasses, mtry, 0, rng))
	}
	return forest
}

// predict 多数投票，票数相同取下标较小的类别
func (f *classificationForest) predict(row []float64) int {
	votes := make([]int, f.nClasses)
	for _, t := range f.trees {
		votes[int(predictTree(t, row))]++
	}
	best := 0
	for c := 1; c < f.nClasses; c++ {
		if votes[c] > votes[best] {
			best = c
		}
	}
	return best
}

func buildClassificationTree(X [][]float64, y []int, idx []int, nClasses, mtry, depth int, rng *rand.Rand) *treeNode {
	if depth >= forestMaxDepth || len(idx) < forestMinSplit || constantInts(y, idx) {
		return &treeNode{leaf: true, value: float64(majorityAt(y, idx, nClasses))}
	}

	feature, threshold, ok := bestClassificationSplit(X, y, idx, nClasses, mtry, rng)
	if !ok {
		return &treeNode{leaf: true, value: float64(majorityAt(y, idx, nClasses))}
	}

	left, right := partition(X, idx, feature, threshold)
	if len(left) == 0 || len(right) == 0 {
		return &treeNode{leaf: true, value: float64(majorityAt(y, idx, nClasses))}
	}

	return &treeNode{
		feature:   feature,
		threshold: threshold,
		left:      buildClassificationTree(X, y, left, nClasses, mtry, depth+1, rng),
		right:     buildClassificationTree(X, y, right, nClasses, mtry, depth+1, rng),
	}
}

// bestClassificationSplit 按加权基尼不纯度最小化选择分裂点
func bestClassificationSplit(X [][]float64, y []int, idx []int, nClasses, mtry int, rng *rand.Rand) (int, float64, bool) {
	nFeatures := len(X[0])
	features := sampleFeatures(nFeatures, mtry, rng)

	bestGini := math.Inf(1)
	bestFeature, bestThreshold := -1, 0.0

	order := make([]int, len(idx))
	countsL := make([]float64, nClasses)
	countsR := make([]float64, nClasses)

	for _, f := range features {
		copy(order, idx)
		sort.Slice(order, func(a, b int) bool { return X[order[a]][f] < X[order[b]][f] })

		for c := range countsL {
			countsL[c] = 0
			countsR[c] = 0
		}
		for _, i := range order {
			countsR[y[i]]++
		}

		nL := 0.0
		nTotal := float64(len(order))
		for k := 0; k < len(order)-1; k++ {
			i := order[k]
			countsL[y[i]]++
			countsR[y[i]]--
			nL++

			if X[order[k]][f] == X[order[k+1]][f] {
				continue
			}

			nR := nTotal - nL
			gini := nL/nTotal*giniImpurity(countsL, nL) + nR/nTotal*giniImpurity(countsR, nR)
			if gini < bestGini {
				bestGini = gini
				bestFeature = f
				bestThreshold = (X[order[k]][f] + X[order[k+1]][f]) / 2
			}
		}
	}

	return bestFeature, bestThreshold, bestFeature >= 0
}

func giniImpurity(counts []float64, n float64) float64 {
	if n == 0 {
		return 0
	}
	g := 1.0
	for _, c := range counts {
		p := c / n
		g -= p * p
	}
	return g
}

// ========== 公共辅助 ==========

func predictTree(node *treeNode, row []float64) float64 {
	for !node.leaf {
		if row[node.feature] <= node.threshold {
			node = node.left
		} else {
			node = node.right
		}
	}
	return node.value
}

func bootstrap(n int, rng *rand.Rand) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = rng.Intn(n)
	}
	return idx
}

func sampleFeatures(nFeatures, mtry int, rng *rand.Rand) []int {
	if mtry >= nFeatures {
		features := make([]int, nFeatures)
		for i := range features {
			features[i] = i
		}
		return features
	}
	return rng.Perm(nFeatures)[:mtry]
}

func partition(X [][]float64, idx []int, feature int, threshold float64) (left, right []int) {
	for _, i := range idx {
		if X[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	return left, right
}

func meanAt(y []float64, idx []int) float64 {
	sum := 0.0
	for _, i := range idx {
		sum += y[i]
	}
	return sum / float64(len(idx))
}

func majorityAt(y []int, idx []int, nClasses int) int {
	counts := make([]int, nClasses)
	for _, i := range idx {
		counts[y[i]]++
	}
	best := 0
	for c := 1; c < nClasses; c++ {
		if counts[c] > counts[best] {
			best = c
		}
	}
	return best
}

func constantFloats(y []float64, idx []int) bool {
	for _, i := range idx[1:] {
		if y[i] != y[idx[0]] {
			return false
		}
	}
	return true
}

func constantInts(y []int, idx []int) bool {
	for _, i := range idx[1:] {
		if y[i] != y[idx[0]] {
			return false
		}
	}
	return true
}

package risk

import (
	"math"
	"math/rand"
	"sort"
)

// 隔离森林：随机划分隔离异常点，路径越短分数越高
// 固定种子保证同一数据上的重复检测结果一致

type isoNode struct {
	feature   int
	threshold float64
	left      *isoNode
	right     *isoNode
	leaf      bool
	size      int
}

type isolationForest struct {
	trees     []*isoNode
	subsample int
	rng       *rand.Rand
}

func newIsolationForest(nTrees, subsample int, seed int64) *isolationForest {
	return &isolationForest{
		trees:     make([]*isoNode, 0, nTrees),
		subsample: subsample,
		rng:       rand.New(rand.NewSource(seed)),
	}
}

func (f *isolationForest) train(X [][]float64) {
	n := len(X)
	sample := f.subsample
	if sample > n {
		sample = n
	}
	maxDepth := int(math.Ceil(math.Log2(float64(sample) + 1)))

	for t := 0; t < cap(f.trees); t++ {
		idx := f.rng.Perm(n)[:sample]
		f.trees = append(f.trees, buildIsoTree(X, idx, 0, maxDepth, f.rng))
	}
}

// flag 返回异常分数最高的前 contamination 比例的行下标（升序）
func (f *isolationForest) flag(X [][]float64, contamination float64) []int {
	n := len(X)
	k := int(math.Round(contamination * float64(n)))
	if k <= 0 {
		return nil
	}

	scores := make([]float64, n)
	for i, row := range X {
		scores[i] = f.score(row)
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	// 分数相同按行号保证确定性
	sort.Slice(order, func(a, b int) bool {
		if scores[order[a]] != scores[order[b]] {
			return scores[order[a]] > scores[order[b]]
		}
		return order[a] < order[b]
	})

	flagged := append([]int(nil), order[:k]...)
	sort.Ints(flagged)
	return flagged
}

func (f *isolationForest) score(row []float64) float64 {
	sum := 0.0
	for _, t := range f.trees {
		sum += pathLength(t, row, 0)
	}
	avg := sum / float64(len(f.trees))

	sample := f.subsample
	c := averagePathLength(float64(sample))
	if c == 0 {
		return 0
	}
	return math.Pow(2, -avg/c)
}

func buildIsoTree(X [][]float64, idx []int, depth, maxDepth int, rng *rand.Rand) *isoNode {
	if depth >= maxDepth || len(idx) <= 1 {
		return &isoNode{leaf: true, size: len(idx)}
	}

	nFeatures := len(X[0])
	feature := rng.Intn(nFeatures)

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, i := range idx {
		v := X[i][feature]
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if lo == hi {
		return &isoNode{leaf: true, size: len(idx)}
	}

	threshold := lo + rng.Float64()*(hi-lo)

	var left, right []int
	for _, i := range idx {
		if X[i][feature] < threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	return &isoNode{
		feature:   feature,
		threshold: threshold,
		left:      buildIsoTree(X, left, depth+1, maxDepth, rng),
		right:     buildIsoTree(X, right, depth+1, maxDepth, rng),
	}
}

func pathLength(node *isoNode, row []float64, depth float64) float64 {
	if node.leaf {
		return depth + averagePathLength(float64(node.size))
	}
	if row[node.feature] < node.threshold {
		return pathLength(node.left, row, depth+1)
	}
	return pathLength(node.right, row, depth+1)
}

// averagePathLength 二叉搜索失败查找的平均路径长度 c(n)
func averagePathLength(n float64) float64 {
	if n <= 1 {
		return 0
	}
	return 2*(math.Log(n-1)+0.5772156649) - 2*(n-1)/n
}

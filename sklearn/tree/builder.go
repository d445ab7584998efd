package tree

import (
	"math"
	"math/rand/v2"
	"sort"
)

// Split criteria.
const (
	CriterionSquaredError = "squared_error"
	CriterionFriedmanMSE  = "friedman_mse"
)

// Node is a node of a binary regression tree. Samples with
// x[Feature] <= Threshold go left.
type Node struct {
	Leaf      bool
	Feature   int
	Threshold float64
	Value     float64
	NSamples  int
	Left      *Node
	Right     *Node
}

// Predict walks the tree for a single sample.
func (n *Node) Predict(x []float64) float64 {
	node := n
	for !node.Leaf {
		if x[node.Feature] <= node.Threshold {
			node = node.Left
		} else {
			node = node.Right
		}
	}
	return node.Value
}

// Depth returns the depth of the deepest leaf (a single leaf has depth 0).
func (n *Node) Depth() int {
	if n.Leaf {
		return 0
	}
	l, r := n.Left.Depth(), n.Right.Depth()
	if l > r {
		return l + 1
	}
	return r + 1
}

// Leaves counts leaf nodes.
func (n *Node) Leaves() int {
	if n.Leaf {
		return 1
	}
	return n.Left.Leaves() + n.Right.Leaves()
}

// Builder grows CART regression trees with exhaustive threshold search.
// MaxDepth <= 0 means unlimited; MaxFeatures <= 0 means all features.
type Builder struct {
	Criterion       string
	MaxDepth        int
	MinSamplesSplit int
	MinSamplesLeaf  int
	MaxFeatures     int
}

// Build grows a tree on the rows of X at idx. rng is only consulted when
// MaxFeatures restricts the candidate features.
func (b Builder) Build(X [][]float64, y []float64, idx []int, rng *rand.Rand) *Node {
	idx = append([]int(nil), idx...)
	return b.grow(X, y, idx, 0, rng)
}

func (b Builder) grow(X [][]float64, y []float64, idx []int, depth int, rng *rand.Rand) *Node {
	n := len(idx)
	var sum float64
	for _, i := range idx {
		sum += y[i]
	}
	leaf := &Node{Leaf: true, Value: sum / float64(n), NSamples: n}

	if b.MaxDepth > 0 && depth >= b.MaxDepth {
		return leaf
	}
	minSplit := b.MinSamplesSplit
	if minSplit < 2 {
		minSplit = 2
	}
	if n < minSplit || n < 2*b.minLeaf() {
		return leaf
	}

	feature, threshold, ok := b.bestSplit(X, y, idx, sum, rng)
	if !ok {
		return leaf
	}

	var left, right []int
	for _, i := range idx {
		if X[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	return &Node{
		Feature:   feature,
		Threshold: threshold,
		Value:     leaf.Value,
		NSamples:  n,
		Left:      b.grow(X, y, left, depth+1, rng),
		Right:     b.grow(X, y, right, depth+1, rng),
	}
}

func (b Builder) minLeaf() int {
	if b.MinSamplesLeaf < 1 {
		return 1
	}
	return b.MinSamplesLeaf
}

func (b Builder) candidateFeatures(p int, rng *rand.Rand) []int {
	if b.MaxFeatures <= 0 || b.MaxFeatures >= p || rng == nil {
		feats := make([]int, p)
		for j := range feats {
			feats[j] = j
		}
		return feats
	}
	feats := rng.Perm(p)[:b.MaxFeatures]
	sort.Ints(feats)
	return feats
}

// bestSplit scans every feature and every midpoint between distinct sorted
// values. The first candidate with the strictly highest score wins.
func (b Builder) bestSplit(X [][]float64, y []float64, idx []int, total float64, rng *rand.Rand) (int, float64, bool) {
	n := len(idx)
	minLeaf := b.minLeaf()
	parent := total * total / float64(n)

	bestScore := math.Inf(-1)
	bestFeature, bestThreshold := -1, 0.0

	order := make([]int, n)
	for _, f := range b.candidateFeatures(len(X[idx[0]]), rng) {
		copy(order, idx)
		sort.SliceStable(order, func(a, c int) bool { return X[order[a]][f] < X[order[c]][f] })

		var leftSum float64
		for k := 0; k < n-1; k++ {
			leftSum += y[order[k]]
			nl := k + 1
			nr := n - nl
			lo, hi := X[order[k]][f], X[order[k+1]][f]
			if lo == hi || nl < minLeaf || nr < minLeaf {
				continue
			}
			rightSum := total - leftSum

			var score float64
			if b.Criterion == CriterionFriedmanMSE {
				diff := leftSum/float64(nl) - rightSum/float64(nr)
				score = float64(nl) * float64(nr) / float64(n) * diff * diff
			} else {
				// SSE の減少量
				score = leftSum*leftSum/float64(nl) + rightSum*rightSum/float64(nr) - parent
			}
			if score > bestScore {
				bestScore = score
				bestFeature = f
				bestThreshold = lo + (hi-lo)/2
				if bestThreshold == hi {
					bestThreshold = lo
				}
			}
		}
	}

	if bestFeature < 0 || bestScore <= 1e-12 {
		return 0, 0, false
	}
	return bestFeature, bestThreshold, true
}

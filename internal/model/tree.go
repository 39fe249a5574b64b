package model

import (
	"cmp"
	"slices"

	"github.com/couchcryptid/blood-donation-forecast/internal/domain"
)

// TreeConfig bounds the growth of a regression tree.
type TreeConfig struct {
	MaxDepth        int `json:"max_depth"`
	MinSamplesSplit int `json:"min_samples_split"`
	MinSamplesLeaf  int `json:"min_samples_leaf"`
	// MaxFeatures is the number of features tried per split. Zero tries all.
	MaxFeatures int `json:"max_features,omitempty"`
}

func (c TreeConfig) withDefaults() TreeConfig {
	if c.MaxDepth <= 0 {
		c.MaxDepth = 3
	}
	if c.MinSamplesSplit < 2 {
		c.MinSamplesSplit = 2
	}
	if c.MinSamplesLeaf < 1 {
		c.MinSamplesLeaf = 1
	}
	return c
}

// TreeNode is a node of a flattened tree. Leaves have Feature == -1.
type TreeNode struct {
	Feature   int     `json:"f"`
	Threshold float64 `json:"t,omitempty"`
	Left      int     `json:"l,omitempty"`
	Right     int     `json:"r,omitempty"`
	Value     float64 `json:"v"`
}

// Tree is a CART regression tree stored as a flat node slice rooted at 0.
type Tree struct {
	Nodes []TreeNode `json:"nodes"`
}

// predict walks one row to its leaf.
func (t *Tree) predict(row []float64) float64 {
	n := t.Nodes[0]
	for n.Feature >= 0 {
		if row[n.Feature] <= n.Threshold {
			n = t.Nodes[n.Left]
		} else {
			n = t.Nodes[n.Right]
		}
	}
	return n.Value
}

// treeBuilder grows a tree by greedy squared-error splits.
type treeBuilder struct {
	X    [][]float64
	y    []float64
	cfg  TreeConfig
	rng  *domain.RandomSource // feature subsampling; nil when MaxFeatures is 0
	tree *Tree
	// gain accumulates the total squared-error reduction per feature.
	gain []float64
}

// growTree fits a tree on the rows in idx. idx may contain repeats.
func growTree(X [][]float64, y []float64, idx []int, cfg TreeConfig, rng *domain.RandomSource) (*Tree, []float64) {
	b := &treeBuilder{
		X:    X,
		y:    y,
		cfg:  cfg.withDefaults(),
		rng:  rng,
		tree: &Tree{},
		gain: make([]float64, len(X[0])),
	}
	b.grow(slices.Clone(idx), 0)
	return b.tree, b.gain
}

type split struct {
	feature   int
	threshold float64
	gain      float64
	pos       int // rows [0,pos) of the sorted order go left
}

func (b *treeBuilder) grow(idx []int, depth int) int {
	var sum float64
	for _, i := range idx {
		sum += b.y[i]
	}
	node := len(b.tree.Nodes)
	b.tree.Nodes = append(b.tree.Nodes, TreeNode{Feature: -1, Value: sum / float64(len(idx))})

	if depth >= b.cfg.MaxDepth || len(idx) < b.cfg.MinSamplesSplit || len(idx) < 2*b.cfg.MinSamplesLeaf {
		return node
	}

	best, ok := b.bestSplit(idx, sum)
	if !ok {
		return node
	}

	slices.SortFunc(idx, b.byFeature(best.feature))
	left := b.grow(idx[:best.pos], depth+1)
	right := b.grow(idx[best.pos:], depth+1)
	b.gain[best.feature] += best.gain
	b.tree.Nodes[node] = TreeNode{
		Feature:   best.feature,
		Threshold: best.threshold,
		Left:      left,
		Right:     right,
		Value:     b.tree.Nodes[node].Value,
	}
	return node
}

func (b *treeBuilder) byFeature(f int) func(a, c int) int {
	return func(a, c int) int { return cmp.Compare(b.X[a][f], b.X[c][f]) }
}

// bestSplit scans every candidate feature for the threshold that maximizes
// L²/nl + R²/nr − S²/n, the reduction in squared error.
func (b *treeBuilder) bestSplit(idx []int, sum float64) (split, bool) {
	n := len(idx)
	base := sum * sum / float64(n)
	best := split{gain: minGain}
	found := false

	sorted := make([]int, n)
	for _, f := range b.features() {
		copy(sorted, idx)
		slices.SortFunc(sorted, b.byFeature(f))

		var left float64
		for k := 1; k < n; k++ {
			left += b.y[sorted[k-1]]
			if k < b.cfg.MinSamplesLeaf || n-k < b.cfg.MinSamplesLeaf {
				continue
			}
			lo, hi := b.X[sorted[k-1]][f], b.X[sorted[k]][f]
			if lo == hi {
				continue
			}
			right := sum - left
			gain := left*left/float64(k) + right*right/float64(n-k) - base
			if gain > best.gain {
				best = split{feature: f, threshold: (lo + hi) / 2, gain: gain, pos: k}
				found = true
			}
		}
	}
	return best, found
}

// minGain rejects splits that only reduce error by rounding noise.
const minGain = 1e-10

func (b *treeBuilder) features() []int {
	p := len(b.gain)
	if b.cfg.MaxFeatures <= 0 || b.cfg.MaxFeatures >= p || b.rng == nil {
		all := make([]int, p)
		for j := range all {
			all[j] = j
		}
		return all
	}
	return b.rng.Perm(p)[:b.cfg.MaxFeatures]
}

// normalize scales w to sum to 1 in place. All-zero input is left as is.
func normalize(w []float64) []float64 {
	var total float64
	for _, v := range w {
		total += v
	}
	if total <= 0 {
		return w
	}
	for i := range w {
		w[i] /= total
	}
	return w
}

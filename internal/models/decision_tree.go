package models

import (
	"math"
	"sort"
)

// TreeNode is a node of a boosted regression tree. Numeric splits send
// x <= Threshold left. Categorical splits look the value up in Categories
// (true = left); values unseen during training follow UnknownLeft.
type TreeNode struct {
	Feature     int
	Threshold   float64
	Categorical bool
	Categories  map[string]bool
	UnknownLeft bool
	Left        *TreeNode
	Right       *TreeNode
	IsLeaf      bool
	Value       float64
}

func (n *TreeNode) predict(x Row) float64 {
	for n != nil && !n.IsLeaf {
		var left bool
		if n.Categorical {
			in, seen := n.Categories[x[n.Feature].Text]
			if seen {
				left = in
			} else {
				left = n.UnknownLeft
			}
		} else {
			left = x[n.Feature].Num <= n.Threshold
		}
		if left {
			n = n.Left
		} else {
			n = n.Right
		}
	}
	if n == nil {
		return 0
	}
	return n.Value
}

func (n *TreeNode) splits() int {
	if n == nil || n.IsLeaf {
		return 0
	}
	return 1 + n.Left.splits() + n.Right.splits()
}

type treeParams struct {
	MaxDepth       int
	MinSamplesLeaf int
	Lambda         float64
	Shrinkage      float64
}

// treeBuilder grows one second-order regression tree over the gradients and
// hessians of the current boosting round.
type treeBuilder struct {
	X        []Row
	features []Feature
	grad     []float64
	hess     []float64
	params   treeParams
	gain     []float64
}

type split struct {
	feature     int
	threshold   float64
	categorical bool
	categories  map[string]bool
	unknownLeft bool
	gain        float64
}

const minSplitGain = 1e-12

func (b *treeBuilder) score(g, h float64) float64 { return g * g / (h + b.params.Lambda) }

func (b *treeBuilder) build(idx []int, depth int) *TreeNode {
	var G, H float64
	for _, i := range idx {
		G += b.grad[i]
		H += b.hess[i]
	}
	leaf := &TreeNode{IsLeaf: true, Value: -b.params.Shrinkage * G / (H + b.params.Lambda)}
	if depth >= b.params.MaxDepth || len(idx) < 2*b.minLeaf() {
		return leaf
	}

	var best *split
	for f, feat := range b.features {
		var s *split
		if feat.Categorical {
			s = b.categoricalSplit(f, idx, G, H)
		} else {
			s = b.numericSplit(f, idx, G, H)
		}
		if s != nil && (best == nil || s.gain > best.gain) {
			best = s
		}
	}
	if best == nil {
		return leaf
	}

	b.gain[best.feature] += best.gain
	lIdx, rIdx := b.partition(idx, best)
	return &TreeNode{
		Feature:     best.feature,
		Threshold:   best.threshold,
		Categorical: best.categorical,
		Categories:  best.categories,
		UnknownLeft: best.unknownLeft,
		Left:        b.build(lIdx, depth+1),
		Right:       b.build(rIdx, depth+1),
	}
}

func (b *treeBuilder) minLeaf() int {
	if b.params.MinSamplesLeaf < 1 {
		return 1
	}
	return b.params.MinSamplesLeaf
}

func (b *treeBuilder) numericSplit(f int, idx []int, G, H float64) *split {
	order := append([]int(nil), idx...)
	sort.SliceStable(order, func(i, j int) bool { return b.X[order[i]][f].Num < b.X[order[j]][f].Num })
	parent := b.score(G, H)
	minLeaf := b.minLeaf()

	var best *split
	var gl, hl float64
	for k := 0; k < len(order)-1; k++ {
		i := order[k]
		gl += b.grad[i]
		hl += b.hess[i]
		cur, next := b.X[i][f].Num, b.X[order[k+1]][f].Num
		if cur == next {
			continue
		}
		if k+1 < minLeaf || len(order)-k-1 < minLeaf {
			continue
		}
		gain := b.score(gl, hl) + b.score(G-gl, H-hl) - parent
		if gain > minSplitGain && (best == nil || gain > best.gain) {
			best = &split{feature: f, threshold: (cur + next) / 2, gain: gain}
		}
	}
	return best
}

type categoryStat struct {
	name string
	g, h float64
	n    int
}

// categoricalSplit orders categories by their optimal leaf weight and scans
// the prefixes of that ordering, which finds the best binary partition for a
// convex loss without enumerating subsets.
func (b *treeBuilder) categoricalSplit(f int, idx []int, G, H float64) *split {
	byName := map[string]*categoryStat{}
	for _, i := range idx {
		name := b.X[i][f].Text
		st, ok := byName[name]
		if !ok {
			st = &categoryStat{name: name}
			byName[name] = st
		}
		st.g += b.grad[i]
		st.h += b.hess[i]
		st.n++
	}
	if len(byName) < 2 {
		return nil
	}
	stats := make([]*categoryStat, 0, len(byName))
	for _, st := range byName {
		stats = append(stats, st)
	}
	sort.Slice(stats, func(i, j int) bool {
		wi := stats[i].g / (stats[i].h + b.params.Lambda)
		wj := stats[j].g / (stats[j].h + b.params.Lambda)
		if wi != wj {
			return wi < wj
		}
		return stats[i].name < stats[j].name
	})

	parent := b.score(G, H)
	minLeaf := b.minLeaf()
	bestK, bestGain := -1, math.Inf(-1)
	var bestHL float64
	var gl, hl float64
	nl := 0
	for k := 0; k < len(stats)-1; k++ {
		gl += stats[k].g
		hl += stats[k].h
		nl += stats[k].n
		if nl < minLeaf || len(idx)-nl < minLeaf {
			continue
		}
		gain := b.score(gl, hl) + b.score(G-gl, H-hl) - parent
		if gain > minSplitGain && gain > bestGain {
			bestK, bestGain, bestHL = k, gain, hl
		}
	}
	if bestK < 0 {
		return nil
	}
	cats := make(map[string]bool, len(stats))
	for k, st := range stats {
		cats[st.name] = k <= bestK
	}
	return &split{
		feature:     f,
		categorical: true,
		categories:  cats,
		unknownLeft: bestHL >= H-bestHL,
		gain:        bestGain,
	}
}

func (b *treeBuilder) partition(idx []int, s *split) ([]int, []int) {
	l := make([]int, 0, len(idx))
	r := make([]int, 0, len(idx))
	for _, i := range idx {
		var left bool
		if s.categorical {
			left = s.categories[b.X[i][s.feature].Text]
		} else {
			left = b.X[i][s.feature].Num <= s.threshold
		}
		if left {
			l = append(l, i)
		} else {
			r = append(r, i)
		}
	}
	return l, r
}

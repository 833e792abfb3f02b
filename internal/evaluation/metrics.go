// Package evaluation scores binary classifiers and prepares holdout splits.
package evaluation

import (
	"math"
	"sort"
)

const epsilon = 1e-15

func Accuracy(y, p []int) float64 {
	if len(y) == 0 {
		return 0
	}
	c := 0
	for i := range y {
		if y[i] == p[i] {
			c++
		}
	}
	return float64(c) / float64(len(y))
}

// ProbaToPred thresholds positive-class probabilities into labels.
func ProbaToPred(ps []float64, thr float64) []int {
	out := make([]int, len(ps))
	for i := range ps {
		if ps[i] >= thr {
			out[i] = 1
		}
	}
	return out
}

func Confusion(y []int, ps []float64, thr float64) (tp, fp, tn, fn int) {
	for i := range y {
		pred := 0
		if ps[i] >= thr {
			pred = 1
		}
		switch {
		case pred == 1 && y[i] == 1:
			tp++
		case pred == 1 && y[i] == 0:
			fp++
		case pred == 0 && y[i] == 0:
			tn++
		default:
			fn++
		}
	}
	return
}

func PRF1(y []int, ps []float64, thr float64) (precision, recall, f1 float64) {
	tp, fp, _, fn := Confusion(y, ps, thr)
	if tp+fp > 0 {
		precision = float64(tp) / float64(tp+fp)
	}
	if tp+fn > 0 {
		recall = float64(tp) / float64(tp+fn)
	}
	if precision+recall > 0 {
		f1 = 2 * precision * recall / (precision + recall)
	}
	return
}

type scored struct {
	s float64
	y int
}

func sortedByScore(y []int, ps []float64) []scored {
	pairs := make([]scored, len(y))
	for i := range y {
		pairs[i] = scored{ps[i], y[i]}
	}
	sort.SliceStable(pairs, func(i, j int) bool { return pairs[i].s > pairs[j].s })
	return pairs
}

// ROCAUC returns 0 when only one class is present.
func ROCAUC(y []int, ps []float64) float64 {
	pairs := sortedByScore(y, ps)
	var pos, neg int
	for _, p := range pairs {
		if p.y == 1 {
			pos++
		} else {
			neg++
		}
	}
	if pos == 0 || neg == 0 {
		return 0
	}
	tp, fp := 0, 0
	prevS := math.Inf(1)
	var auc, prevTPR, prevFPR float64
	for _, p := range pairs {
		if p.s != prevS {
			tpr := float64(tp) / float64(pos)
			fpr := float64(fp) / float64(neg)
			auc += (fpr - prevFPR) * (tpr + prevTPR) / 2.0
			prevTPR, prevFPR = tpr, fpr
			prevS = p.s
		}
		if p.y == 1 {
			tp++
		} else {
			fp++
		}
	}
	auc += (1 - prevFPR) * (1 + prevTPR) / 2.0
	return auc
}

// PRAUC is the step-wise area under the precision-recall curve. Tied scores
// form a single threshold, so the result does not depend on input order.
func PRAUC(y []int, ps []float64) float64 {
	pairs := sortedByScore(y, ps)
	pos := 0
	for _, p := range pairs {
		pos += p.y
	}
	if pos == 0 {
		return 0
	}
	var tp, fp int
	var prevRec, auc float64
	for k := 0; k < len(pairs); {
		s := pairs[k].s
		for ; k < len(pairs) && pairs[k].s == s; k++ {
			if pairs[k].y == 1 {
				tp++
			} else {
				fp++
			}
		}
		prec := float64(tp) / float64(tp+fp)
		rec := float64(tp) / float64(pos)
		auc += (rec - prevRec) * prec
		prevRec = rec
	}
	return auc
}

// LogLoss is the mean binary cross-entropy of positive-class probabilities.
func LogLoss(y []int, ps []float64) float64 {
	if len(y) == 0 {
		return 0
	}
	var sum float64
	for i := range y {
		p := math.Min(math.Max(ps[i], epsilon), 1-epsilon)
		if y[i] == 1 {
			sum -= math.Log(p)
		} else {
			sum -= math.Log(1 - p)
		}
	}
	return sum / float64(len(y))
}

// BestThresholdF1 sweeps thresholds in [0,1] and keeps the one with the highest F1.
func BestThresholdF1(y []int, ps []float64) (thr float64, best float64) {
	if len(ps) == 0 {
		return 0.5, 0
	}
	steps := 200
	best = -1
	thr = 0.5
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		_, _, f1 := PRF1(y, ps, t)
		if f1 > best {
			best = f1
			thr = t
		}
	}
	return
}

package models

import (
	"errors"
	"fmt"
	"math"

	"attrition/internal/evaluation"
)

// GradientBoosting is a log-loss gradient boosted ensemble of regression
// trees that splits categorical columns natively.
type GradientBoosting struct {
	NEstimators         int
	LearningRate        float64
	MaxDepth            int
	MinSamplesLeaf      int
	L2Reg               float64
	EarlyStoppingRounds int
	BalancedWeights     bool

	Features  []Feature
	Bias      float64
	Trees     []*TreeNode
	Gain      []float64
	TrainLoss []float64
	EvalLoss  []float64
}

// NewGradientBoosting returns an untrained model over the given columns.
func NewGradientBoosting(features []Feature) *GradientBoosting {
	return &GradientBoosting{
		NEstimators:         2000,
		LearningRate:        0.05,
		MaxDepth:            6,
		MinSamplesLeaf:      1,
		L2Reg:               3,
		EarlyStoppingRounds: 200,
		BalancedWeights:     true,
		Features:            append([]Feature(nil), features...),
	}
}

func (gb *GradientBoosting) Name() string { return "GradientBoosting" }

func sigmoid(z float64) float64 { return 1.0 / (1.0 + math.Exp(-z)) }

// Columns returns a copy of the model's input columns.
func (gb *GradientBoosting) Columns() []Feature {
	return append([]Feature(nil), gb.Features...)
}

// NumSplits counts internal nodes across all trees.
func (gb *GradientBoosting) NumSplits() int {
	n := 0
	for _, t := range gb.Trees {
		n += t.splits()
	}
	return n
}

func (gb *GradientBoosting) checkRow(x Row) error {
	if len(x) != len(gb.Features) {
		return fmt.Errorf("row has %d columns, model expects %d", len(x), len(gb.Features))
	}
	return nil
}

func (gb *GradientBoosting) raw(x Row) float64 {
	f := gb.Bias
	for _, t := range gb.Trees {
		f += t.predict(x)
	}
	return f
}

func (gb *GradientBoosting) PredictProba(x Row) ([2]float64, error) {
	if err := gb.checkRow(x); err != nil {
		return [2]float64{}, err
	}
	p := sigmoid(gb.raw(x))
	return [2]float64{1 - p, p}, nil
}

func (gb *GradientBoosting) PredictLabel(x Row) (int, error) {
	if err := gb.checkRow(x); err != nil {
		return 0, err
	}
	if gb.raw(x) > 0 {
		return 1, nil
	}
	return 0, nil
}

// FeatureImportance reports each column's share of the total split gain,
// scaled so the scores sum to 100.
func (gb *GradientBoosting) FeatureImportance() (map[string]float64, error) {
	total := 0.0
	for _, g := range gb.Gain {
		total += g
	}
	if total <= 0 || len(gb.Gain) != len(gb.Features) {
		return nil, ErrImportanceUnavailable
	}
	out := make(map[string]float64, len(gb.Features))
	for i, f := range gb.Features {
		out[f.Name] = 100 * gb.Gain[i] / total
	}
	return out, nil
}

func (gb *GradientBoosting) Fit(X []Row, y []int, evalX []Row, evalY []int) error {
	n := len(X)
	if n == 0 {
		return errors.New("empty training set")
	}
	if n != len(y) {
		return fmt.Errorf("%d rows but %d labels", n, len(y))
	}
	if len(evalX) != len(evalY) {
		return fmt.Errorf("%d eval rows but %d eval labels", len(evalX), len(evalY))
	}
	for _, set := range [][]Row{X, evalX} {
		for _, x := range set {
			if err := gb.checkRow(x); err != nil {
				return err
			}
		}
	}
	for _, set := range [][]int{y, evalY} {
		for _, v := range set {
			if v != 0 && v != 1 {
				return fmt.Errorf("label %d is not binary", v)
			}
		}
	}

	w := classWeights(y, gb.BalancedWeights)
	var posW, totW float64
	for i := range y {
		totW += w[i]
		if y[i] == 1 {
			posW += w[i]
		}
	}
	base := posW / totW
	if base <= 1e-3 {
		base = 1e-3
	}
	if base >= 1-1e-3 {
		base = 1 - 1e-3
	}
	gb.Bias = math.Log(base / (1.0 - base))
	gb.Trees = nil
	gb.TrainLoss = nil
	gb.EvalLoss = nil

	F := make([]float64, n)
	for i := range F {
		F[i] = gb.Bias
	}
	Fe := make([]float64, len(evalX))
	for i := range Fe {
		Fe[i] = gb.Bias
	}
	all := make([]int, n)
	for i := range all {
		all[i] = i
	}

	grad := make([]float64, n)
	hess := make([]float64, n)
	treeGains := [][]float64{}
	bestLoss, bestIter := math.Inf(1), 0
	for m := 0; m < gb.NEstimators; m++ {
		for i := 0; i < n; i++ {
			p := sigmoid(F[i])
			grad[i] = w[i] * (p - float64(y[i]))
			hess[i] = math.Max(w[i]*p*(1-p), 1e-16)
		}
		b := &treeBuilder{
			X:        X,
			features: gb.Features,
			grad:     grad,
			hess:     hess,
			params: treeParams{
				MaxDepth:       gb.MaxDepth,
				MinSamplesLeaf: gb.MinSamplesLeaf,
				Lambda:         gb.L2Reg,
				Shrinkage:      gb.LearningRate,
			},
			gain: make([]float64, len(gb.Features)),
		}
		tree := b.build(all, 0)
		if tree.IsLeaf && math.Abs(tree.Value) < 1e-12 {
			break
		}
		gb.Trees = append(gb.Trees, tree)
		treeGains = append(treeGains, b.gain)

		for i := range X {
			F[i] += tree.predict(X[i])
		}
		gb.TrainLoss = append(gb.TrainLoss, evaluation.LogLoss(y, sigmoidAll(F)))
		if len(evalX) == 0 {
			continue
		}
		for i := range evalX {
			Fe[i] += tree.predict(evalX[i])
		}
		loss := evaluation.LogLoss(evalY, sigmoidAll(Fe))
		gb.EvalLoss = append(gb.EvalLoss, loss)
		if loss < bestLoss {
			bestLoss, bestIter = loss, m+1
		} else if gb.EarlyStoppingRounds > 0 && m+1-bestIter >= gb.EarlyStoppingRounds {
			break
		}
	}
	if len(evalX) > 0 && bestIter > 0 {
		gb.Trees = gb.Trees[:bestIter]
		treeGains = treeGains[:bestIter]
	}

	gb.Gain = make([]float64, len(gb.Features))
	for _, tg := range treeGains {
		for f, g := range tg {
			gb.Gain[f] += g
		}
	}
	return nil
}

// BestIteration is the number of trees kept after early stopping.
func (gb *GradientBoosting) BestIteration() int { return len(gb.Trees) }

func sigmoidAll(F []float64) []float64 {
	out := make([]float64, len(F))
	for i, f := range F {
		out[i] = sigmoid(f)
	}
	return out
}

// classWeights gives every sample weight 1, or n/(2*n_class) when balanced.
func classWeights(y []int, balanced bool) []float64 {
	w := make([]float64, len(y))
	var pos int
	for _, v := range y {
		if v == 1 {
			pos++
		}
	}
	neg := len(y) - pos
	for i, v := range y {
		w[i] = 1
		if !balanced || pos == 0 || neg == 0 {
			continue
		}
		if v == 1 {
			w[i] = float64(len(y)) / (2 * float64(pos))
		} else {
			w[i] = float64(len(y)) / (2 * float64(neg))
		}
	}
	return w
}

package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"attrition/internal/data"
	"attrition/internal/evaluation"
	"attrition/internal/features"
	"attrition/internal/models"
	"attrition/pkg/utils"
)

// Survey exports are looked up in this order when --data is not given.
var candidateCSVs = []string{
	"../Workplace Dynamics & Career Sentiment Survey 2026(1-35).csv",
	"../survey_data.csv",
	"survey_data.csv",
}

const splitSeed = 42

var rootCmd = &cobra.Command{
	Use:          "attrition-trainer",
	Short:        "Trains the attrition model from a survey export and saves the bundle",
	SilenceUsage: true,
	RunE: func(_ *cobra.Command, _ []string) error {
		return train(utils.Logger())
	},
}

func init() {
	f := rootCmd.Flags()
	f.String("data", "", "survey CSV (default: first of the known export locations)")
	f.Int("synthetic", 0, "generate this many synthetic responses into data/synthetic_survey.csv and train on them")
	f.String("out", "model/attrition_model.gob", "bundle output path")
	f.Int("iterations", 2000, "maximum boosting rounds")
	f.Float64("lr", 0.05, "learning rate")
	f.Int("depth", 6, "maximum tree depth")
	f.Int("min-samples-leaf", 1, "minimum samples per leaf")
	f.Float64("l2", 3, "L2 regularization of leaf weights")
	f.Int("early-stopping", 200, "stop after this many rounds without validation log-loss improvement")
	f.Bool("balanced", true, "weight classes inversely to their frequency")
	f.String("curve-out", "model/training_curve.png", "training curve PNG (empty to skip)")
	f.String("curve-csv", "model/training_curve.csv", "training curve CSV (empty to skip)")
	f.String("importance-out", "model/feature_importance.png", "feature importance PNG (empty to skip)")

	_ = viper.BindPFlags(f)
	viper.SetEnvPrefix("ATTRITION_TRAIN")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func resolveCSV(logger *zap.Logger) (string, error) {
	if n := viper.GetInt("synthetic"); n > 0 {
		path := "data/synthetic_survey.csv"
		logger.Info("generating synthetic survey", zap.Int("n", n), zap.String("out", path))
		if err := data.GenerateSyntheticSurvey(n, splitSeed, path); err != nil {
			return "", fmt.Errorf("generate synthetic survey: %w", err)
		}
		return path, nil
	}
	if p := viper.GetString("data"); p != "" {
		return p, nil
	}
	for _, p := range candidateCSVs {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", errors.New("could not find the survey CSV; pass --data or --synthetic")
}

func train(logger *zap.Logger) error {
	defer func() { _ = logger.Sync() }()

	path, err := resolveCSV(logger)
	if err != nil {
		return err
	}
	rs, err := data.ReadSurveyCSV(path)
	if err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	logger.Info("loaded survey", zap.String("path", path), zap.Int("rows", len(rs)))

	y := data.Labels(rs)
	tempIdx, testIdx := evaluation.StratifiedSplit(y, 0.2, splitSeed)
	trainPos, valPos := evaluation.StratifiedSplit(pick(y, tempIdx), 0.2, splitSeed)
	trainIdx, valIdx := pick(tempIdx, trainPos), pick(tempIdx, valPos)
	logger.Info("dataset split complete", zap.Int("train", len(trainIdx)), zap.Int("val", len(valIdx)), zap.Int("test", len(testIdx)))
	for name, idx := range map[string][]int{"train": trainIdx, "val": valIdx, "test": testIdx} {
		pos, neg := classCounts(pick(y, idx))
		logger.Info("class distribution", zap.String("set", name), zap.Int("leave", pos), zap.Int("stay", neg))
	}

	order := data.FeatureColumns
	X, err := features.Rows(rs, order)
	if err != nil {
		return err
	}

	gb := models.NewGradientBoosting(features.ModelFeatures())
	gb.NEstimators = viper.GetInt("iterations")
	gb.LearningRate = viper.GetFloat64("lr")
	gb.MaxDepth = viper.GetInt("depth")
	gb.MinSamplesLeaf = viper.GetInt("min-samples-leaf")
	gb.L2Reg = viper.GetFloat64("l2")
	gb.EarlyStoppingRounds = viper.GetInt("early-stopping")
	gb.BalancedWeights = viper.GetBool("balanced")
	var model models.Trainer = gb
	if err := model.Fit(pick(X, trainIdx), pick(y, trainIdx), pick(X, valIdx), pick(y, valIdx)); err != nil {
		return fmt.Errorf("fit: %w", err)
	}
	logger.Info("model trained", zap.String("model", model.Name()), zap.Int("trees", gb.BestIteration()), zap.Int("splits", gb.NumSplits()))

	Xtest, ytest := pick(X, testIdx), pick(y, testIdx)
	proba, preds, err := score(model, Xtest)
	if err != nil {
		return err
	}
	_, _, f1 := evaluation.PRF1(ytest, proba, 0.5)
	logger.Info("test set performance",
		zap.Float64("accuracy", evaluation.Accuracy(ytest, preds)),
		zap.Float64("f1", f1),
		zap.Float64("roc_auc", evaluation.ROCAUC(ytest, proba)),
		zap.Float64("pr_auc", evaluation.PRAUC(ytest, proba)),
		zap.Float64("log_loss", evaluation.LogLoss(ytest, proba)),
	)

	out := viper.GetString("out")
	bundle := &models.Bundle{
		Model:               model,
		CategoricalFeatures: data.CategoricalColumns,
		FeatureOrder:        order,
	}
	if err := models.SaveBundle(out, bundle); err != nil {
		return fmt.Errorf("save bundle: %w", err)
	}
	logger.Info("model saved", zap.String("path", out))

	if p := viper.GetString("curve-csv"); p != "" {
		if err := writeCurveCSV(p, gb.TrainLoss, gb.EvalLoss); err != nil {
			logger.Warn("failed to save training curve CSV", zap.Error(err))
		}
	}
	if p := viper.GetString("curve-out"); p != "" {
		if err := plotCurvePNG(p, gb.TrainLoss, gb.EvalLoss, gb.BestIteration()); err != nil {
			logger.Warn("failed to save training curve PNG", zap.Error(err))
		} else {
			logger.Info("training curve written", zap.String("png", p))
		}
	}
	if p := viper.GetString("importance-out"); p != "" {
		imp, err := gb.FeatureImportance()
		if err != nil {
			logger.Warn("no feature importance to plot", zap.Error(err))
		} else if err := plotImportancePNG(p, order, imp); err != nil {
			logger.Warn("failed to save feature importance PNG", zap.Error(err))
		}
	}
	return nil
}

// score returns P(leave) and the predicted label for every row.
func score(c models.Classifier, X []models.Row) ([]float64, []int, error) {
	proba := make([]float64, len(X))
	preds := make([]int, len(X))
	for i, x := range X {
		p, err := c.PredictProba(x)
		if err != nil {
			return nil, nil, fmt.Errorf("row %d: %w", i, err)
		}
		proba[i] = p[1]
		if preds[i], err = c.PredictLabel(x); err != nil {
			return nil, nil, fmt.Errorf("row %d: %w", i, err)
		}
	}
	return proba, preds, nil
}

func pick[T any](xs []T, idx []int) []T {
	out := make([]T, len(idx))
	for i, j := range idx {
		out[i] = xs[j]
	}
	return out
}

func classCounts(y []int) (pos, neg int) {
	for _, v := range y {
		if v == 1 {
			pos++
		} else {
			neg++
		}
	}
	return
}

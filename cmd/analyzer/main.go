package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"attrition/internal/data"
	"attrition/internal/evaluation"
	"attrition/internal/features"
	"attrition/internal/models"
	"attrition/pkg/utils"
)

var (
	modelPath string
	dataPath  string
	points    int
	outImg    string
	outCsv    string
)

var rootCmd = &cobra.Command{
	Use:          "attrition-analyzer",
	Short:        "Scores a saved bundle against a labelled survey CSV",
	SilenceUsage: true,
	RunE: func(_ *cobra.Command, _ []string) error {
		return analyze(utils.Logger())
	},
}

func init() {
	f := rootCmd.Flags()
	f.StringVar(&modelPath, "model", "model/attrition_model.gob", "bundle to evaluate")
	f.StringVar(&dataPath, "data", "data/synthetic_survey.csv", "labelled survey CSV")
	f.IntVar(&points, "points", 19, "number of thresholds in the sweep")
	f.StringVar(&outImg, "out_img", "model/threshold_curve.png", "threshold curve PNG")
	f.StringVar(&outCsv, "out_csv", "model/threshold_curve.csv", "threshold curve CSV")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func analyze(logger *zap.Logger) error {
	defer func() { _ = logger.Sync() }()

	bundle, err := models.LoadBundle(modelPath)
	if err != nil {
		return err
	}
	rs, err := data.ReadSurveyCSV(dataPath)
	if err != nil {
		return err
	}
	X, err := features.Rows(rs, bundle.FeatureOrder)
	if err != nil {
		return err
	}
	y := data.Labels(rs)

	proba := make([]float64, len(X))
	for i, x := range X {
		p, err := bundle.Model.PredictProba(x)
		if err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}
		proba[i] = p[1]
	}

	bestThr, bestF1 := evaluation.BestThresholdF1(y, proba)
	logger.Info("bundle evaluated",
		zap.String("model", bundle.Model.Name()),
		zap.Int("rows", len(y)),
		zap.Float64("accuracy", evaluation.Accuracy(y, evaluation.ProbaToPred(proba, 0.5))),
		zap.Float64("roc_auc", evaluation.ROCAUC(y, proba)),
		zap.Float64("pr_auc", evaluation.PRAUC(y, proba)),
		zap.Float64("log_loss", evaluation.LogLoss(y, proba)),
		zap.Float64("best_threshold", bestThr),
		zap.Float64("best_f1", bestF1),
	)
	if reporter, ok := bundle.Model.(models.ImportanceReporter); ok {
		imp, err := reporter.FeatureImportance()
		if err != nil {
			logger.Warn("could not get feature importance", zap.Error(err))
		} else {
			for _, name := range bundle.FeatureOrder {
				logger.Info("feature importance", zap.String("feature", name), zap.Float64("score", imp[name]))
			}
		}
	}

	if points < 2 {
		points = 2
	}
	thr := make([]float64, points)
	prec := make([]float64, points)
	rec := make([]float64, points)
	f1 := make([]float64, points)
	for k := range thr {
		thr[k] = 0.05 + 0.9*float64(k)/float64(points-1)
		prec[k], rec[k], f1[k] = evaluation.PRF1(y, proba, thr[k])
	}
	if err := writeCSV(outCsv, thr, prec, rec, f1); err != nil {
		logger.Warn("failed to save threshold CSV", zap.Error(err))
	}
	if err := plotCurve(outImg, thr, prec, rec, f1); err != nil {
		logger.Warn("failed to save threshold PNG", zap.Error(err))
	} else {
		logger.Info("threshold curve written", zap.String("png", outImg), zap.String("csv", outCsv))
	}
	return nil
}

func writeCSV(path string, thr, prec, rec, f1 []float64) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := csv.NewWriter(f)
	if err := w.Write([]string{"threshold", "precision", "recall", "f1"}); err != nil {
		return err
	}
	for i := range thr {
		row := []string{
			strconv.FormatFloat(thr[i], 'f', 4, 64),
			fmt.Sprintf("%.6f", prec[i]),
			fmt.Sprintf("%.6f", rec[i]),
			fmt.Sprintf("%.6f", f1[i]),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func plotCurve(path string, thr, prec, rec, f1 []float64) error {
	p := plot.New()
	p.Title.Text = "Threshold sweep"
	p.X.Label.Text = "Threshold"
	p.Y.Label.Text = "Metric"
	p.Y.Min = 0
	p.Y.Max = 1

	toXY := func(ys []float64) plotter.XYs {
		pts := make(plotter.XYs, len(thr))
		for i := range thr {
			pts[i].X = thr[i]
			pts[i].Y = ys[i]
		}
		return pts
	}
	if err := plotutil.AddLinePoints(p, "Precision", toXY(prec), "Recall", toXY(rec), "F1", toXY(f1)); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return p.Save(8*vg.Inch, 4*vg.Inch, path)
}

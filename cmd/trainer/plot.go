package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

func writeCurveCSV(path string, trainLoss, evalLoss []float64) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := csv.NewWriter(f)
	if err := w.Write([]string{"iteration", "train_logloss", "val_logloss"}); err != nil {
		return err
	}
	for i := range trainLoss {
		val := ""
		if i < len(evalLoss) {
			val = fmt.Sprintf("%.6f", evalLoss[i])
		}
		if err := w.Write([]string{strconv.Itoa(i + 1), fmt.Sprintf("%.6f", trainLoss[i]), val}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func plotCurvePNG(path string, trainLoss, evalLoss []float64, best int) error {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Training curve (best iteration %d)", best)
	p.X.Label.Text = "Iteration"
	p.Y.Label.Text = "Log-loss"

	toXY := func(ys []float64) plotter.XYs {
		pts := make(plotter.XYs, len(ys))
		for i := range ys {
			pts[i].X = float64(i + 1)
			pts[i].Y = ys[i]
		}
		return pts
	}
	lines := []interface{}{"Train", toXY(trainLoss)}
	if len(evalLoss) > 0 {
		lines = append(lines, "Validation", toXY(evalLoss))
	}
	if err := plotutil.AddLines(p, lines...); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return p.Save(8*vg.Inch, 4*vg.Inch, path)
}

func plotImportancePNG(path string, order []string, imp map[string]float64) error {
	p := plot.New()
	p.Title.Text = "Feature importance"
	p.Y.Label.Text = "Share of split gain (%)"

	vals := make(plotter.Values, len(order))
	for i, name := range order {
		vals[i] = imp[name]
	}
	bars, err := plotter.NewBarChart(vals, vg.Points(30))
	if err != nil {
		return err
	}
	bars.Color = plotutil.Color(0)
	p.Add(bars)
	p.NominalX(order...)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return p.Save(10*vg.Inch, 4*vg.Inch, path)
}

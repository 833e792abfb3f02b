package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"attrition/internal/data"
	"attrition/internal/features"
	"attrition/internal/models"
)

func TestAnalyze(t *testing.T) {
	dir := t.TempDir()
	rs := data.SyntheticSurvey(200, 5)
	X, err := features.Rows(rs, data.FeatureColumns)
	require.NoError(t, err)
	gb := models.NewGradientBoosting(features.ModelFeatures())
	gb.NEstimators = 30
	require.NoError(t, gb.Fit(X, data.Labels(rs), nil, nil))

	modelPath = filepath.Join(dir, "model.gob")
	dataPath = filepath.Join(dir, "survey.csv")
	outImg = filepath.Join(dir, "out", "threshold.png")
	outCsv = filepath.Join(dir, "out", "threshold.csv")
	points = 5
	require.NoError(t, models.SaveBundle(modelPath, &models.Bundle{
		Model:               gb,
		CategoricalFeatures: data.CategoricalColumns,
		FeatureOrder:        data.FeatureColumns,
	}))
	require.NoError(t, data.GenerateSyntheticSurvey(100, 6, dataPath))

	require.NoError(t, analyze(zap.NewNop()))

	_, err = os.Stat(outImg)
	assert.NoError(t, err)
	b, err := os.ReadFile(outCsv)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	require.Len(t, lines, 6)
	assert.Equal(t, "threshold,precision,recall,f1", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "0.0500,"))
	assert.True(t, strings.HasPrefix(lines[5], "0.9500,"))
}

func TestAnalyze_MissingModel(t *testing.T) {
	modelPath = filepath.Join(t.TempDir(), "absent.gob")
	assert.ErrorIs(t, analyze(zap.NewNop()), models.ErrModelNotFound)
}

package models_test

import (
	"encoding/gob"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"attrition/internal/models"
)

func trainedBundle(t *testing.T) *models.Bundle {
	t.Helper()
	features := []models.Feature{{Name: "team", Categorical: true}, {Name: "years"}}
	X := []models.Row{}
	y := []int{}
	for i := 0; i < 40; i++ {
		team := "blue"
		if i%2 == 0 {
			team = "red"
		}
		X = append(X, models.Row{{Text: team}, {Num: float64(i % 7)}})
		if team == "red" {
			y = append(y, 1)
		} else {
			y = append(y, 0)
		}
	}
	gb := models.NewGradientBoosting(features)
	gb.NEstimators = 30
	require.NoError(t, gb.Fit(X, y, nil, nil))
	return &models.Bundle{
		Model:               gb,
		CategoricalFeatures: []string{"team"},
		FeatureOrder:        []string{"team", "years"},
	}
}

func TestBundle_SaveLoadRoundTrip(t *testing.T) {
	b := trainedBundle(t)
	path := filepath.Join(t.TempDir(), "nested", "model.gob")
	require.NoError(t, models.SaveBundle(path, b))

	loaded, err := models.LoadBundle(path)
	require.NoError(t, err)
	assert.Equal(t, b.FeatureOrder, loaded.FeatureOrder)
	assert.Equal(t, b.CategoricalFeatures, loaded.CategoricalFeatures)
	assert.Equal(t, "GradientBoosting", loaded.Model.Name())
	assert.True(t, loaded.IsCategorical("team"))
	assert.False(t, loaded.IsCategorical("years"))

	for _, row := range []models.Row{{{Text: "red"}, {Num: 3}}, {{Text: "blue"}, {Num: 6}}, {{Text: "teal"}, {Num: 0}}} {
		want, err := b.Model.PredictProba(row)
		require.NoError(t, err)
		got, err := loaded.Model.PredictProba(row)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	wantImp, err := b.Model.(models.ImportanceReporter).FeatureImportance()
	require.NoError(t, err)
	gotImp, err := loaded.Model.(models.ImportanceReporter).FeatureImportance()
	require.NoError(t, err)
	assert.Equal(t, wantImp, gotImp)
}

func TestLoadBundle_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := models.LoadBundle(filepath.Join(t.TempDir(), "absent.gob"))
		assert.ErrorIs(t, err, models.ErrModelNotFound)
		assert.NotErrorIs(t, err, models.ErrModelLoad)
	})

	t.Run("corrupt file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "corrupt.gob")
		require.NoError(t, os.WriteFile(path, []byte("definitely not gob"), 0o644))

		_, err := models.LoadBundle(path)
		assert.ErrorIs(t, err, models.ErrModelLoad)
		assert.NotErrorIs(t, err, models.ErrModelNotFound)
	})

	t.Run("categorical flags disagree", func(t *testing.T) {
		b := trainedBundle(t)
		b.CategoricalFeatures = nil
		path := filepath.Join(t.TempDir(), "mismatch.gob")
		f, err := os.Create(path)
		require.NoError(t, err)
		require.NoError(t, gob.NewEncoder(f).Encode(b))
		require.NoError(t, f.Close())

		_, err = models.LoadBundle(path)
		assert.ErrorIs(t, err, models.ErrModelLoad)
		assert.Contains(t, err.Error(), `column "team" is categorical=true in the model`)
	})

	t.Run("directory instead of file", func(t *testing.T) {
		_, err := models.LoadBundle(t.TempDir())
		assert.ErrorIs(t, err, models.ErrModelLoad)
	})
}

func TestBundle_Validate(t *testing.T) {
	gb := models.NewGradientBoosting([]models.Feature{{Name: "a", Categorical: true}, {Name: "b"}})

	tests := []struct {
		name    string
		bundle  models.Bundle
		wantErr []string
	}{
		{
			name:   "valid",
			bundle: models.Bundle{Model: gb, CategoricalFeatures: []string{"a"}, FeatureOrder: []string{"a", "b"}},
		},
		{
			name:    "no model and no order",
			bundle:  models.Bundle{},
			wantErr: []string{"no model", "empty feature order"},
		},
		{
			name:    "duplicate and unknown categorical",
			bundle:  models.Bundle{Model: gb, CategoricalFeatures: []string{"c"}, FeatureOrder: []string{"a", "a"}},
			wantErr: []string{`"a" appears twice`, `"c" is not in the feature order`, "do not match"},
		},
		{
			name:   "categorical flags disagree with the model",
			bundle: models.Bundle{Model: gb, CategoricalFeatures: []string{"b"}, FeatureOrder: []string{"a", "b"}},
			wantErr: []string{
				`column "a" is categorical=true in the model but categorical=false in the bundle`,
				`column "b" is categorical=false in the model but categorical=true in the bundle`,
			},
		},
		{
			name:    "order differs from model columns",
			bundle:  models.Bundle{Model: gb, FeatureOrder: []string{"b", "a"}},
			wantErr: []string{"do not match"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.bundle.Validate()
			if len(tt.wantErr) == 0 {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			for _, msg := range tt.wantErr {
				assert.Contains(t, err.Error(), msg)
			}
		})
	}
}

func TestSaveBundle_RejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.gob")
	assert.Error(t, models.SaveBundle(path, &models.Bundle{}))
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

package predict_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"attrition/internal/data"
	"attrition/internal/features"
	"attrition/internal/models"
	"attrition/internal/models/mocks"
	"attrition/internal/predict"
)

func examplePayload() map[string]any {
	return map[string]any{
		"Department":         "Engineering",
		"Overtime":           "11-20 hours",
		"Promotion_Gap":      json.Number("3"),
		"Job_Satisfaction":   "Dissatisfied",
		"AI_Automation_Risk": "High",
		"Recent_Layoffs":     "Yes",
		"Job_Security":       "Unstable",
		"Market_Demand":      "Easy",
	}
}

var exampleRow = models.Row{
	{Text: "Engineering"},
	{Text: "11-20 hours"},
	{Num: 3},
	{Text: "Dissatisfied"},
	{Text: "High"},
	{Text: "Yes"},
	{Text: "Unstable"},
	{Text: "Easy"},
}

func mockService(t *testing.T) (*predict.Service, *mocks.MockClassifier) {
	t.Helper()
	m := mocks.NewMockClassifier(gomock.NewController(t))
	m.EXPECT().Name().Return("mock").AnyTimes()
	b := &models.Bundle{
		Model:               m,
		CategoricalFeatures: data.CategoricalColumns,
		FeatureOrder:        data.FeatureColumns,
	}
	return predict.NewService(b, features.Default(), nil), m
}

func trainedService(t *testing.T) *predict.Service {
	t.Helper()
	rs := data.SyntheticSurvey(300, 1)
	X, err := features.Rows(rs, data.FeatureColumns)
	require.NoError(t, err)
	gb := models.NewGradientBoosting(features.ModelFeatures())
	gb.NEstimators = 40
	gb.MaxDepth = 4
	require.NoError(t, gb.Fit(X, data.Labels(rs), nil, nil))
	b := &models.Bundle{
		Model:               gb,
		CategoricalFeatures: data.CategoricalColumns,
		FeatureOrder:        data.FeatureColumns,
	}
	require.NoError(t, b.Validate())
	return predict.NewService(b, features.Default(), nil)
}

func TestPredict_WithMock(t *testing.T) {
	tests := []struct {
		name      string
		label     int
		proba     [2]float64
		wantLabel string
		wantConf  float64
	}{
		{name: "leave", label: 1, proba: [2]float64{0.3, 0.7}, wantLabel: predict.LabelLeave, wantConf: 0.7},
		{name: "stay", label: 0, proba: [2]float64{0.8, 0.2}, wantLabel: predict.LabelStay, wantConf: 0.8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m := mockService(t)
			m.EXPECT().PredictLabel(exampleRow).Return(tt.label, nil)
			m.EXPECT().PredictProba(exampleRow).Return(tt.proba, nil)

			res, err := svc.Predict(examplePayload())
			require.NoError(t, err)
			assert.Equal(t, tt.label, res.Prediction)
			assert.Equal(t, tt.wantLabel, res.PredictionLabel)
			assert.Equal(t, tt.proba[0], res.Probability.Stay)
			assert.Equal(t, tt.proba[1], res.Probability.Leave)
			assert.Equal(t, tt.wantConf, res.Confidence)
			assert.Nil(t, res.FeatureImportance)
		})
	}
}

func TestPredict_ModelErrors(t *testing.T) {
	boom := errors.New("boom")

	t.Run("label", func(t *testing.T) {
		svc, m := mockService(t)
		m.EXPECT().PredictLabel(gomock.Any()).Return(0, boom)

		_, err := svc.Predict(examplePayload())
		assert.ErrorIs(t, err, boom)
	})

	t.Run("probabilities", func(t *testing.T) {
		svc, m := mockService(t)
		m.EXPECT().PredictLabel(gomock.Any()).Return(1, nil)
		m.EXPECT().PredictProba(gomock.Any()).Return([2]float64{}, boom)

		_, err := svc.Predict(examplePayload())
		assert.ErrorIs(t, err, boom)
	})
}

func TestPredict_Rejections(t *testing.T) {
	t.Run("no model", func(t *testing.T) {
		svc := predict.NewService(nil, features.Default(), nil)
		assert.False(t, svc.Ready())
		_, err := svc.Predict(examplePayload())
		assert.ErrorIs(t, err, predict.ErrServiceUnavailable)
		_, err = svc.PredictBatch([]map[string]any{examplePayload()})
		assert.ErrorIs(t, err, predict.ErrServiceUnavailable)
	})

	t.Run("empty payload", func(t *testing.T) {
		svc, _ := mockService(t)
		_, err := svc.Predict(map[string]any{})
		assert.ErrorIs(t, err, predict.ErrInvalidRequest)
		_, err = svc.Predict(nil)
		assert.ErrorIs(t, err, predict.ErrInvalidRequest)
	})

	t.Run("missing fields never reach the model", func(t *testing.T) {
		svc, _ := mockService(t)
		_, err := svc.Predict(map[string]any{"Department": "Sales"})
		var missing *features.MissingFieldsError
		require.ErrorAs(t, err, &missing)
		assert.Len(t, missing.Fields, len(data.FeatureColumns)-1)
	})

	t.Run("bad number never reaches the model", func(t *testing.T) {
		svc, _ := mockService(t)
		p := examplePayload()
		p["Promotion_Gap"] = "abc"
		_, err := svc.Predict(p)
		var ce *features.CoercionError
		assert.ErrorAs(t, err, &ce)
	})
}

func TestPredict_TrainedModel(t *testing.T) {
	svc := trainedService(t)
	require.True(t, svc.Ready())

	res, err := svc.Predict(examplePayload())
	require.NoError(t, err)
	assert.Contains(t, []int{0, 1}, res.Prediction)
	assert.InDelta(t, 1.0, res.Probability.Stay+res.Probability.Leave, 1e-9)
	assert.Equal(t, max(res.Probability.Stay, res.Probability.Leave), res.Confidence)
	assert.GreaterOrEqual(t, res.Confidence, 0.5)
	if res.Prediction == 1 {
		assert.Equal(t, predict.LabelLeave, res.PredictionLabel)
	} else {
		assert.Equal(t, predict.LabelStay, res.PredictionLabel)
	}

	require.NotNil(t, res.FeatureImportance)
	total := 0.0
	for _, name := range data.FeatureColumns {
		v, ok := res.FeatureImportance[name]
		assert.True(t, ok, name)
		assert.GreaterOrEqual(t, v, 0.0)
		total += v
	}
	assert.InDelta(t, 100.0, total, 1e-6)

	again, err := svc.Predict(examplePayload())
	require.NoError(t, err)
	assert.Equal(t, res, again)
}

func TestPredict_DashVariantsAgree(t *testing.T) {
	svc := trainedService(t)

	base, err := svc.Predict(examplePayload())
	require.NoError(t, err)
	for _, v := range []string{"11–20 hours", "11â€“20 hours"} {
		p := examplePayload()
		p["Overtime"] = v
		res, err := svc.Predict(p)
		require.NoError(t, err)
		assert.Equal(t, base.Probability, res.Probability, v)
	}
}

func TestPredict_StringPromotionGapMatchesNumber(t *testing.T) {
	svc := trainedService(t)

	asNumber, err := svc.Predict(examplePayload())
	require.NoError(t, err)
	p := examplePayload()
	p["Promotion_Gap"] = "3"
	asString, err := svc.Predict(p)
	require.NoError(t, err)
	assert.Equal(t, asNumber, asString)
}

func TestPredictBatch(t *testing.T) {
	svc := trainedService(t)

	t.Run("all valid", func(t *testing.T) {
		other := examplePayload()
		other["Job_Satisfaction"] = "Very Satisfied"
		res, err := svc.PredictBatch([]map[string]any{examplePayload(), other})
		require.NoError(t, err)
		require.Len(t, res, 2)
		for _, r := range res {
			assert.InDelta(t, 1.0, r.Probability.Stay+r.Probability.Leave, 1e-9)
		}
	})

	t.Run("bad item is named", func(t *testing.T) {
		bad := examplePayload()
		delete(bad, "Overtime")
		_, err := svc.PredictBatch([]map[string]any{examplePayload(), bad})
		var item *predict.ItemError
		require.ErrorAs(t, err, &item)
		assert.Equal(t, 1, item.Index)
		var missing *features.MissingFieldsError
		assert.ErrorAs(t, err, &missing)
		assert.Equal(t, "item 1: Missing required fields: Overtime", err.Error())
	})

	t.Run("empty batch", func(t *testing.T) {
		_, err := svc.PredictBatch(nil)
		assert.ErrorIs(t, err, predict.ErrInvalidRequest)
	})
}

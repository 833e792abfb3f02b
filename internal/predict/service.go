// Package predict runs the attrition prediction pipeline against a loaded
// model bundle.
package predict

import (
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	"attrition/internal/features"
	"attrition/internal/models"
)

var (
	ErrServiceUnavailable = errors.New("model not loaded")
	ErrInvalidRequest     = errors.New("no data provided in request")
)

const (
	LabelLeave = "Yes (Likely to Leave)"
	LabelStay  = "No (Likely to Stay)"
)

// Probability holds the class probabilities of one prediction.
type Probability struct {
	Stay  float64 `json:"stay"`
	Leave float64 `json:"leave"`
}

// Result is the response body of a successful prediction.
type Result struct {
	Prediction        int                `json:"prediction"`
	PredictionLabel   string             `json:"prediction_label"`
	Probability       Probability        `json:"probability"`
	Confidence        float64            `json:"confidence"`
	FeatureImportance map[string]float64 `json:"feature_importance"`
}

// ItemError ties a batch failure to the offending item.
type ItemError struct {
	Index int
	Err   error
}

func (e *ItemError) Error() string { return fmt.Sprintf("item %d: %v", e.Index, e.Err) }
func (e *ItemError) Unwrap() error { return e.Err }

// Service is safe for concurrent use: the bundle and schema are read-only.
type Service struct {
	bundle *models.Bundle
	schema *features.Schema
	log    *zap.Logger
}

// NewService wires a bundle, which may be nil when no model could be found,
// to the feature schema.
func NewService(bundle *models.Bundle, schema *features.Schema, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{bundle: bundle, schema: schema, log: log}
}

// Ready reports whether a model bundle is loaded.
func (s *Service) Ready() bool { return s.bundle != nil && s.bundle.Model != nil }

// Schema returns the published feature schema.
func (s *Service) Schema() *features.Schema { return s.schema }

// Predict validates and coerces payload, runs the model and shapes the result.
func (s *Service) Predict(payload map[string]any) (*Result, error) {
	if !s.Ready() {
		return nil, ErrServiceUnavailable
	}
	if len(payload) == 0 {
		return nil, ErrInvalidRequest
	}
	s.log.Debug("prediction request", zap.Any("data", payload))

	rec, err := s.schema.Coerce(payload, s.bundle.FeatureOrder, s.bundle.IsCategorical)
	if err != nil {
		return nil, err
	}
	row, err := rec.Row(s.bundle.FeatureOrder)
	if err != nil {
		return nil, err
	}
	s.log.Debug("input prepared", zap.Strings("feature_order", s.bundle.FeatureOrder), zap.Any("row", row))

	model := s.bundle.Model
	label, err := model.PredictLabel(row)
	if err != nil {
		return nil, fmt.Errorf("predict label: %w", err)
	}
	proba, err := model.PredictProba(row)
	if err != nil {
		return nil, fmt.Errorf("predict probabilities: %w", err)
	}

	res := &Result{
		Prediction:      label,
		PredictionLabel: LabelStay,
		Probability:     Probability{Stay: proba[0], Leave: proba[1]},
		Confidence:      math.Max(proba[0], proba[1]),
	}
	if label == 1 {
		res.PredictionLabel = LabelLeave
	}
	res.FeatureImportance = s.importance()

	s.log.Debug("prediction result",
		zap.Int("prediction", res.Prediction),
		zap.Float64("stay", res.Probability.Stay),
		zap.Float64("leave", res.Probability.Leave),
	)
	return res, nil
}

// PredictBatch predicts every payload, failing on the first bad item.
func (s *Service) PredictBatch(payloads []map[string]any) ([]*Result, error) {
	if !s.Ready() {
		return nil, ErrServiceUnavailable
	}
	if len(payloads) == 0 {
		return nil, ErrInvalidRequest
	}
	out := make([]*Result, len(payloads))
	for i, p := range payloads {
		res, err := s.Predict(p)
		if err != nil {
			return nil, &ItemError{Index: i, Err: err}
		}
		out[i] = res
	}
	return out, nil
}

func (s *Service) importance() map[string]float64 {
	reporter, ok := s.bundle.Model.(models.ImportanceReporter)
	if !ok {
		s.log.Debug("model does not report feature importance", zap.String("model", s.bundle.Model.Name()))
		return nil
	}
	imp, err := reporter.FeatureImportance()
	if err != nil {
		s.log.Warn("could not get feature importance", zap.Error(err))
		return nil
	}
	return imp
}

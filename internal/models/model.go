package models

//go:generate mockgen -destination=mocks/classifier.go -package=mocks attrition/internal/models Classifier

import "errors"

// ErrImportanceUnavailable is returned by models that cannot attribute their
// predictions to individual features.
var ErrImportanceUnavailable = errors.New("feature importance unavailable")

// Value is one cell of an input row. Categorical columns read Text, numeric
// columns read Num.
type Value struct {
	Text string
	Num  float64
}

// Row is a single observation laid out in the model's feature order.
type Row []Value

// Classifier is a trained binary classifier. Label 1 means the employee is
// likely to leave.
type Classifier interface {
	PredictLabel(row Row) (int, error)
	// PredictProba returns [P(stay), P(leave)].
	PredictProba(row Row) ([2]float64, error)
	Name() string
}

// ImportanceReporter is implemented by classifiers that expose global
// feature importance scores keyed by feature name.
type ImportanceReporter interface {
	FeatureImportance() (map[string]float64, error)
}

// Trainer fits a classifier on labelled rows, using the eval set for early
// stopping when one is given.
type Trainer interface {
	Classifier
	Fit(X []Row, y []int, evalX []Row, evalY []int) error
}

// Feature describes one model input column.
type Feature struct {
	Name        string
	Categorical bool
}

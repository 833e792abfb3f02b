package features

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"go.uber.org/multierr"

	"attrition/internal/data"
	"attrition/internal/models"
)

// MissingFieldsError lists every required field absent from a request.
type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return "Missing required fields: " + strings.Join(e.Fields, ", ")
}

// CoercionError reports a field whose value cannot take its declared type.
type CoercionError struct {
	Field string
	Kind  Kind
	Value any
}

func (e *CoercionError) Error() string {
	if e.Kind == Numeric {
		return fmt.Sprintf("could not convert %s value %s to a number", e.Field, describe(e.Value))
	}
	return fmt.Sprintf("could not convert %s value %s to text", e.Field, describe(e.Value))
}

func describe(v any) string {
	switch t := v.(type) {
	case string:
		return strconv.Quote(t)
	case nil:
		return "null"
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

// Record is a validated request keyed by feature name.
type Record map[string]models.Value

// Coerce checks that payload carries every name in required and converts
// each of those values to its declared type. Missing fields are reported
// together before any coercion is tried; coercion failures are then reported
// together as well. Fields outside the schema are typed through
// isCategorical. Extra payload keys are ignored.
func (s *Schema) Coerce(payload map[string]any, required []string, isCategorical func(string) bool) (Record, error) {
	var missing []string
	for _, name := range required {
		if _, ok := payload[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingFieldsError{Fields: missing}
	}

	rec := make(Record, len(required))
	var errs error
	for _, name := range required {
		raw := payload[name]
		kind, normalize := Numeric, ""
		if spec, ok := s.Lookup(name); ok {
			kind, normalize = spec.Type, spec.Normalize
		} else if isCategorical != nil && isCategorical(name) {
			kind = Categorical
		}

		if kind == Numeric {
			v, ok := toNumber(raw)
			if !ok {
				errs = multierr.Append(errs, &CoercionError{Field: name, Kind: kind, Value: raw})
				continue
			}
			rec[name] = models.Value{Num: v}
			continue
		}

		text, ok := toText(raw)
		if !ok {
			errs = multierr.Append(errs, &CoercionError{Field: name, Kind: kind, Value: raw})
			continue
		}
		if normalize == normalizeDashes {
			text = data.NormalizeDashes(text)
		}
		rec[name] = models.Value{Text: text}
	}
	if errs != nil {
		return nil, errs
	}
	return rec, nil
}

// toText renders scalars the way the survey pipeline stringifies them.
func toText(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case json.Number:
		return t.String(), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case bool:
		if t {
			return "True", true
		}
		return "False", true
	case nil:
		return "None", true
	}
	return "", false
}

func toNumber(v any) (float64, bool) {
	var f float64
	switch t := v.(type) {
	case json.Number:
		n, err := strconv.ParseFloat(t.String(), 64)
		if err != nil {
			return 0, false
		}
		f = n
	case float64:
		f = t
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		f = n
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Row lays the record out in order.
func (r Record) Row(order []string) (models.Row, error) {
	row := make(models.Row, len(order))
	for i, name := range order {
		v, ok := r[name]
		if !ok {
			return nil, fmt.Errorf("record has no value for %q", name)
		}
		row[i] = v
	}
	return row, nil
}

// Vectorize converts a cleaned survey response into a record.
func Vectorize(resp data.SurveyResponse) Record {
	rec := make(Record, len(data.FeatureColumns))
	for _, col := range data.FeatureColumns {
		if text, ok := resp.Text(col); ok {
			rec[col] = models.Value{Text: text}
		}
	}
	rec[data.ColPromotionGap] = models.Value{Num: resp.PromotionGap}
	return rec
}

// Rows vectorizes responses into rows in order.
func Rows(rs []data.SurveyResponse, order []string) ([]models.Row, error) {
	out := make([]models.Row, len(rs))
	for i, r := range rs {
		row, err := Vectorize(r).Row(order)
		if err != nil {
			return nil, err
		}
		out[i] = row
	}
	return out, nil
}

// ModelFeatures describes data.FeatureColumns as model columns.
func ModelFeatures() []models.Feature {
	out := make([]models.Feature, len(data.FeatureColumns))
	for i, col := range data.FeatureColumns {
		_, categorical := data.SurveyResponse{}.Text(col)
		out[i] = models.Feature{Name: col, Categorical: categorical}
	}
	return out
}

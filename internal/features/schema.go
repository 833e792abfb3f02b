// Package features owns the prediction input contract: the static feature
// schema, request coercion, and the mapping from records to model rows.
package features

import (
	_ "embed"
	"fmt"

	"github.com/goccy/go-yaml"
)

type Kind string

const (
	Categorical Kind = "categorical"
	Numeric     Kind = "numeric"
)

// normalizeDashes marks fields whose en-dashes become hyphens.
const normalizeDashes = "dashes"

// FeatureSpec describes one required input as published by GET /features.
type FeatureSpec struct {
	Name        string   `yaml:"name" json:"-"`
	Type        Kind     `yaml:"type" json:"type"`
	Description string   `yaml:"description" json:"description"`
	Options     []string `yaml:"options" json:"options,omitempty"`
	Min         *float64 `yaml:"min" json:"min,omitempty"`
	Max         *float64 `yaml:"max" json:"max,omitempty"`
	Normalize   string   `yaml:"normalize" json:"-"`
}

// Schema is the ordered set of feature specs.
type Schema struct {
	Features []FeatureSpec `yaml:"features"`
	byName   map[string]*FeatureSpec
}

//go:embed schema.yaml
var schemaYAML []byte

var defaultSchema = mustParseSchema(schemaYAML)

// Default returns the built-in schema.
func Default() *Schema { return defaultSchema }

func mustParseSchema(b []byte) *Schema {
	s, err := ParseSchema(b)
	if err != nil {
		panic(err)
	}
	return s
}

// ParseSchema decodes and checks a YAML schema document.
func ParseSchema(b []byte) (*Schema, error) {
	var s Schema
	if err := yaml.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("parse feature schema: %w", err)
	}
	s.byName = make(map[string]*FeatureSpec, len(s.Features))
	for i := range s.Features {
		f := &s.Features[i]
		if f.Name == "" {
			return nil, fmt.Errorf("feature %d has no name", i)
		}
		if _, dup := s.byName[f.Name]; dup {
			return nil, fmt.Errorf("feature %q declared twice", f.Name)
		}
		switch f.Type {
		case Categorical, Numeric:
		default:
			return nil, fmt.Errorf("feature %q has unknown type %q", f.Name, f.Type)
		}
		if f.Normalize != "" && f.Normalize != normalizeDashes {
			return nil, fmt.Errorf("feature %q has unknown normalizer %q", f.Name, f.Normalize)
		}
		s.byName[f.Name] = f
	}
	return &s, nil
}

// Names lists the feature names in schema order.
func (s *Schema) Names() []string {
	out := make([]string, len(s.Features))
	for i, f := range s.Features {
		out[i] = f.Name
	}
	return out
}

// Lookup finds a feature by name.
func (s *Schema) Lookup(name string) (*FeatureSpec, bool) {
	f, ok := s.byName[name]
	return f, ok
}

// Describe returns the name-keyed view served by GET /features.
func (s *Schema) Describe() map[string]FeatureSpec {
	out := make(map[string]FeatureSpec, len(s.Features))
	for _, f := range s.Features {
		out[f.Name] = f
	}
	return out
}

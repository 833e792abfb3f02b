package models

import (
	"encoding/gob"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/multierr"
)

var (
	// ErrModelNotFound means no bundle exists at the configured path. The API
	// keeps running in degraded mode when it sees this.
	ErrModelNotFound = errors.New("model file not found")
	// ErrModelLoad means a bundle exists but cannot be used.
	ErrModelLoad = errors.New("model could not be loaded")
)

func init() {
	gob.Register(&GradientBoosting{})
}

// Bundle is the persisted artifact: a trained classifier together with the
// column metadata needed to feed it. It is never mutated after loading.
type Bundle struct {
	Model               Classifier
	CategoricalFeatures []string
	FeatureOrder        []string
}

// IsCategorical reports whether name is one of the bundle's categorical columns.
func (b *Bundle) IsCategorical(name string) bool {
	for _, c := range b.CategoricalFeatures {
		if c == name {
			return true
		}
	}
	return false
}

// Validate checks the bundle's internal consistency and reports every problem found.
func (b *Bundle) Validate() error {
	var err error
	if b.Model == nil {
		err = multierr.Append(err, errors.New("bundle has no model"))
	}
	if len(b.FeatureOrder) == 0 {
		err = multierr.Append(err, errors.New("bundle has an empty feature order"))
	}
	seen := make(map[string]bool, len(b.FeatureOrder))
	for _, name := range b.FeatureOrder {
		if seen[name] {
			err = multierr.Append(err, fmt.Errorf("feature %q appears twice in the feature order", name))
		}
		seen[name] = true
	}
	for _, c := range b.CategoricalFeatures {
		if !seen[c] {
			err = multierr.Append(err, fmt.Errorf("categorical feature %q is not in the feature order", c))
		}
	}
	if described, ok := b.Model.(interface{ Columns() []Feature }); ok {
		err = multierr.Append(err, b.checkColumns(described.Columns()))
	}
	return err
}

// checkColumns compares the model's own column list with the bundle metadata,
// by name and position and by categorical flag.
func (b *Bundle) checkColumns(cols []Feature) error {
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	if !equalStrings(names, b.FeatureOrder) {
		return fmt.Errorf("model columns %v do not match feature order %v", names, b.FeatureOrder)
	}
	var err error
	for _, c := range cols {
		if c.Categorical != b.IsCategorical(c.Name) {
			err = multierr.Append(err, fmt.Errorf("column %q is categorical=%t in the model but categorical=%t in the bundle", c.Name, c.Categorical, !c.Categorical))
		}
	}
	return err
}

// LoadBundle reads a gob bundle from path.
func LoadBundle(path string) (*Bundle, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w at %s", ErrModelNotFound, path)
		}
		return nil, fmt.Errorf("%w: %v", ErrModelLoad, err)
	}
	defer f.Close()

	var b Bundle
	if err := gob.NewDecoder(f).Decode(&b); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrModelLoad, path, err)
	}
	if err := b.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelLoad, err)
	}
	return &b, nil
}

// SaveBundle writes b to path, replacing any existing file only once the
// encode has succeeded.
func SaveBundle(path string, b *Bundle) error {
	if err := b.Validate(); err != nil {
		return fmt.Errorf("invalid bundle: %w", err)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if err := gob.NewEncoder(tmp).Encode(b); err != nil {
		tmp.Close()
		return fmt.Errorf("encode bundle: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

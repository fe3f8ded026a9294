package model

import (
	"context"
	"fmt"
)

// Features is one labeled input row.
type Features struct {
	Names  []string
	Values []float64
}

func (f Features) Validate() error {
	if len(f.Names) != len(f.Values) {
		return fmt.Errorf("feature names/values length mismatch: %d != %d", len(f.Names), len(f.Values))
	}
	return nil
}

// Map returns the row keyed by column name.
func (f Features) Map() map[string]float64 {
	m := make(map[string]float64, len(f.Names))
	for i, name := range f.Names {
		if i < len(f.Values) {
			m[name] = f.Values[i]
		}
	}
	return m
}

// Classifier is a loaded, read-only prediction model. Predict returns the raw
// class: a label, or an encoded class index rendered as text.
type Classifier interface {
	Name() string
	Predict(ctx context.Context, features Features) (string, error)
}

// ClassifierFunc adapts a function to Classifier.
type ClassifierFunc func(ctx context.Context, features Features) (string, error)

func (f ClassifierFunc) Name() string {
	return "func"
}

func (f ClassifierFunc) Predict(ctx context.Context, features Features) (string, error) {
	return f(ctx, features)
}

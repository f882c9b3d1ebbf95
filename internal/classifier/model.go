// Package classifier defines the boundary to the pre-fitted screening model.
// The model artifact is produced by the training collaborator, loaded once
// at process start, and consumed read-only by every request; this package
// never trains or mutates anything.
package classifier

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
)

// Model is the contract the pipeline consumes. Predict returns the raw
// class value; PredictProba returns class probabilities in class order,
// length >= 1. A single-entry probability sequence is the documented
// degraded mode for single-class artifacts, not an error.
type Model interface {
	Predict(features []float64) (int, error)
	PredictProba(features []float64) ([]float64, error)
}

// ModelError reports a model invocation or load failure. It is fatal for
// the request and never retried: a broken model must not silently guess.
type ModelError struct {
	Op  string
	Err error
}

func (e *ModelError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("classifier %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("classifier %s", e.Op)
}

func (e *ModelError) Unwrap() error { return e.Err }

// Scaler holds the training-time standardization parameters. Applied
// feature-wise before the linear term when present.
type Scaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

// LogisticModel is a binary logistic regression exported to JSON by the
// training side. The serialization format is owned by that collaborator;
// this type only knows enough to evaluate it.
type LogisticModel struct {
	Coefficients []float64 `json:"coefficients"`
	Intercept    float64   `json:"intercept"`
	Classes      []int     `json:"classes"`
	Scaler       *Scaler   `json:"scaler,omitempty"`
}

// LoadLogistic reads and validates a model artifact. The returned model is
// immutable; callers share it across requests without locking.
func LoadLogistic(path string) (*LogisticModel, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &ModelError{Op: "load", Err: err}
	}
	var m LogisticModel
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, &ModelError{Op: "load", Err: err}
	}
	if err := m.validate(); err != nil {
		return nil, &ModelError{Op: "load", Err: err}
	}
	return &m, nil
}

func (m *LogisticModel) validate() error {
	if len(m.Coefficients) == 0 {
		return fmt.Errorf("model has no coefficients")
	}
	if len(m.Classes) == 0 {
		m.Classes = []int{0, 1}
	}
	if len(m.Classes) > 2 {
		return fmt.Errorf("expected at most 2 classes, got %d", len(m.Classes))
	}
	for i, c := range m.Coefficients {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return fmt.Errorf("coefficient %d is not finite", i)
		}
	}
	if m.Scaler != nil {
		if len(m.Scaler.Mean) != len(m.Coefficients) || len(m.Scaler.Scale) != len(m.Coefficients) {
			return fmt.Errorf("scaler arity does not match %d coefficients", len(m.Coefficients))
		}
		for i, s := range m.Scaler.Scale {
			if s == 0 || math.IsNaN(s) || math.IsInf(s, 0) {
				return fmt.Errorf("scaler scale %d is degenerate", i)
			}
		}
	}
	return nil
}

// Predict returns the raw class value for a feature vector.
func (m *LogisticModel) Predict(features []float64) (int, error) {
	probs, err := m.PredictProba(features)
	if err != nil {
		return 0, err
	}
	if len(probs) == 1 {
		return m.Classes[0], nil
	}
	if probs[1] >= 0.5 {
		return m.Classes[1], nil
	}
	return m.Classes[0], nil
}

// PredictProba returns class probabilities in class order. For a two-class
// model the result is [P(class 0), P(class 1)]; a single-class artifact
// yields the one-entry sequence [1.0].
func (m *LogisticModel) PredictProba(features []float64) ([]float64, error) {
	if len(features) != len(m.Coefficients) {
		return nil, &ModelError{
			Op:  "predict",
			Err: fmt.Errorf("expected %d features, got %d", len(m.Coefficients), len(features)),
		}
	}
	for i, f := range features {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, &ModelError{Op: "predict", Err: fmt.Errorf("feature %d is not finite", i)}
		}
	}

	if len(m.Classes) == 1 {
		return []float64{1.0}, nil
	}

	z := m.Intercept
	for i, f := range features {
		if m.Scaler != nil {
			f = (f - m.Scaler.Mean[i]) / m.Scaler.Scale[i]
		}
		z += m.Coefficients[i] * f
	}
	p1 := 1.0 / (1.0 + math.Exp(-z))
	return []float64{1.0 - p1, p1}, nil
}

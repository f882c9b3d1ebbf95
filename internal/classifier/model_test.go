package classifier

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

// writeModel serializes a model artifact into a temp file.
func writeModel(t *testing.T, m *LogisticModel) string {
	t.Helper()

	raw, err := json.Marshal(m)
	if err != nil {
		// encoding/json cannot represent NaN/Inf; emit the token the
		// Python training side would so the loader still sees the file.
		coefs := make([]string, len(m.Coefficients))
		for i, c := range m.Coefficients {
			coefs[i] = strconv.FormatFloat(c, 'g', -1, 64)
		}
		raw = []byte(fmt.Sprintf(`{"coefficients":[%s],"intercept":%g}`,
			strings.Join(coefs, ","), m.Intercept))
	}
	path := filepath.Join(t.TempDir(), "model.json")
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatalf("Failed to write model file: %v", err)
	}
	return path
}

func testCoefficients() []float64 {
	return []float64{0.5, -0.2, 0.1, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0.3}
}

func TestLoadLogistic(t *testing.T) {
	path := writeModel(t, &LogisticModel{
		Coefficients: testCoefficients(),
		Intercept:    -0.1,
		Classes:      []int{0, 1},
	})

	m, err := LoadLogistic(path)
	if err != nil {
		t.Fatalf("LoadLogistic failed: %v", err)
	}
	if len(m.Coefficients) != 13 {
		t.Errorf("Expected 13 coefficients, got %d", len(m.Coefficients))
	}
}

func TestLoadLogisticInvalid(t *testing.T) {
	tests := []struct {
		name  string
		model *LogisticModel
	}{
		{"No coefficients", &LogisticModel{}},
		{"Too many classes", &LogisticModel{Coefficients: testCoefficients(), Classes: []int{0, 1, 2}}},
		{"NaN coefficient", &LogisticModel{Coefficients: []float64{math.NaN()}}},
		{"Scaler arity mismatch", &LogisticModel{
			Coefficients: testCoefficients(),
			Scaler:       &Scaler{Mean: []float64{0}, Scale: []float64{1}},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeModel(t, tt.model)
			_, err := LoadLogistic(path)
			if err == nil {
				t.Fatal("Expected load to fail")
			}
			var modelErr *ModelError
			if !errors.As(err, &modelErr) {
				t.Errorf("Expected *ModelError, got %T", err)
			}
		})
	}

	t.Run("Missing file", func(t *testing.T) {
		if _, err := LoadLogistic(filepath.Join(t.TempDir(), "absent.json")); err == nil {
			t.Fatal("Expected load to fail for missing file")
		}
	})

	t.Run("Garbage JSON", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "model.json")
		os.WriteFile(path, []byte("{not json"), 0o644)
		if _, err := LoadLogistic(path); err == nil {
			t.Fatal("Expected load to fail for malformed JSON")
		}
	})
}

func TestPredictProba(t *testing.T) {
	m := &LogisticModel{
		Coefficients: testCoefficients(),
		Intercept:    0,
		Classes:      []int{0, 1},
	}

	features := make([]float64, 13)
	probs, err := m.PredictProba(features)
	if err != nil {
		t.Fatalf("PredictProba failed: %v", err)
	}
	if len(probs) != 2 {
		t.Fatalf("Expected 2 probabilities, got %d", len(probs))
	}
	if math.Abs(probs[0]+probs[1]-1.0) > 1e-12 {
		t.Errorf("Probabilities do not sum to 1: %v", probs)
	}
	// Zero features and zero intercept give exactly 0.5 / 0.5.
	if math.Abs(probs[1]-0.5) > 1e-12 {
		t.Errorf("Expected P(depressed) 0.5, got %f", probs[1])
	}
}

func TestPredictLabelThreshold(t *testing.T) {
	m := &LogisticModel{
		Coefficients: testCoefficients(),
		Classes:      []int{0, 1},
	}

	tests := []struct {
		name      string
		intercept float64
		want      int
	}{
		{"Positive evidence", 2.0, 1},
		{"Negative evidence", -2.0, 0},
	}

	features := make([]float64, 13)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m.Intercept = tt.intercept
			got, err := m.Predict(features)
			if err != nil {
				t.Fatalf("Predict failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("Expected class %d, got %d", tt.want, got)
			}
		})
	}
}

func TestPredictWithScaler(t *testing.T) {
	coef := make([]float64, 13)
	coef[0] = 1.0
	mean := make([]float64, 13)
	mean[0] = 10.0
	scale := make([]float64, 13)
	for i := range scale {
		scale[i] = 1.0
	}
	scale[0] = 2.0

	m := &LogisticModel{Coefficients: coef, Classes: []int{0, 1}, Scaler: &Scaler{Mean: mean, Scale: scale}}

	features := make([]float64, 13)
	features[0] = 14.0 // standardized: (14-10)/2 = 2
	probs, err := m.PredictProba(features)
	if err != nil {
		t.Fatalf("PredictProba failed: %v", err)
	}
	want := 1.0 / (1.0 + math.Exp(-2.0))
	if math.Abs(probs[1]-want) > 1e-12 {
		t.Errorf("Expected P(depressed) %f, got %f", want, probs[1])
	}
}

func TestSingleClassDegradedMode(t *testing.T) {
	m := &LogisticModel{Coefficients: testCoefficients(), Classes: []int{0}}

	features := make([]float64, 13)
	probs, err := m.PredictProba(features)
	if err != nil {
		t.Fatalf("PredictProba failed: %v", err)
	}
	if len(probs) != 1 || probs[0] != 1.0 {
		t.Errorf("Expected single probability [1.0], got %v", probs)
	}

	label, err := m.Predict(features)
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	if label != 0 {
		t.Errorf("Expected the single class 0, got %d", label)
	}
}

func TestPredictRejectsBadInput(t *testing.T) {
	m := &LogisticModel{Coefficients: testCoefficients(), Classes: []int{0, 1}}

	tests := []struct {
		name     string
		features []float64
	}{
		{"Wrong arity", make([]float64, 5)},
		{"NaN feature", append(make([]float64, 12), math.NaN())},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.PredictProba(tt.features)
			if err == nil {
				t.Fatal("Expected error")
			}
			var modelErr *ModelError
			if !errors.As(err, &modelErr) {
				t.Errorf("Expected *ModelError, got %T", err)
			}
		})
	}
}

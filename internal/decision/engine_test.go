package decision

import (
	"errors"
	"testing"
	"time"

	"github.com/voxscreen/voxscreen/pkg/models"
)

// recordingHistory captures appends for assertions.
type recordingHistory struct {
	sessionIDs []string
	summaries  []string
	failWith   error
}

func (h *recordingHistory) Append(sessionID string, label models.Label, pct float64, summary string) error {
	if h.failWith != nil {
		return h.failWith
	}
	h.sessionIDs = append(h.sessionIDs, sessionID)
	h.summaries = append(h.summaries, summary)
	return nil
}

func fixedClock() func() time.Time {
	ts := time.Date(2026, 8, 31, 10, 30, 0, 0, time.UTC)
	return func() time.Time { return ts }
}

func TestDecideBinaryDepressed(t *testing.T) {
	history := &recordingHistory{}
	engine := NewEngine(history, fixedClock())

	rec, err := engine.Decide("session-1", 1, []float64{0.2, 0.8})
	if err != nil {
		t.Fatalf("Decide failed: %v", err)
	}

	if rec.Label != models.Depressed {
		t.Errorf("Expected label Depressed, got %q", rec.Label)
	}
	if rec.ConfidencePercent != 80.0 {
		t.Errorf("Expected confidence 80.0, got %f", rec.ConfidencePercent)
	}
	if rec.Advisory != models.AdvisoryFor(models.Depressed) {
		t.Errorf("Unexpected advisory: %q", rec.Advisory)
	}
	if len(history.summaries) != 1 || history.summaries[0] != "Depressed (80.00%)" {
		t.Errorf("Unexpected history append: %v", history.summaries)
	}
}

func TestDecideBinaryNotDepressedComplement(t *testing.T) {
	engine := NewEngine(&recordingHistory{}, fixedClock())

	rec, err := engine.Decide("session-1", 0, []float64{0.7, 0.3})
	if err != nil {
		t.Fatalf("Decide failed: %v", err)
	}

	if rec.Label != models.NotDepressed {
		t.Errorf("Expected label Not Depressed, got %q", rec.Label)
	}
	// Displayed confidence is the complement of the depressed-class
	// probability: 100 - 30 = 70.
	if rec.ConfidencePercent != 70.0 {
		t.Errorf("Expected confidence 70.0, got %f", rec.ConfidencePercent)
	}
}

func TestDecideSingleClassDegradedMode(t *testing.T) {
	engine := NewEngine(&recordingHistory{}, fixedClock())

	rec, err := engine.Decide("session-1", 0, []float64{0.95})
	if err != nil {
		t.Fatalf("Decide failed: %v", err)
	}

	if rec.Label != models.NotDepressed {
		t.Errorf("Expected label Not Depressed, got %q", rec.Label)
	}
	if rec.ConfidencePercent != 95.0 {
		t.Errorf("Expected confidence 95.0, got %f", rec.ConfidencePercent)
	}
}

func TestDecideEmptyProbabilities(t *testing.T) {
	engine := NewEngine(&recordingHistory{}, fixedClock())

	if _, err := engine.Decide("session-1", 1, nil); !errors.Is(err, ErrNoProbabilities) {
		t.Errorf("Expected ErrNoProbabilities, got %v", err)
	}
}

func TestLabelMappingIsTotal(t *testing.T) {
	for _, raw := range []int{-3, 0, 1, 2, 7} {
		want := models.NotDepressed
		if raw == 1 {
			want = models.Depressed
		}
		if got := models.LabelFromRaw(raw); got != want {
			t.Errorf("LabelFromRaw(%d) = %q, want %q", raw, got, want)
		}
	}
}

func TestConfidenceBounds(t *testing.T) {
	tests := []struct {
		name  string
		probs []float64
		label int
	}{
		{"Certain depressed", []float64{0, 1}, 1},
		{"Certain healthy", []float64{1, 0}, 0},
		{"Even split", []float64{0.5, 0.5}, 1},
		{"Single class zero", []float64{0}, 0},
		{"Single class one", []float64{1}, 1},
		{"Awkward rounding", []float64{0.335, 0.665}, 1},
	}

	engine := NewEngine(nil, fixedClock())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := engine.Decide("s", tt.label, tt.probs)
			if err != nil {
				t.Fatalf("Decide failed: %v", err)
			}
			if rec.ConfidencePercent < 0 || rec.ConfidencePercent > 100 {
				t.Errorf("Confidence out of [0,100]: %f", rec.ConfidencePercent)
			}
		})
	}
}

func TestDecideRoundsToTwoDecimals(t *testing.T) {
	engine := NewEngine(nil, fixedClock())

	rec, err := engine.Decide("s", 1, []float64{0.333333, 0.666667})
	if err != nil {
		t.Fatalf("Decide failed: %v", err)
	}
	if rec.ConfidencePercent != 66.67 {
		t.Errorf("Expected 66.67, got %f", rec.ConfidencePercent)
	}
}

func TestDecidePropagatesHistoryError(t *testing.T) {
	wantErr := errors.New("history closed")
	engine := NewEngine(&recordingHistory{failWith: wantErr}, fixedClock())

	if _, err := engine.Decide("s", 1, []float64{0.2, 0.8}); !errors.Is(err, wantErr) {
		t.Errorf("Expected history error to propagate, got %v", err)
	}
}

func TestDecideUsesClock(t *testing.T) {
	engine := NewEngine(nil, fixedClock())

	rec, err := engine.Decide("s", 1, []float64{0.2, 0.8})
	if err != nil {
		t.Fatalf("Decide failed: %v", err)
	}
	want := time.Date(2026, 8, 31, 10, 30, 0, 0, time.UTC)
	if !rec.Timestamp.Equal(want) {
		t.Errorf("Expected timestamp %v, got %v", want, rec.Timestamp)
	}
}

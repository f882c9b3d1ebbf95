// Package decision turns raw classifier output into a decision record: a
// label, a confidence percentage attributed to that label, and the fixed
// advisory text, with an append to the session history as a side effect.
package decision

import (
	"errors"
	"math"
	"time"

	"github.com/voxscreen/voxscreen/pkg/models"
)

// ErrNoProbabilities is returned when the classifier hands back an empty
// probability sequence. That is a contract violation, not a degraded mode.
var ErrNoProbabilities = errors.New("decision: empty probability sequence")

// Confidence is the tagged representation of the classifier's probability
// output. The two shapes are explicit so the degraded single-class mode is
// visible in the types rather than inferred from slice length at call time.
type Confidence interface {
	// Percent returns the confidence percentage attributed to the decided
	// label, rounded to two decimal places.
	Percent(l models.Label) float64
}

// BinaryConfidence is the normal two-class shape; PPositive is the
// probability of the depressed class (index 1).
type BinaryConfidence struct {
	PNegative float64
	PPositive float64
}

// Percent applies the complement rule: the recorded percentage is the
// depressed-class probability for a Depressed decision and its complement
// otherwise. The complement is taken after rounding, matching the
// training-side convention.
func (c BinaryConfidence) Percent(l models.Label) float64 {
	base := round2(c.PPositive * 100)
	if l == models.Depressed {
		return base
	}
	return round2(100 - base)
}

// SingleClassConfidence is the degraded mode for single-class models: one
// probability, attributed to whichever label was predicted. Defined
// behavior, not an error.
type SingleClassConfidence struct {
	Value float64
}

func (c SingleClassConfidence) Percent(models.Label) float64 {
	return round2(c.Value * 100)
}

// ConfidenceFromProbabilities converts a raw probability sequence into its
// tagged form. Sequences of length >= 2 use index 1 as the depressed class;
// extra entries beyond the first two are never reinterpreted.
func ConfidenceFromProbabilities(probs []float64) (Confidence, error) {
	switch {
	case len(probs) == 0:
		return nil, ErrNoProbabilities
	case len(probs) == 1:
		return SingleClassConfidence{Value: probs[0]}, nil
	default:
		return BinaryConfidence{PNegative: probs[0], PPositive: probs[1]}, nil
	}
}

// HistoryAppender receives one summary line per successful decision.
// Implementations must serialize appends within a session.
type HistoryAppender interface {
	Append(sessionID string, label models.Label, confidencePercent float64, summary string) error
}

// Engine builds decision records and maintains the session history.
type Engine struct {
	history HistoryAppender
	now     func() time.Time
}

// NewEngine creates an engine. history may be nil for callers that discard
// history (one-shot report rendering); now defaults to time.Now.
func NewEngine(history HistoryAppender, now func() time.Time) *Engine {
	if now == nil {
		now = time.Now
	}
	return &Engine{history: history, now: now}
}

// Decide maps the raw label and probabilities onto an immutable record and
// appends its summary to the session history. The history write is the only
// side effect; the record itself never changes after this returns.
func (e *Engine) Decide(sessionID string, rawLabel int, probs []float64) (*models.DecisionRecord, error) {
	conf, err := ConfidenceFromProbabilities(probs)
	if err != nil {
		return nil, err
	}

	label := models.LabelFromRaw(rawLabel)
	rec := &models.DecisionRecord{
		Label:             label,
		ConfidencePercent: conf.Percent(label),
		Timestamp:         e.now(),
		Advisory:          models.AdvisoryFor(label),
	}

	if e.history != nil {
		if err := e.history.Append(sessionID, rec.Label, rec.ConfidencePercent, rec.Summary()); err != nil {
			return nil, err
		}
	}
	return rec, nil
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}

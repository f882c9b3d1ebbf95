package models

import (
	"fmt"
	"time"
)

// Label is the screening outcome shown to the caller.
type Label string

const (
	Depressed    Label = "Depressed"
	NotDepressed Label = "Not Depressed"
)

// LabelFromRaw maps the classifier's raw class value onto a Label.
// The mapping is total and binary: 1 means depressed, everything else
// does not. Multi-class values are never reinterpreted.
func LabelFromRaw(raw int) Label {
	if raw == 1 {
		return Depressed
	}
	return NotDepressed
}

// AdvisoryFor returns the fixed advisory message for a label. The message
// is keyed solely by label; confidence magnitude never changes it. Both the
// decision surface and the PDF report derive the text from here so the two
// can never drift apart.
func AdvisoryFor(l Label) string {
	if l == Depressed {
		return "Please consult a professional if this is a real concern."
	}
	return "Voice sounds healthy. Keep monitoring regularly."
}

// DecisionRecord is the immutable result of one classification request.
// ConfidencePercent is already attributed to Label (the complement rule has
// been applied for Not Depressed) and rounded to two decimal places.
type DecisionRecord struct {
	Label             Label     `json:"label"`
	ConfidencePercent float64   `json:"confidence_percent"`
	Timestamp         time.Time `json:"timestamp"`
	Advisory          string    `json:"advisory"`
}

// Summary renders the short history line for this decision.
func (r DecisionRecord) Summary() string {
	return fmt.Sprintf("%s (%.2f%%)", r.Label, r.ConfidencePercent)
}

// HistoryEntry is one stored decision summary within a session. Seq is the
// insertion-order sequence number; callers that want newest-first output
// reverse at render time.
type HistoryEntry struct {
	Seq               uint      `json:"seq"`
	Label             Label     `json:"label"`
	ConfidencePercent float64   `json:"confidence_percent"`
	Summary           string    `json:"summary"`
	CreatedAt         time.Time `json:"created_at"`
}

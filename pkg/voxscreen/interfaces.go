package voxscreen

import (
	"context"

	"github.com/voxscreen/voxscreen/pkg/models"
)

// Service is the audio-to-decision pipeline surface consumed by the CLI
// and the HTTP server.
type Service interface {
	// CreateSession starts a new history scope and returns its ID.
	CreateSession() (string, error)
	// EndSession destroys a session together with its history.
	EndSession(sessionID string) error
	// Analyze runs one upload through decode, feature extraction,
	// classification and decision, appending the result to the session
	// history.
	Analyze(ctx context.Context, sessionID string, raw []byte) (*models.DecisionRecord, error)
	// Report renders the PDF document for a decision and returns the bytes
	// plus the suggested filename. A failure here never invalidates the
	// decision itself.
	Report(rec *models.DecisionRecord) ([]byte, string, error)
	// History returns the session's decision summaries in insertion order.
	History(sessionID string) ([]models.HistoryEntry, error)
	// Spectrogram renders a PNG of the clip's analysis window.
	Spectrogram(raw []byte, width, height int) ([]byte, error)
	// SessionCount reports the number of live sessions.
	SessionCount() (int64, error)
	Close() error
}

// Model is the pre-fitted classifier contract. The implementation is
// loaded once at process start and shared read-only by all requests.
type Model interface {
	Predict(features []float64) (int, error)
	PredictProba(features []float64) ([]float64, error)
}

// HistoryStore keeps per-session decision history. Appends must be atomic
// with respect to the session.
type HistoryStore interface {
	Create() (string, error)
	Append(sessionID string, label models.Label, confidencePercent float64, summary string) error
	History(sessionID string) ([]models.HistoryEntry, error)
	Destroy(sessionID string) error
	Count() (int64, error)
	Close() error
}

type Logger interface {
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
	Debugf(format string, args ...any)
}

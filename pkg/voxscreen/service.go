// Package voxscreen wires the audio-to-decision pipeline together behind a
// single Service: decode, mean-MFCC extraction, classification, decision
// and reporting, with an append-only per-session history.
package voxscreen

import (
	"context"
	"fmt"

	"github.com/voxscreen/voxscreen/internal/audio"
	"github.com/voxscreen/voxscreen/internal/classifier"
	"github.com/voxscreen/voxscreen/internal/decision"
	"github.com/voxscreen/voxscreen/internal/mfcc"
	"github.com/voxscreen/voxscreen/internal/report"
	"github.com/voxscreen/voxscreen/internal/session"
	"github.com/voxscreen/voxscreen/internal/spectro"
	"github.com/voxscreen/voxscreen/pkg/logger"
	"github.com/voxscreen/voxscreen/pkg/models"
)

// screeningService is the default implementation of the Service interface.
type screeningService struct {
	model     Model
	history   HistoryStore
	extractor *mfcc.Extractor
	engine    *decision.Engine
	reports   *report.Builder
	log       Logger
	config    *Config
}

func NewService(opts ...Option) (Service, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.Logger == nil {
		cfg.Logger = logger.GetLogger()
	}

	// Load the pre-fitted model once; it is immutable from here on and
	// shared read-only by every request.
	model := cfg.Model
	if model == nil {
		m, err := classifier.LoadLogistic(cfg.ModelPath)
		if err != nil {
			return nil, fmt.Errorf("loading model: %w", err)
		}
		model = m
	}

	history := cfg.History
	if history == nil {
		store, err := session.NewStoreWithDSN(cfg.HistoryDSN)
		if err != nil {
			return nil, fmt.Errorf("creating history store: %w", err)
		}
		history = store
	}

	return &screeningService{
		model:     model,
		history:   history,
		extractor: mfcc.NewExtractor(),
		engine:    decision.NewEngine(history, cfg.Now),
		reports:   report.NewBuilder(),
		log:       cfg.Logger,
		config:    cfg,
	}, nil
}

func (s *screeningService) CreateSession() (string, error) {
	id, err := s.history.Create()
	if err != nil {
		return "", err
	}
	s.log.Infof("Created session %s", id)
	return id, nil
}

func (s *screeningService) EndSession(sessionID string) error {
	if err := s.history.Destroy(sessionID); err != nil {
		return err
	}
	s.log.Infof("Ended session %s", sessionID)
	return nil
}

// Analyze runs one upload through the pipeline. Decode and extraction
// failures abort before any classification attempt; their typed errors
// pass through unwrapped so callers can tell "bad file" from "internal
// error".
func (s *screeningService) Analyze(ctx context.Context, sessionID string, raw []byte) (*models.DecisionRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.log.Infof("Analyzing clip (%d bytes) for session %s", len(raw), sessionID)

	// 1. Decode the upload into the fixed analysis window
	buf, err := audio.Load(raw)
	if err != nil {
		return nil, err
	}
	s.log.Debugf("Decoded %d samples at %d Hz (%.2fs)", len(buf.Samples), buf.SampleRate, buf.Duration())

	// 2. Extract the 13 mean MFCCs at the clip's native rate
	vec, err := s.extractor.Extract(buf)
	if err != nil {
		return nil, err
	}

	// 3. Run the pre-fitted classifier
	rawLabel, err := s.model.Predict(vec)
	if err != nil {
		return nil, err
	}
	probs, err := s.model.PredictProba(vec)
	if err != nil {
		return nil, err
	}

	// 4. Derive the decision record and append it to the session history
	rec, err := s.engine.Decide(sessionID, rawLabel, probs)
	if err != nil {
		return nil, err
	}

	s.log.Infof("Decision for session %s: %s", sessionID, rec.Summary())
	return rec, nil
}

func (s *screeningService) Report(rec *models.DecisionRecord) ([]byte, string, error) {
	out, err := s.reports.Render(rec)
	if err != nil {
		return nil, "", err
	}
	return out, report.Filename, nil
}

func (s *screeningService) History(sessionID string) ([]models.HistoryEntry, error) {
	return s.history.History(sessionID)
}

func (s *screeningService) Spectrogram(raw []byte, width, height int) ([]byte, error) {
	buf, err := audio.Load(raw)
	if err != nil {
		return nil, err
	}
	return spectro.RenderPNG(buf, width, height)
}

func (s *screeningService) SessionCount() (int64, error) {
	return s.history.Count()
}

func (s *screeningService) Close() error {
	return s.history.Close()
}

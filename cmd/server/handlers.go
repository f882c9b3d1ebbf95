package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/voxscreen/voxscreen/internal/audio"
	"github.com/voxscreen/voxscreen/internal/classifier"
	"github.com/voxscreen/voxscreen/internal/mfcc"
	"github.com/voxscreen/voxscreen/internal/session"
	"github.com/voxscreen/voxscreen/internal/spectro"
	"github.com/voxscreen/voxscreen/pkg/logger"
	"github.com/voxscreen/voxscreen/pkg/models"
	"github.com/voxscreen/voxscreen/pkg/voxscreen"
)

// Server encapsulates the HTTP server and its dependencies
type Server struct {
	service voxscreen.Service
	config  *ServerConfig
	log     voxscreen.Logger
	started time.Time
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port           int
	ModelPath      string
	HistoryDSN     string
	AllowedOrigins []string
}

// NewServer creates a new server instance
func NewServer(service voxscreen.Service, config *ServerConfig) *Server {
	return &Server{
		service: service,
		config:  config,
		log:     logger.GetLogger(),
		started: time.Now(),
	}
}

// respondJSON writes a JSON response
func (s *Server) respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Errorf("Failed to encode JSON response: %v", err)
	}
}

// respondError writes an error response
func (s *Server) respondError(w http.ResponseWriter, statusCode int, message string) {
	s.respondJSON(w, statusCode, ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	})
}

// respondAnalysisError maps pipeline errors onto HTTP statuses. Upload
// problems are the caller's fault; everything past feature extraction is
// ours.
func (s *Server) respondAnalysisError(w http.ResponseWriter, err error) {
	var decodeErr *audio.DecodeError
	var extractErr *mfcc.ExtractionError
	var modelErr *classifier.ModelError

	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		s.respondError(w, http.StatusNotFound, "Session not found")
	case errors.As(err, &decodeErr):
		s.respondError(w, http.StatusBadRequest, "could not read this audio file")
	case errors.As(err, &extractErr):
		s.respondError(w, http.StatusUnprocessableEntity, "clip too short for analysis")
	case errors.As(err, &modelErr):
		s.log.Errorf("Classifier failure: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Analysis failed")
	default:
		s.log.Errorf("Analysis failure: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Analysis failed")
	}
}

// readUpload pulls the "audio" part out of a multipart form into memory.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	if err := r.ParseMultipartForm(MaxUploadBytes); err != nil {
		s.log.Errorf("Failed to parse form: %v", err)
		s.respondError(w, http.StatusBadRequest, "Failed to parse form data")
		return nil, false
	}

	file, _, err := r.FormFile("audio")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "audio file is required")
		return nil, false
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		s.log.Errorf("Failed to read upload: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to read uploaded file")
		return nil, false
	}
	return raw, true
}

// handleRoot handles GET /
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"service": "VoxScreen API",
		"version": "1.0.0",
		"endpoints": map[string]string{
			"health":        "GET /health",
			"metrics":       "GET /api/health/metrics",
			"createSession": "POST /api/sessions",
			"endSession":    "DELETE /api/sessions/{id}",
			"history":       "GET /api/sessions/{id}/history",
			"analyze":       "POST /api/sessions/{id}/analyze",
			"report":        "POST /api/report",
			"spectrogram":   "POST /api/spectrogram",
		},
	})
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// handleMetrics handles GET /api/health/metrics
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	count, err := s.service.SessionCount()
	if err != nil {
		s.log.Errorf("Failed to get session count: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to retrieve metrics")
		return
	}

	s.respondJSON(w, http.StatusOK, MetricsResponse{
		Status:       "healthy",
		ModelPath:    s.config.ModelPath,
		SessionCount: count,
		Uptime:       time.Since(s.started).Round(time.Second).String(),
	})
}

// handleCreateSession handles POST /api/sessions
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	id, err := s.service.CreateSession()
	if err != nil {
		s.log.Errorf("Failed to create session: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to create session")
		return
	}

	s.respondJSON(w, http.StatusCreated, CreateSessionResponse{
		SessionID: id,
		Message:   "Session created",
	})
}

// handleEndSession handles DELETE /api/sessions/{id}
func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request, sessionID string) {
	if err := s.service.EndSession(sessionID); err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			s.respondError(w, http.StatusNotFound, fmt.Sprintf("Session %s not found", sessionID))
			return
		}
		s.log.Errorf("Failed to end session %s: %v", sessionID, err)
		s.respondError(w, http.StatusInternalServerError, "Failed to end session")
		return
	}

	s.respondJSON(w, http.StatusOK, EndSessionResponse{
		Message:   "Session ended",
		SessionID: sessionID,
	})
}

// handleHistory handles GET /api/sessions/{id}/history
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request, sessionID string) {
	entries, err := s.service.History(sessionID)
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			s.respondError(w, http.StatusNotFound, fmt.Sprintf("Session %s not found", sessionID))
			return
		}
		s.log.Errorf("Failed to read history for %s: %v", sessionID, err)
		s.respondError(w, http.StatusInternalServerError, "Failed to retrieve history")
		return
	}

	// Storage keeps insertion order; this endpoint is the render surface,
	// so reverse here for newest-first display.
	dtos := make([]HistoryEntryDTO, len(entries))
	for i := range dtos {
		e := entries[len(entries)-1-i]
		dtos[i] = HistoryEntryDTO{
			Seq:               e.Seq,
			Label:             string(e.Label),
			ConfidencePercent: e.ConfidencePercent,
			Summary:           e.Summary,
			CreatedAt:         e.CreatedAt,
		}
	}

	s.respondJSON(w, http.StatusOK, HistoryResponse{
		SessionID: sessionID,
		Entries:   dtos,
		Count:     len(dtos),
	})
}

// handleAnalyze handles POST /api/sessions/{id}/analyze (multipart upload)
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request, sessionID string) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Minute)
	defer cancel()

	raw, ok := s.readUpload(w, r)
	if !ok {
		return
	}

	rec, err := s.service.Analyze(ctx, sessionID, raw)
	if err != nil {
		s.respondAnalysisError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, DecisionDTO{
		Label:             string(rec.Label),
		ConfidencePercent: rec.ConfidencePercent,
		Advisory:          rec.Advisory,
		Timestamp:         rec.Timestamp,
	})
}

// handleReport handles POST /api/report and streams the PDF back
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	var req ReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	ts := req.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	label := models.Label(req.Label)
	rec := &models.DecisionRecord{
		Label:             label,
		ConfidencePercent: req.ConfidencePercent,
		Timestamp:         ts,
		Advisory:          models.AdvisoryFor(label),
	}

	out, filename, err := s.service.Report(rec)
	if err != nil {
		s.log.Errorf("Failed to render report: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to render report")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(out); err != nil {
		s.log.Errorf("Failed to write PDF response: %v", err)
	}
}

// handleSpectrogram handles POST /api/spectrogram (multipart upload)
func (s *Server) handleSpectrogram(w http.ResponseWriter, r *http.Request) {
	raw, ok := s.readUpload(w, r)
	if !ok {
		return
	}

	out, err := s.service.Spectrogram(raw, spectro.DefaultWidth, spectro.DefaultHeight)
	if err != nil {
		var decodeErr *audio.DecodeError
		if errors.As(err, &decodeErr) {
			s.respondError(w, http.StatusBadRequest, "could not read this audio file")
			return
		}
		s.log.Errorf("Failed to render spectrogram: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to render spectrogram")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(out); err != nil {
		s.log.Errorf("Failed to write PNG response: %v", err)
	}
}

// handleSessions routes requests to /api/sessions
func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	s.handleCreateSession(w, r)
}

// handleSession routes requests to /api/sessions/{id} and its subresources
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/sessions/")
	if rest == "" {
		s.respondError(w, http.StatusBadRequest, "Session ID required")
		return
	}

	sessionID, sub, _ := strings.Cut(rest, "/")
	switch {
	case sub == "" && r.Method == http.MethodDelete:
		s.handleEndSession(w, r, sessionID)
	case sub == "history" && r.Method == http.MethodGet:
		s.handleHistory(w, r, sessionID)
	case sub == "analyze" && r.Method == http.MethodPost:
		s.handleAnalyze(w, r, sessionID)
	default:
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// handleReportRoute routes requests to /api/report
func (s *Server) handleReportRoute(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	s.handleReport(w, r)
}

// handleSpectrogramRoute routes requests to /api/spectrogram
func (s *Server) handleSpectrogramRoute(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	s.handleSpectrogram(w, r)
}

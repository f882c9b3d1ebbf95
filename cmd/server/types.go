package main

import (
	"fmt"
	"math"
	"time"
)

// MaxUploadBytes caps multipart audio uploads (25MB covers several minutes
// of 16-bit PCM at 44.1 kHz).
const MaxUploadBytes = 25 << 20

// CreateSessionResponse is the response for POST /api/sessions
type CreateSessionResponse struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

// EndSessionResponse is the response for DELETE /api/sessions/{id}
type EndSessionResponse struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

// DecisionDTO represents a screening decision in API responses
type DecisionDTO struct {
	Label             string    `json:"label"`
	ConfidencePercent float64   `json:"confidence_percent"`
	Advisory          string    `json:"advisory"`
	Timestamp         time.Time `json:"timestamp"`
}

// HistoryEntryDTO represents one past decision of a session
type HistoryEntryDTO struct {
	Seq               uint      `json:"seq"`
	Label             string    `json:"label"`
	ConfidencePercent float64   `json:"confidence_percent"`
	Summary           string    `json:"summary"`
	CreatedAt         time.Time `json:"created_at"`
}

// HistoryResponse is the response for GET /api/sessions/{id}/history
type HistoryResponse struct {
	SessionID string            `json:"session_id"`
	Entries   []HistoryEntryDTO `json:"entries"`
	Count     int               `json:"count"`
}

// ReportRequest is the request body for POST /api/report
type ReportRequest struct {
	Label             string    `json:"label"`
	ConfidencePercent float64   `json:"confidence_percent"`
	Timestamp         time.Time `json:"timestamp,omitempty"`
}

// Validate checks if the request is valid
func (r *ReportRequest) Validate() error {
	if r.Label != "Depressed" && r.Label != "Not Depressed" {
		return fmt.Errorf("label must be %q or %q", "Depressed", "Not Depressed")
	}
	if math.IsNaN(r.ConfidencePercent) || r.ConfidencePercent < 0 || r.ConfidencePercent > 100 {
		return fmt.Errorf("confidence_percent must be between 0 and 100")
	}
	return nil
}

// MetricsResponse provides server health and store metrics
type MetricsResponse struct {
	Status       string `json:"status"`
	ModelPath    string `json:"model_path"`
	SessionCount int64  `json:"session_count"`
	Uptime       string `json:"uptime"`
}

// ErrorResponse is the standard error response format
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code,omitempty"`
}

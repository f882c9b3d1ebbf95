// Package session holds per-session decision history. Storage is
// append-only and insertion-ordered; callers reverse at render time when
// they want newest-first output. The default DSN is an in-memory SQLite
// database, so nothing survives the process and no cross-session
// persistence exists.
package session

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/voxscreen/voxscreen/pkg/models"
)

// DefaultDSN keeps history in memory, shared across connections within the
// process.
const DefaultDSN = "file::memory:?cache=shared"

var (
	errStoreNil = errors.New("session store is nil")

	// ErrSessionNotFound is returned for operations on unknown or already
	// destroyed sessions.
	ErrSessionNotFound = errors.New("session not found")
)

// Session is one interactive usage span.
type Session struct {
	ID        string `gorm:"primaryKey;type:varchar(36)"`
	CreatedAt time.Time
}

// Decision is one stored history line. The autoincrement ID is the
// insertion order.
type Decision struct {
	ID                uint   `gorm:"primaryKey;autoIncrement"`
	SessionID         string `gorm:"type:varchar(36);index:idx_session"`
	Label             string
	ConfidencePercent float64
	Summary           string
	CreatedAt         time.Time
}

// Store is the session history backend. Appends are serialized by the
// mutex so concurrent requests within one session cannot lose updates.
type Store struct {
	mu sync.Mutex
	DB *gorm.DB
	db *sql.DB
}

// NewStore opens the default in-memory store.
func NewStore() (*Store, error) {
	return NewStoreWithDSN(DefaultDSN)
}

func NewStoreWithDSN(dsn string) (*Store, error) {
	if dsn == "" {
		dsn = DefaultDSN
	}

	gormConfig := &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	}

	db, err := gorm.Open(sqlite.Open(dsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("opening session db: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting sql.DB from gorm: %w", err)
	}

	// A single connection keeps the in-memory database alive and makes the
	// append path strictly single-writer.
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&Session{}, &Decision{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("auto migrate: %w", err)
	}

	return &Store{DB: db, db: sqlDB}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Create registers a new session and returns its ID.
func (s *Store) Create() (string, error) {
	if s == nil || s.DB == nil {
		return "", errStoreNil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.NewString()
	if err := s.DB.Create(&Session{ID: id}).Error; err != nil {
		return "", fmt.Errorf("creating session: %w", err)
	}
	return id, nil
}

// Append stores one decision summary at the end of the session's history.
// The write is atomic with respect to the session.
func (s *Store) Append(sessionID string, label models.Label, confidencePercent float64, summary string) error {
	if s == nil || s.DB == nil {
		return errStoreNil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.DB.Transaction(func(tx *gorm.DB) error {
		var sess Session
		if err := tx.First(&sess, "id = ?", sessionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSessionNotFound
			}
			return fmt.Errorf("looking up session: %w", err)
		}
		entry := Decision{
			SessionID:         sessionID,
			Label:             string(label),
			ConfidencePercent: confidencePercent,
			Summary:           summary,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return fmt.Errorf("appending decision: %w", err)
		}
		return nil
	})
}

// History returns the session's entries in insertion order, oldest first.
func (s *Store) History(sessionID string) ([]models.HistoryEntry, error) {
	if s == nil || s.DB == nil {
		return nil, errStoreNil
	}

	var sess Session
	if err := s.DB.First(&sess, "id = ?", sessionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("looking up session: %w", err)
	}

	var rows []Decision
	if err := s.DB.Where("session_id = ?", sessionID).Order("id asc").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}

	entries := make([]models.HistoryEntry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, models.HistoryEntry{
			Seq:               r.ID,
			Label:             models.Label(r.Label),
			ConfidencePercent: r.ConfidencePercent,
			Summary:           r.Summary,
			CreatedAt:         r.CreatedAt,
		})
	}
	return entries, nil
}

// Destroy ends a session, deleting it together with its history.
func (s *Store) Destroy(sessionID string) error {
	if s == nil || s.DB == nil {
		return errStoreNil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ?", sessionID).Delete(&Session{})
		if res.Error != nil {
			return fmt.Errorf("deleting session: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrSessionNotFound
		}
		if err := tx.Where("session_id = ?", sessionID).Delete(&Decision{}).Error; err != nil {
			return fmt.Errorf("deleting session history: %w", err)
		}
		return nil
	})
}

// Count returns the number of live sessions.
func (s *Store) Count() (int64, error) {
	if s == nil || s.DB == nil {
		return 0, errStoreNil
	}
	var n int64
	if err := s.DB.Model(&Session{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("counting sessions: %w", err)
	}
	return n, nil
}

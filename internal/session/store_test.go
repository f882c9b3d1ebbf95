package session

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/voxscreen/voxscreen/pkg/models"
)

// setupStore creates a store backed by a throwaway database file so tests
// never share state.
func setupStore(t *testing.T) *Store {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "history.sqlite3")
	store, err := NewStoreWithDSN(dsn)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

func TestCreateSession(t *testing.T) {
	store := setupStore(t)

	id, err := store.Create()
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if id == "" {
		t.Fatal("Expected non-empty session ID")
	}

	n, err := store.Count()
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if n != 1 {
		t.Errorf("Expected 1 session, got %d", n)
	}
}

func TestAppendAndHistoryOrder(t *testing.T) {
	store := setupStore(t)
	id, err := store.Create()
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	const n = 5
	for i := 0; i < n; i++ {
		summary := fmt.Sprintf("Depressed (%d.00%%)", 50+i)
		if err := store.Append(id, models.Depressed, float64(50+i), summary); err != nil {
			t.Fatalf("Append %d failed: %v", i, err)
		}
	}

	entries, err := store.History(id)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(entries) != n {
		t.Fatalf("Expected %d entries, got %d", n, len(entries))
	}

	// Stored order is insertion order: oldest first, Seq strictly
	// increasing. Display reversal is the caller's job.
	for i := 1; i < len(entries); i++ {
		if entries[i].Seq <= entries[i-1].Seq {
			t.Errorf("Entries out of insertion order at %d: seq %d after %d", i, entries[i].Seq, entries[i-1].Seq)
		}
	}
	if entries[0].ConfidencePercent != 50 {
		t.Errorf("Expected oldest entry first, got confidence %f", entries[0].ConfidencePercent)
	}
	if entries[n-1].ConfidencePercent != float64(50+n-1) {
		t.Errorf("Expected newest entry last, got confidence %f", entries[n-1].ConfidencePercent)
	}
}

func TestSessionsAreIsolated(t *testing.T) {
	store := setupStore(t)

	first, _ := store.Create()
	second, _ := store.Create()

	if err := store.Append(first, models.Depressed, 80, "Depressed (80.00%)"); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	entries, err := store.History(second)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("Expected empty history for untouched session, got %d entries", len(entries))
	}
}

func TestUnknownSession(t *testing.T) {
	store := setupStore(t)

	if err := store.Append("missing", models.Depressed, 80, "x"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Append: expected ErrSessionNotFound, got %v", err)
	}
	if _, err := store.History("missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("History: expected ErrSessionNotFound, got %v", err)
	}
	if err := store.Destroy("missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Destroy: expected ErrSessionNotFound, got %v", err)
	}
}

func TestDestroyClearsHistory(t *testing.T) {
	store := setupStore(t)
	id, _ := store.Create()

	if err := store.Append(id, models.NotDepressed, 70, "Not Depressed (70.00%)"); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	if err := store.Destroy(id); err != nil {
		t.Fatalf("Destroy failed: %v", err)
	}

	if _, err := store.History(id); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound after destroy, got %v", err)
	}

	n, err := store.Count()
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if n != 0 {
		t.Errorf("Expected 0 sessions after destroy, got %d", n)
	}

	// Orphaned rows must not linger either.
	var rows int64
	if err := store.DB.Model(&Decision{}).Where("session_id = ?", id).Count(&rows).Error; err != nil {
		t.Fatalf("Counting rows failed: %v", err)
	}
	if rows != 0 {
		t.Errorf("Expected history rows to be deleted, found %d", rows)
	}
}

func TestConcurrentAppends(t *testing.T) {
	store := setupStore(t)
	id, _ := store.Create()

	const writers = 4
	const perWriter = 10

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				summary := fmt.Sprintf("writer %d decision %d", w, i)
				if err := store.Append(id, models.Depressed, 80, summary); err != nil {
					t.Errorf("Append failed: %v", err)
					return
				}
			}
		}(w)
	}
	wg.Wait()

	entries, err := store.History(id)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(entries) != writers*perWriter {
		t.Errorf("Expected %d entries, got %d", writers*perWriter, len(entries))
	}
}

func TestNilStoreGuards(t *testing.T) {
	var store *Store

	if err := store.Close(); err != nil {
		t.Errorf("Close on nil store should be a no-op, got %v", err)
	}
	if _, err := store.Create(); err == nil {
		t.Error("Expected error from Create on nil store")
	}
	if err := store.Append("s", models.Depressed, 80, "x"); err == nil {
		t.Error("Expected error from Append on nil store")
	}
}

package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nvcfund/exchange-platform/internal/core/domain"
)

// Entry is one persisted fallback rate, keyed on disk by "FROM_TO".
type Entry struct {
	Rate    decimal.Decimal `json:"rate"`
	Updated time.Time       `json:"updated"`
	From    string          `json:"from"`
	To      string          `json:"to"`
}

// Store is a JSON-file-backed rate table for currency codes the relational
// schema cannot represent. Reads are served from memory; writes update memory
// synchronously and signal a background worker to rewrite the file, so
// callers never block on disk I/O. Flushes are coalesced and idempotent
// whole-file overwrites, giving at-least-once persistence of the latest state.
type Store struct {
	path   string
	logger *slog.Logger

	mu      sync.Mutex
	entries map[string]Entry

	dirty  chan struct{}
	stopCh chan struct{}
	wg     sync.WaitGroup
}

// New loads any existing fallback file and starts the flush worker.
// A missing file is an empty store; an unreadable one is logged and ignored.
func New(path string, logger *slog.Logger) (*Store, error) {
	if path == "" {
		return nil, errors.New("fallback store path cannot be empty")
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Store{
		path:    path,
		logger:  logger,
		entries: make(map[string]Entry),
		dirty:   make(chan struct{}, 1),
		stopCh:  make(chan struct{}),
	}

	if data, err := os.ReadFile(path); err == nil {
		if err := json.Unmarshal(data, &s.entries); err != nil {
			logger.Warn("Fallback rate file is malformed, starting empty",
				slog.String("path", path), slog.String("error", err.Error()))
			s.entries = make(map[string]Entry)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		logger.Warn("Failed to read fallback rate file, starting empty",
			slog.String("path", path), slog.String("error", err.Error()))
	}

	s.wg.Add(1)
	go s.flushWorker()

	return s, nil
}

// Key builds the on-disk key for a directed pair.
func Key(from, to domain.Currency) string {
	return fmt.Sprintf("%s_%s", from, to)
}

// Get returns the stored entry for a directed pair.
func (s *Store) Get(from, to domain.Currency) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[Key(from, to)]
	return e, ok
}

// Rate returns the stored rate and its update time for a directed pair.
func (s *Store) Rate(from, to domain.Currency) (decimal.Decimal, time.Time, bool) {
	e, ok := s.Get(from, to)
	if !ok {
		return decimal.Zero, time.Time{}, false
	}
	return e.Rate, e.Updated, true
}

// Set records a rate in memory and schedules a flush. It never blocks on disk.
func (s *Store) Set(from, to domain.Currency, rate decimal.Decimal, now time.Time) {
	s.mu.Lock()
	s.entries[Key(from, to)] = Entry{
		Rate:    rate,
		Updated: now,
		From:    from.String(),
		To:      to.String(),
	}
	s.mu.Unlock()

	// Coalesce: one pending signal covers any number of sets.
	select {
	case s.dirty <- struct{}{}:
	default:
	}
}

// Len returns the number of stored pairs.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *Store) flushWorker() {
	defer s.wg.Done()
	for {
		select {
		case <-s.dirty:
			if err := s.flush(); err != nil {
				s.logger.Error("Failed to flush fallback rate file",
					slog.String("path", s.path), slog.String("error", err.Error()))
			}
		case <-s.stopCh:
			// Final flush so a clean shutdown loses nothing.
			select {
			case <-s.dirty:
				if err := s.flush(); err != nil {
					s.logger.Error("Failed final flush of fallback rate file",
						slog.String("path", s.path), slog.String("error", err.Error()))
				}
			default:
			}
			return
		}
	}
}

// flush snapshots the table and rewrites the whole file via rename, so
// readers never observe a torn write.
func (s *Store) flush() error {
	s.mu.Lock()
	snapshot := make(map[string]Entry, len(s.entries))
	for k, v := range s.entries {
		snapshot[k] = v
	}
	s.mu.Unlock()

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal fallback rates: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create fallback dir: %w", err)
	}
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write fallback rates: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace fallback rates: %w", err)
	}
	return nil
}

// Close stops the flush worker, waiting up to the context deadline.
func (s *Store) Close(ctx context.Context) error {
	close(s.stopCh)

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

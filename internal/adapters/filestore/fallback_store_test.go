package filestore

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvcfund/exchange-platform/internal/core/domain"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "currency_rates.json")
	s, err := New(path, slog.New(slog.NewTextHandler(os.Stderr, nil)))
	require.NoError(t, err)
	return s, path
}

func TestNew_EmptyPath(t *testing.T) {
	_, err := New("", nil)
	require.Error(t, err)
}

func TestNew_MissingFileStartsEmpty(t *testing.T) {
	s, _ := newTestStore(t)
	defer s.Close(context.Background())

	assert.Equal(t, 0, s.Len())
	_, _, ok := s.Rate(domain.USD, domain.SLL)
	assert.False(t, ok)
}

func TestNew_MalformedFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "currency_rates.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	s, err := New(path, nil)
	require.NoError(t, err)
	defer s.Close(context.Background())

	assert.Equal(t, 0, s.Len())
}

func TestSetAndRate_RoundTrip(t *testing.T) {
	s, _ := newTestStore(t)
	defer s.Close(context.Background())

	now := time.Now().UTC().Truncate(time.Second)
	s.Set(domain.USD, domain.SLL, decimal.RequireFromString("22000"), now)

	rate, updated, ok := s.Rate(domain.USD, domain.SLL)
	require.True(t, ok)
	assert.True(t, rate.Equal(decimal.RequireFromString("22000")))
	assert.Equal(t, now, updated)
	assert.Equal(t, 1, s.Len())

	// Directed pairs are distinct.
	_, _, ok = s.Rate(domain.SLL, domain.USD)
	assert.False(t, ok)
}

func TestSet_OverwritesExistingPair(t *testing.T) {
	s, _ := newTestStore(t)
	defer s.Close(context.Background())

	s.Set(domain.USD, domain.GMD, decimal.NewFromInt(60), time.Now())
	s.Set(domain.USD, domain.GMD, decimal.NewFromInt(62), time.Now())

	rate, _, ok := s.Rate(domain.USD, domain.GMD)
	require.True(t, ok)
	assert.True(t, rate.Equal(decimal.NewFromInt(62)))
	assert.Equal(t, 1, s.Len())
}

func TestClose_FlushesPendingWrites(t *testing.T) {
	s, path := newTestStore(t)

	now := time.Now().UTC()
	s.Set(domain.USD, domain.SLL, decimal.RequireFromString("22000"), now)
	s.Set(domain.USD, domain.XOF, decimal.RequireFromString("600"), now)

	require.NoError(t, s.Close(context.Background()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var entries map[string]Entry
	require.NoError(t, json.Unmarshal(data, &entries))
	require.Len(t, entries, 2)
	assert.True(t, entries[Key(domain.USD, domain.SLL)].Rate.Equal(decimal.RequireFromString("22000")))
	assert.Equal(t, "USD", entries[Key(domain.USD, domain.XOF)].From)
	assert.Equal(t, "XOF", entries[Key(domain.USD, domain.XOF)].To)
}

func TestNew_ReloadsPersistedEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "currency_rates.json")
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	first, err := New(path, logger)
	require.NoError(t, err)
	first.Set(domain.KES, domain.USD, decimal.RequireFromString("0.0077"), time.Now().UTC())
	require.NoError(t, first.Close(context.Background()))

	second, err := New(path, logger)
	require.NoError(t, err)
	defer second.Close(context.Background())

	rate, _, ok := second.Rate(domain.KES, domain.USD)
	require.True(t, ok)
	assert.True(t, rate.Equal(decimal.RequireFromString("0.0077")))
}

func TestClose_HonorsContextCancellation(t *testing.T) {
	s, _ := newTestStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// Worker exit is near-immediate, so either outcome is acceptable; the
	// call must not hang.
	_ = s.Close(ctx)
}

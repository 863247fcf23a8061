package engine

import (
	"sync"
	"time"

	"LunarPulse/internal/domain/models"
)

// DefaultRetention bounds the per-symbol history kept in memory. It covers the
// longest lookback any strategy uses (the 90-day OI trough window); everything
// older is pruned at write time so the store cannot grow without bound.
const DefaultRetention = 90 * 24 * time.Hour

// ObservationStore is an append-only per-symbol time series of observations.
// Out-of-order appends are rejected (not reordered): rejection keeps appends
// O(1) and window queries a simple suffix scan. Safe for concurrent use; each
// symbol holds its own slice, the top-level map is guarded by a single RWMutex.
type ObservationStore struct {
	mu        sync.RWMutex
	series    map[string][]models.Observation
	retention time.Duration
	now       func() time.Time
}

// StoreOption configures an ObservationStore.
type StoreOption func(*ObservationStore)

// WithRetention overrides the write-time retention bound.
func WithRetention(d time.Duration) StoreOption {
	return func(s *ObservationStore) {
		if d > 0 {
			s.retention = d
		}
	}
}

// WithClock overrides the store clock, for tests.
func WithClock(now func() time.Time) StoreOption {
	return func(s *ObservationStore) {
		s.now = now
	}
}

// NewObservationStore creates an empty store.
func NewObservationStore(opts ...StoreOption) *ObservationStore {
	s := &ObservationStore{
		series:    make(map[string][]models.Observation),
		retention: DefaultRetention,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Record appends an observation. Returns *OutOfOrderError when the timestamp
// precedes the last recorded one for the symbol; equal timestamps are accepted.
func (s *ObservationStore) Record(obs models.Observation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	seq := s.series[obs.Symbol]
	if n := len(seq); n > 0 && obs.Timestamp < seq[n-1].Timestamp {
		return &OutOfOrderError{Symbol: obs.Symbol, Got: obs.Timestamp, Last: seq[n-1].Timestamp}
	}
	seq = append(seq, obs)

	// Enforce retention on the write path, not just at query time.
	cutoff := s.now().Add(-s.retention).UnixMilli()
	if len(seq) > 0 && seq[0].Timestamp < cutoff {
		i := 0
		for i < len(seq) && seq[i].Timestamp < cutoff {
			i++
		}
		seq = append(seq[:0:0], seq[i:]...)
	}
	s.series[obs.Symbol] = seq
	return nil
}

// RangeSince returns observations with timestamp >= sinceMs, in recorded
// order. Unknown symbols yield an empty slice, not an error.
func (s *ObservationStore) RangeSince(symbol string, sinceMs int64) []models.Observation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seq := s.series[symbol]
	i := 0
	for i < len(seq) && seq[i].Timestamp < sinceMs {
		i++
	}
	out := make([]models.Observation, len(seq)-i)
	copy(out, seq[i:])
	return out
}

// Latest returns the most recent observation for symbol.
func (s *ObservationStore) Latest(symbol string) (models.Observation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seq := s.series[symbol]
	if len(seq) == 0 {
		return models.Observation{}, false
	}
	return seq[len(seq)-1], true
}

// Len returns the number of retained observations for symbol.
func (s *ObservationStore) Len(symbol string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.series[symbol])
}

package engine

import (
	"time"
)

// ExtremaTracker computes rolling maxima and minima over a lookback window.
// Pure read-side computation over an ObservationStore; no independent state.
// The OI strategy uses two named windows, a 1-day peak and a 90-day trough,
// both just different window arguments to the same primitives.
type ExtremaTracker struct {
	store *ObservationStore
	now   func() time.Time
}

// NewExtremaTracker creates a tracker over the given store.
func NewExtremaTracker(store *ObservationStore) *ExtremaTracker {
	return &ExtremaTracker{store: store, now: time.Now}
}

// SetClock overrides the tracker clock, for tests.
func (t *ExtremaTracker) SetClock(now func() time.Time) { t.now = now }

// Peak returns the maximum value over [now-window, now]. Returns
// *InsufficientDataError when no observation falls in the window; it never
// silently yields -Inf or NaN.
func (t *ExtremaTracker) Peak(symbol string, window time.Duration) (float64, error) {
	since := t.now().Add(-window).UnixMilli()
	obs := t.store.RangeSince(symbol, since)
	if len(obs) == 0 {
		return 0, &InsufficientDataError{Symbol: symbol, Window: window}
	}
	max := obs[0].Value
	for _, o := range obs[1:] {
		if o.Value > max {
			max = o.Value
		}
	}
	return max, nil
}

// Trough returns the minimum value over [now-window, now].
func (t *ExtremaTracker) Trough(symbol string, window time.Duration) (float64, error) {
	since := t.now().Add(-window).UnixMilli()
	obs := t.store.RangeSince(symbol, since)
	if len(obs) == 0 {
		return 0, &InsufficientDataError{Symbol: symbol, Window: window}
	}
	min := obs[0].Value
	for _, o := range obs[1:] {
		if o.Value < min {
			min = o.Value
		}
	}
	return min, nil
}

// PercentChange returns (b-a)/a*100. Returns *DivisionByZeroError when the
// base a is zero rather than propagating ±Inf.
func PercentChange(a, b float64) (float64, error) {
	if a == 0 {
		return 0, &DivisionByZeroError{Op: "percent change"}
	}
	return (b - a) / a * 100, nil
}

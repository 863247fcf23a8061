package engine

import (
	"errors"
	"testing"
	"time"

	"LunarPulse/internal/domain/models"
)

func newTrackerWithValues(t *testing.T, symbol string, values []float64) *ExtremaTracker {
	t.Helper()
	now := time.Now()
	s := NewObservationStore(WithClock(func() time.Time { return now }))
	base := now.Add(-time.Minute).UnixMilli()
	for i, v := range values {
		if err := s.Record(models.Observation{Symbol: symbol, Value: v, Timestamp: base + int64(i)}); err != nil {
			t.Fatalf("record: %v", err)
		}
	}
	tr := NewExtremaTracker(s)
	tr.SetClock(func() time.Time { return now })
	return tr
}

func TestPeakAndTrough(t *testing.T) {
	tr := newTrackerWithValues(t, "BTCUSDT", []float64{10, 30, 5, 22})

	peak, err := tr.Peak("BTCUSDT", time.Hour)
	if err != nil {
		t.Fatalf("peak: %v", err)
	}
	if peak != 30 {
		t.Fatalf("expected peak 30, got %v", peak)
	}

	trough, err := tr.Trough("BTCUSDT", time.Hour)
	if err != nil {
		t.Fatalf("trough: %v", err)
	}
	if trough != 5 {
		t.Fatalf("expected trough 5, got %v", trough)
	}
}

func TestPeakEmptyWindow(t *testing.T) {
	tr := newTrackerWithValues(t, "BTCUSDT", nil)
	_, err := tr.Peak("BTCUSDT", time.Hour)
	var ins *InsufficientDataError
	if !errors.As(err, &ins) {
		t.Fatalf("expected InsufficientDataError, got %v", err)
	}
	if _, err := tr.Trough("BTCUSDT", time.Hour); !errors.As(err, &ins) {
		t.Fatalf("expected InsufficientDataError for trough, got %v", err)
	}
}

func TestPeakWindowExcludesOldData(t *testing.T) {
	now := time.Now()
	s := NewObservationStore(WithClock(func() time.Time { return now }))
	_ = s.Record(models.Observation{Symbol: "BTCUSDT", Value: 100, Timestamp: now.Add(-48 * time.Hour).UnixMilli()})
	_ = s.Record(models.Observation{Symbol: "BTCUSDT", Value: 50, Timestamp: now.Add(-time.Minute).UnixMilli()})
	tr := NewExtremaTracker(s)
	tr.SetClock(func() time.Time { return now })

	peak, err := tr.Peak("BTCUSDT", 24*time.Hour)
	if err != nil {
		t.Fatalf("peak: %v", err)
	}
	if peak != 50 {
		t.Fatalf("expected 1-day peak to exclude 2-day-old value, got %v", peak)
	}
}

func TestPercentChange(t *testing.T) {
	got, err := PercentChange(200, 250)
	if err != nil {
		t.Fatalf("percent change: %v", err)
	}
	if got != 25 {
		t.Fatalf("expected 25, got %v", got)
	}
}

func TestPercentChangeZeroBase(t *testing.T) {
	_, err := PercentChange(0, 100)
	var div *DivisionByZeroError
	if !errors.As(err, &div) {
		t.Fatalf("expected DivisionByZeroError, got %v", err)
	}
}

package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"LunarPulse/internal/domain/models"
	"LunarPulse/pkg/cache"
)

type captureSink struct {
	recs []*models.SignalRecord
	err  error
}

func (s *captureSink) Publish(_ context.Context, rec *models.SignalRecord) error {
	if s.err != nil {
		return s.err
	}
	s.recs = append(s.recs, rec)
	return nil
}

func (s *captureSink) Close() error { return nil }

func TestMultiSinkFanOut(t *testing.T) {
	a := &captureSink{}
	b := &captureSink{}
	m := NewMultiSink(a, b)

	rec := &models.SignalRecord{Symbol: "BTCUSDT", Strategy: "open-interest", ProducedAt: time.Now()}
	if err := m.Publish(context.Background(), rec); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(a.recs) != 1 || len(b.recs) != 1 {
		t.Fatalf("expected both sinks to receive the record")
	}
}

func TestMultiSinkContinuesPastFailure(t *testing.T) {
	boom := errors.New("backend down")
	a := &captureSink{err: boom}
	b := &captureSink{}
	m := NewMultiSink(a, b)

	rec := &models.SignalRecord{Symbol: "ETHUSDT", Strategy: "moon-phase", ProducedAt: time.Now()}
	err := m.Publish(context.Background(), rec)
	if !errors.Is(err, boom) {
		t.Fatalf("expected joined error to contain backend failure, got %v", err)
	}
	if len(b.recs) != 1 {
		t.Fatalf("healthy sink must still receive the record")
	}
}

func TestRedisStateStoreRoundTrip(t *testing.T) {
	store := NewRedisStateStore(cache.NewMemoryCache())
	ctx := context.Background()

	loaded, err := store.LoadHotZone(ctx, "BTCUSDT")
	if err != nil {
		t.Fatalf("load absent: %v", err)
	}
	if loaded != nil {
		t.Fatalf("expected nil state for unknown symbol, got %+v", loaded)
	}

	state := &models.HotZoneState{
		Symbol:  "BTCUSDT",
		Anchor:  &models.LiquidationZone{Price: 100, Intensity: 5},
		HotZone: &models.LiquidationZone{Price: 90, Intensity: 7},
		HighSum: 3,
		LowSum:  7,
	}
	if err := store.SaveHotZone(ctx, state); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := store.LoadHotZone(ctx, "BTCUSDT")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got == nil || got.Anchor == nil || got.Anchor.Price != 100 || got.LowSum != 7 {
		t.Fatalf("unexpected state after round trip: %+v", got)
	}
}

func TestRedisStateStoreLunar(t *testing.T) {
	store := NewRedisStateStore(cache.NewMemoryCache())
	ctx := context.Background()

	if err := store.SaveLunar(ctx, &models.LunarState{Symbol: "BTCUSDT", LastNewMoonPrice: 42000}); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := store.LoadLunar(ctx, "BTCUSDT")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got == nil || got.LastNewMoonPrice != 42000 {
		t.Fatalf("unexpected lunar state: %+v", got)
	}
}

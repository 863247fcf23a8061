package middleware

import (
	"context"
	"errors"
	"testing"
	"time"

	"LunarPulse/internal/domain/models"
)

type stubSink struct {
	recs []*models.SignalRecord
	err  error
}

func (s *stubSink) Publish(_ context.Context, rec *models.SignalRecord) error {
	if s.err != nil {
		return s.err
	}
	s.recs = append(s.recs, rec)
	return nil
}

func (s *stubSink) Close() error { return nil }

type noopMetrics struct{}

func (noopMetrics) RecordSignal(_, _, _ string)         {}
func (noopMetrics) RecordError(_ string)                {}
func (noopMetrics) RecordLastPrice(_ string, _ float64) {}
func (noopMetrics) RecordLatency(_ string, _ float64)   {}

func rec(symbol, strategy, signal string) *models.SignalRecord {
	return &models.SignalRecord{
		Symbol:     symbol,
		Strategy:   strategy,
		Signal:     signal,
		Side:       models.SideLong,
		ProducedAt: time.Now(),
	}
}

func TestPipelineForwards(t *testing.T) {
	sink := &stubSink{}
	p := NewSignalPipeline(sink, noopMetrics{})
	if err := p.Process(context.Background(), rec("BTCUSDT", "open-interest", "open-longs")); err != nil {
		t.Fatalf("process: %v", err)
	}
	if len(sink.recs) != 1 {
		t.Fatalf("expected 1 record at sink, got %d", len(sink.recs))
	}
}

func TestPipelineRejectsInvalid(t *testing.T) {
	p := NewSignalPipeline(&stubSink{}, noopMetrics{})
	if err := p.Process(context.Background(), &models.SignalRecord{Strategy: "open-interest"}); err == nil {
		t.Fatalf("expected validation error for empty symbol")
	}
}

func TestPipelineDedupe(t *testing.T) {
	sink := &stubSink{}
	p := NewSignalPipeline(sink, noopMetrics{}, WithDedupeWindow(time.Minute))

	for i := 0; i < 3; i++ {
		if err := p.Process(context.Background(), rec("BTCUSDT", "open-interest", "close-longs")); err != nil {
			t.Fatalf("process: %v", err)
		}
	}
	if len(sink.recs) != 1 {
		t.Fatalf("expected duplicate suppression, got %d records", len(sink.recs))
	}

	// a different signal for the same pair passes through
	if err := p.Process(context.Background(), rec("BTCUSDT", "open-interest", "open-longs")); err != nil {
		t.Fatalf("process: %v", err)
	}
	if len(sink.recs) != 2 {
		t.Fatalf("expected new signal to pass, got %d records", len(sink.recs))
	}
}

func TestPipelineBuffersOnFailure(t *testing.T) {
	sink := &stubSink{err: errors.New("down")}
	p := NewSignalPipeline(sink, noopMetrics{}, WithBufferSize(4))

	if err := p.Process(context.Background(), rec("ETHUSDT", "moon-phase", "sell")); err == nil {
		t.Fatalf("expected downstream error")
	}
	if len(p.bufCh) != 1 {
		t.Fatalf("expected record buffered for retry, got %d", len(p.bufCh))
	}

	// backend recovers; flusher drains the buffer
	sink.err = nil
	p.Start(context.Background())
	defer p.Stop()

	deadline := time.After(2 * time.Second)
	for len(sink.recs) == 0 {
		select {
		case <-deadline:
			t.Fatalf("buffered record never flushed")
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
}

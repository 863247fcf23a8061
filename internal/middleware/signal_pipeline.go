package middleware

import (
	"context"
	"fmt"
	"sync"
	"time"

	"LunarPulse/internal/domain/models"
	domrepo "LunarPulse/internal/domain/repository"
)

// SignalPipeline sits between the strategy runner and the sinks. It
// validates, de-duplicates repeated identical signals per symbol+strategy,
// and buffers records when a downstream sink is unavailable so a flapping
// backend does not lose signals.
type SignalPipeline struct {
	sink    domrepo.Sink
	metrics domrepo.Metrics
	bufSize int
	dedupe  time.Duration
	bufCh   chan *models.SignalRecord
	stopCh  chan struct{}
	started bool
	mu      sync.Mutex
	// last emitted signal per symbol+strategy, used for suppression
	lastSig  map[string]string
	lastSeen map[string]time.Time
}

type PipelineOption func(*SignalPipeline)

// WithBufferSize sets the retry buffer size used when a sink is unavailable.
func WithBufferSize(n int) PipelineOption {
	return func(p *SignalPipeline) {
		if n > 0 {
			p.bufSize = n
		}
	}
}

// WithDedupeWindow sets how long an identical signal for the same
// symbol+strategy is suppressed. Zero disables suppression.
func WithDedupeWindow(d time.Duration) PipelineOption {
	return func(p *SignalPipeline) { p.dedupe = d }
}

func NewSignalPipeline(sink domrepo.Sink, metrics domrepo.Metrics, opts ...PipelineOption) *SignalPipeline {
	p := &SignalPipeline{
		sink:     sink,
		metrics:  metrics,
		bufSize:  1000,
		dedupe:   0,
		stopCh:   make(chan struct{}),
		lastSig:  make(map[string]string),
		lastSeen: make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.bufCh = make(chan *models.SignalRecord, p.bufSize)
	return p
}

// Start launches background flushing of buffered records.
func (p *SignalPipeline) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	go func() {
		backoff := 50 * time.Millisecond
		for {
			select {
			case <-p.stopCh:
				return
			case rec := <-p.bufCh:
				if rec == nil {
					continue
				}
				if err := p.sink.Publish(ctx, rec); err != nil {
					if backoff < 2*time.Second {
						backoff *= 2
					}
					p.metrics.RecordError("pipeline_flush")
					time.Sleep(backoff)
					select {
					case p.bufCh <- rec:
					default:
						p.metrics.RecordError("pipeline_buffer_drop")
					}
				} else {
					backoff = 50 * time.Millisecond
				}
			}
		}
	}()
}

// Stop stops the background flushing.
func (p *SignalPipeline) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.started = false
	p.mu.Unlock()
	close(p.stopCh)
}

// Process validates and forwards a record to the sink, buffering on failure.
// Suppressed duplicates return nil without reaching the sink.
func (p *SignalPipeline) Process(ctx context.Context, rec *models.SignalRecord) error {
	start := time.Now()
	if err := validateRecord(rec); err != nil {
		p.metrics.RecordError("pipeline_validate")
		return err
	}
	if !p.allow(rec, start) {
		p.metrics.RecordError("pipeline_duplicate")
		return nil
	}

	if err := p.sink.Publish(ctx, rec); err != nil {
		p.metrics.RecordError("pipeline_publish")
		select {
		case p.bufCh <- rec:
		default:
			p.metrics.RecordError("pipeline_buffer_full")
		}
		return fmt.Errorf("pipeline downstream: %w", err)
	}
	p.metrics.RecordLatency("pipeline_publish", time.Since(start).Seconds())
	return nil
}

func validateRecord(rec *models.SignalRecord) error {
	if rec == nil {
		return fmt.Errorf("record nil")
	}
	if rec.Symbol == "" {
		return fmt.Errorf("symbol empty")
	}
	if rec.Strategy == "" {
		return fmt.Errorf("strategy empty")
	}
	if rec.ProducedAt.IsZero() {
		return fmt.Errorf("produced_at zero")
	}
	return nil
}

func (p *SignalPipeline) allow(rec *models.SignalRecord, now time.Time) bool {
	if p.dedupe <= 0 {
		return true
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	key := rec.Symbol + ":" + rec.Strategy
	if p.lastSig[key] == rec.Signal && now.Sub(p.lastSeen[key]) < p.dedupe {
		return false
	}
	p.lastSig[key] = rec.Signal
	p.lastSeen[key] = now
	return true
}

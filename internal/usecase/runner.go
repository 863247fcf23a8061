package usecase

import (
	"context"
	"sync"
	"time"

	drepo "LunarPulse/internal/domain/repository"
	mid "LunarPulse/internal/middleware"
	"LunarPulse/internal/services/engine"
	applogger "LunarPulse/pkg/logger"
)

// Runner drives every registered strategy on its own ticker across the
// configured symbols. Evaluations for the same symbol are serialized with a
// per-symbol mutex so strategies on different cadences never interleave
// their read-modify-write cycles on shared state.
type Runner struct {
	strategies []Strategy
	symbols    []string
	pipe       *mid.SignalPipeline
	metrics    drepo.Metrics
	l          *applogger.Logger
	timeout    time.Duration

	mu      sync.Mutex
	symLock map[string]*sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func NewRunner(strategies []Strategy, symbols []string, pipe *mid.SignalPipeline, metrics drepo.Metrics, l *applogger.Logger, timeout time.Duration) *Runner {
	return &Runner{
		strategies: strategies,
		symbols:    symbols,
		pipe:       pipe,
		metrics:    metrics,
		l:          l,
		timeout:    timeout,
		symLock:    make(map[string]*sync.Mutex),
	}
}

func (r *Runner) lockFor(symbol string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.symLock[symbol]
	if !ok {
		m = &sync.Mutex{}
		r.symLock[symbol] = m
	}
	return m
}

// Restorer is implemented by strategies that carry persisted state.
type Restorer interface {
	Restore(ctx context.Context, symbols []string)
}

// Start launches one loop per strategy. Each loop fires an immediate first
// pass and then ticks at the strategy's interval.
func (r *Runner) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	r.pipe.Start(ctx)

	for _, st := range r.strategies {
		if res, ok := st.(Restorer); ok {
			res.Restore(ctx, r.symbols)
		}
	}

	for _, st := range r.strategies {
		r.wg.Add(1)
		go r.loop(ctx, st)
	}
	r.l.Info("strategy runner started",
		applogger.Int("strategies", len(r.strategies)),
		applogger.Strings("symbols", r.symbols),
	)
}

func (r *Runner) loop(ctx context.Context, st Strategy) {
	defer r.wg.Done()

	ticker := time.NewTicker(st.Interval())
	defer ticker.Stop()

	r.evaluateAll(ctx, st)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.evaluateAll(ctx, st)
		}
	}
}

func (r *Runner) evaluateAll(ctx context.Context, st Strategy) {
	for _, symbol := range r.symbols {
		if ctx.Err() != nil {
			return
		}
		r.evaluateOne(ctx, st, symbol)
	}
}

func (r *Runner) evaluateOne(ctx context.Context, st Strategy, symbol string) {
	lock := r.lockFor(symbol)
	lock.Lock()
	defer lock.Unlock()

	evalCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	recs, err := st.Evaluate(evalCtx, symbol)
	r.metrics.RecordLatency("strategy_"+st.Name(), time.Since(start).Seconds())
	if err != nil {
		if engine.IsRecoverable(err) {
			r.l.Debug("strategy skipped cycle",
				applogger.String("strategy", st.Name()),
				applogger.String("symbol", symbol),
				applogger.Error(err),
			)
		} else {
			r.metrics.RecordError("strategy_" + st.Name())
			r.l.Error("strategy evaluation failed",
				applogger.String("strategy", st.Name()),
				applogger.String("symbol", symbol),
				applogger.Error(err),
			)
		}
		return
	}

	for _, rec := range recs {
		if err := r.pipe.Process(ctx, rec); err != nil {
			r.l.Error("signal publish failed",
				applogger.String("strategy", st.Name()),
				applogger.String("symbol", symbol),
				applogger.Error(err),
			)
			continue
		}
		r.metrics.RecordSignal(rec.Strategy, rec.Symbol, string(rec.Side))
		if p, ok := rec.Payload["price"].(float64); ok {
			r.metrics.RecordLastPrice(rec.Symbol, p)
		}
		r.l.Info("signal emitted",
			applogger.String("strategy", rec.Strategy),
			applogger.String("symbol", rec.Symbol),
			applogger.String("signal", rec.Signal),
			applogger.String("side", string(rec.Side)),
		)
	}
}

// Stop cancels the loops and waits for in-flight evaluations to finish.
func (r *Runner) Stop() {
	if r.cancel != nil {
		r.cancel()
	}
	r.wg.Wait()
	r.pipe.Stop()
}

package usecase

import (
	"context"
	"time"

	"LunarPulse/internal/domain/models"
	drepo "LunarPulse/internal/domain/repository"
	"LunarPulse/internal/service/marketdata"
	"LunarPulse/internal/services/engine"
	"LunarPulse/pkg/cache"
	applogger "LunarPulse/pkg/logger"
)

// marketCapTTL bounds how often CoinGecko is hit per coin.
const marketCapTTL = 15 * time.Minute

// OpenInterestStrategy compares current open interest against its rolling
// peak and trough and emits close-longs / open-longs / rekt-warning signals.
type OpenInterestStrategy struct {
	src          drepo.DataSource
	store        *engine.ObservationStore
	extrema      *engine.ExtremaTracker
	gecko        *marketdata.CoinGeckoClient
	coinIDs      map[string]string
	cache        cache.Service
	th           engine.OIThresholds
	interval     time.Duration
	peakWindow   time.Duration
	troughWindow time.Duration
	l            *applogger.Logger
	now          func() time.Time
}

type OIStrategyConfig struct {
	Interval     time.Duration
	PeakWindow   time.Duration
	TroughWindow time.Duration
	Thresholds   engine.OIThresholds
}

func NewOpenInterestStrategy(
	src drepo.DataSource,
	store *engine.ObservationStore,
	gecko *marketdata.CoinGeckoClient,
	coinIDs map[string]string,
	c cache.Service,
	cfg OIStrategyConfig,
	l *applogger.Logger,
) *OpenInterestStrategy {
	return &OpenInterestStrategy{
		src:          src,
		store:        store,
		extrema:      engine.NewExtremaTracker(store),
		gecko:        gecko,
		coinIDs:      coinIDs,
		cache:        c,
		th:           cfg.Thresholds,
		interval:     cfg.Interval,
		peakWindow:   cfg.PeakWindow,
		troughWindow: cfg.TroughWindow,
		l:            l,
		now:          time.Now,
	}
}

// SetClock overrides the time source, used in tests.
func (s *OpenInterestStrategy) SetClock(now func() time.Time) {
	s.now = now
	s.extrema.SetClock(now)
}

func (s *OpenInterestStrategy) Name() string            { return StrategyOpenInterest }
func (s *OpenInterestStrategy) Interval() time.Duration { return s.interval }

func (s *OpenInterestStrategy) Evaluate(ctx context.Context, symbol string) ([]*models.SignalRecord, error) {
	current, err := s.src.FetchOpenInterest(ctx, symbol)
	if err != nil {
		return nil, err
	}

	prev, hasPrev := s.store.Latest(symbol)

	obs := models.Observation{Symbol: symbol, Value: current, Timestamp: s.now().UnixMilli()}
	if err := s.store.Record(obs); err != nil {
		// an out-of-order sample is dropped, never treated as fatal
		if engine.IsRecoverable(err) {
			s.l.Warn("open interest sample rejected",
				applogger.String("symbol", symbol),
				applogger.Error(err),
			)
			return nil, nil
		}
		return nil, err
	}

	peak, err := s.extrema.Peak(symbol, s.peakWindow)
	if err != nil {
		if engine.IsRecoverable(err) {
			return nil, nil // not enough history yet
		}
		return nil, err
	}
	bottom, err := s.extrema.Trough(symbol, s.troughWindow)
	if err != nil {
		if engine.IsRecoverable(err) {
			return nil, nil
		}
		return nil, err
	}

	out := engine.ClassifyOpenInterest(current, peak, bottom, s.th)
	if out.Signal == "" {
		return nil, nil
	}

	payload := map[string]any{
		"open_interest": current,
		"peak":          peak,
		"bottom":        bottom,
	}
	if hasPrev {
		if change, err := engine.PercentChange(prev.Value, current); err == nil {
			payload["oi_change"] = change
		}
	}
	if mc := s.marketCap(ctx, symbol); mc != nil {
		payload["market_cap"] = mc.CapUSD
	}

	rec := &models.SignalRecord{
		Symbol:     symbol,
		Strategy:   s.Name(),
		Side:       out.Side,
		Signal:     out.Signal,
		Payload:    payload,
		ProducedAt: s.now(),
	}
	return []*models.SignalRecord{rec}, nil
}

// marketCap fetches the coin's USD market cap, short-circuiting through the
// cache so the CoinGecko rate limit is not burned on every cycle. Failures
// only cost the payload field.
func (s *OpenInterestStrategy) marketCap(ctx context.Context, symbol string) *models.MarketCap {
	if s.gecko == nil {
		return nil
	}
	id, ok := s.coinIDs[symbol]
	if !ok {
		return nil
	}

	key := cache.GenerateKey("mcap", id)
	if s.cache != nil {
		var cached models.MarketCap
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return &cached
		}
	}

	mc, err := s.gecko.FetchMarketCap(ctx, id, symbol)
	if err != nil {
		s.l.Warn("market cap fetch failed",
			applogger.String("symbol", symbol),
			applogger.Error(err),
		)
		return nil
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, mc, marketCapTTL); err != nil {
			s.l.Warn("market cap cache write failed", applogger.Error(err))
		}
	}
	return mc
}

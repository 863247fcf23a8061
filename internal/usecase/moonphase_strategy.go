package usecase

import (
	"context"
	"sync"
	"time"

	"LunarPulse/internal/domain/models"
	drepo "LunarPulse/internal/domain/repository"
	"LunarPulse/internal/services/engine"
	"LunarPulse/internal/service/marketdata"
	applogger "LunarPulse/pkg/logger"
)

// MoonPhaseStrategy compares the current price against the price recorded at
// the previous matching lunar window. New moon windows test for a lower
// price (sell), full moon windows for a higher price (buy).
type MoonPhaseStrategy struct {
	src      drepo.DataSource
	state    drepo.StateStore
	gecko    *marketdata.CoinGeckoClient
	coinIDs  map[string]string
	interval time.Duration
	l        *applogger.Logger
	now      func() time.Time

	mu     sync.Mutex
	lunar  map[string]models.LunarState
	loaded map[string]bool
}

func NewMoonPhaseStrategy(src drepo.DataSource, state drepo.StateStore, gecko *marketdata.CoinGeckoClient, coinIDs map[string]string, interval time.Duration, l *applogger.Logger) *MoonPhaseStrategy {
	return &MoonPhaseStrategy{
		src:      src,
		state:    state,
		gecko:    gecko,
		coinIDs:  coinIDs,
		interval: interval,
		l:        l,
		now:      time.Now,
		lunar:    make(map[string]models.LunarState),
		loaded:   make(map[string]bool),
	}
}

// SetClock overrides the time source, used in tests.
func (s *MoonPhaseStrategy) SetClock(now func() time.Time) { s.now = now }

func (s *MoonPhaseStrategy) Name() string            { return StrategyMoonPhase }
func (s *MoonPhaseStrategy) Interval() time.Duration { return s.interval }

func (s *MoonPhaseStrategy) loadState(ctx context.Context, symbol string) models.LunarState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded[symbol] {
		if st, err := s.state.LoadLunar(ctx, symbol); err != nil {
			s.l.Warn("lunar state restore failed",
				applogger.String("symbol", symbol),
				applogger.Error(err),
			)
		} else if st != nil {
			s.lunar[symbol] = *st
		}
		s.loaded[symbol] = true
	}
	return s.lunar[symbol]
}

func (s *MoonPhaseStrategy) saveState(ctx context.Context, symbol string, st models.LunarState) {
	s.mu.Lock()
	s.lunar[symbol] = st
	s.mu.Unlock()

	st.Symbol = symbol
	if err := s.state.SaveLunar(ctx, &st); err != nil {
		s.l.Warn("lunar state save failed",
			applogger.String("symbol", symbol),
			applogger.Error(err),
		)
	}
}

func (s *MoonPhaseStrategy) Evaluate(ctx context.Context, symbol string) ([]*models.SignalRecord, error) {
	phase, err := engine.Phase(s.now().UnixMilli(), engine.NewMoonReferenceMs, engine.LunarCycleMs)
	if err != nil {
		return nil, err
	}

	price, err := s.src.FetchPrice(ctx, symbol)
	if err != nil {
		return nil, err
	}

	st := s.loadState(ctx, symbol)

	// seed the window reference on first sight so the next pass through the
	// same window has something to compare against
	seeded := false
	if phase < 0.5 && st.LastNewMoonPrice == 0 {
		st.LastNewMoonPrice = price
		seeded = true
	}
	if phase > 0.5 && st.LastFullMoonPrice == 0 {
		st.LastFullMoonPrice = price
		seeded = true
	}
	if seeded {
		s.saveState(ctx, symbol, st)
		return nil, nil
	}

	out := engine.ClassifyLunar(phase, price, st)
	if out.State != st {
		s.saveState(ctx, symbol, out.State)
	}
	if out.Signal == "" {
		return nil, nil
	}

	payload := map[string]any{
		"phase":  phase,
		"price":  price,
		"action": engine.AltAction(out.Side),
	}
	if s.gecko != nil {
		if id, ok := s.coinIDs[symbol]; ok {
			if mc, err := s.gecko.FetchMarketCap(ctx, id, symbol); err != nil {
				s.l.Warn("market cap fetch failed",
					applogger.String("symbol", symbol),
					applogger.Error(err),
				)
			} else {
				payload["market_cap"] = mc.CapUSD
			}
		}
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

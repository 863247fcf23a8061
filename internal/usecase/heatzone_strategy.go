package usecase

import (
	"context"
	"math"
	"time"

	"LunarPulse/internal/domain/models"
	drepo "LunarPulse/internal/domain/repository"
	"LunarPulse/internal/services/engine"
	applogger "LunarPulse/pkg/logger"
)

// HeatZoneStrategy derives liquidation zones from order book snapshots,
// feeds them into the hot zone accumulator, and emits a directional signal
// pointing at the highest-intensity zone seen so far.
type HeatZoneStrategy struct {
	src      drepo.DataSource
	acc      *engine.HotZoneAccumulator
	state    drepo.StateStore
	interval time.Duration
	depth    int
	l        *applogger.Logger
}

func NewHeatZoneStrategy(src drepo.DataSource, acc *engine.HotZoneAccumulator, state drepo.StateStore, interval time.Duration, depth int, l *applogger.Logger) *HeatZoneStrategy {
	return &HeatZoneStrategy{src: src, acc: acc, state: state, interval: interval, depth: depth, l: l}
}

func (s *HeatZoneStrategy) Name() string            { return StrategyHeatZone }
func (s *HeatZoneStrategy) Interval() time.Duration { return s.interval }

// Restore seeds the accumulator from persisted state. Called once at startup.
func (s *HeatZoneStrategy) Restore(ctx context.Context, symbols []string) {
	for _, sym := range symbols {
		st, err := s.state.LoadHotZone(ctx, sym)
		if err != nil {
			s.l.Warn("hot zone state restore failed",
				applogger.String("symbol", sym),
				applogger.Error(err),
			)
			continue
		}
		if st != nil {
			s.acc.Restore(st)
		}
	}
}

func (s *HeatZoneStrategy) Evaluate(ctx context.Context, symbol string) ([]*models.SignalRecord, error) {
	price, err := s.src.FetchPrice(ctx, symbol)
	if err != nil {
		return nil, err
	}
	book, err := s.src.FetchOrderBook(ctx, symbol, s.depth)
	if err != nil {
		return nil, err
	}

	zone, err := liquidationZone(price, book)
	if err != nil {
		return nil, err
	}

	// Ingest always yields a hot zone, even on the anchor-initializing first
	// call, so every successful cycle emits a signal
	st := s.acc.Ingest(symbol, *zone)
	if err := s.state.SaveHotZone(ctx, st); err != nil {
		s.l.Warn("hot zone state save failed",
			applogger.String("symbol", symbol),
			applogger.Error(err),
		)
	}

	bias := s.acc.DirectionBias(symbol, price)
	side := engine.ClassifyDirectionBias(bias)

	rec := &models.SignalRecord{
		Symbol:   symbol,
		Strategy: s.Name(),
		Side:     side,
		Signal:   engine.AltAction(side),
		Payload: map[string]any{
			"target_price": st.HotZone.Price,
			"intensity":    st.HotZone.Intensity,
			"high_sum":     st.HighSum,
			"low_sum":      st.LowSum,
			"bias":         bias,
			"price":        price,
		},
		ProducedAt: time.Now(),
	}
	return []*models.SignalRecord{rec}, nil
}

// liquidationZone condenses an order book snapshot into a single zone sitting
// at the current trade price. Intensity is the total resting volume weighted
// by the distance from the trade price to the dominant side's best price.
func liquidationZone(price float64, book *models.OrderBook) (*models.LiquidationZone, error) {
	if book == nil || len(book.Bids) == 0 || len(book.Asks) == 0 {
		return nil, &engine.InvalidArgumentError{Op: "liquidation_zone", Reason: "order book side empty"}
	}

	var bidVol, askVol float64
	for _, lvl := range book.Bids {
		bidVol += lvl.Quantity
	}
	for _, lvl := range book.Asks {
		askVol += lvl.Quantity
	}
	total := bidVol + askVol
	if total <= 0 {
		return nil, &engine.InvalidArgumentError{Op: "liquidation_zone", Reason: "no resting volume"}
	}

	// dominant side is the one with more resting volume; its best price is
	// where the liquidity wall sits
	top := book.Asks[0].Price
	if bidVol > askVol {
		top = book.Bids[0].Price
	}

	return &models.LiquidationZone{
		Price:     price,
		Intensity: total * math.Abs(price-top),
	}, nil
}

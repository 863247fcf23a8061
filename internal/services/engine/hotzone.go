package engine

import (
	"math"
	"sync"

	"LunarPulse/internal/domain/models"
)

// HotZoneAccumulator maintains per-symbol liquidation accumulator state.
//
// Two distinct zones exist per symbol and must not be conflated:
//   - the comparison anchor: the FIRST zone ever seen for a symbol; every later
//     zone is split into the high or the low sum against its price
//   - the hot zone proper: the maximum-intensity zone seen so far, which is the
//     authoritative target price reported to callers
//
// The anchor never moves after initialization; the hot zone is a running max
// maintained incrementally so lookups stay O(1).
type HotZoneAccumulator struct {
	mu     sync.Mutex
	states map[string]*models.HotZoneState
}

// NewHotZoneAccumulator creates an empty accumulator.
func NewHotZoneAccumulator() *HotZoneAccumulator {
	return &HotZoneAccumulator{states: make(map[string]*models.HotZoneState)}
}

// Restore seeds previously persisted state for a symbol. A nil state is ignored.
func (a *HotZoneAccumulator) Restore(state *models.HotZoneState) {
	if state == nil || state.Symbol == "" {
		return
	}
	a.mu.Lock()
	a.states[state.Symbol] = state
	a.mu.Unlock()
}

// Ingest folds a new liquidation zone into the symbol's state. The first zone
// for a symbol only initializes the anchor; no sum is updated on that call.
// Afterwards, zone.Price >= anchor.Price adds intensity to HighSum (equal price
// counts as high, the tie-break is >= by contract), anything lower adds to
// LowSum. A NaN sum is clamped back to 0 rather than poisoning the state.
func (a *HotZoneAccumulator) Ingest(symbol string, zone models.LiquidationZone) *models.HotZoneState {
	a.mu.Lock()
	defer a.mu.Unlock()

	st, ok := a.states[symbol]
	if !ok {
		st = &models.HotZoneState{Symbol: symbol}
		a.states[symbol] = st
	}

	if st.Anchor == nil {
		z := zone
		st.Anchor = &z
	} else if zone.Price >= st.Anchor.Price {
		st.HighSum += zone.Intensity
	} else {
		st.LowSum += zone.Intensity
	}

	if math.IsNaN(st.HighSum) {
		st.HighSum = 0
	}
	if math.IsNaN(st.LowSum) {
		st.LowSum = 0
	}

	if st.HotZone == nil || zone.Intensity > st.HotZone.Intensity {
		z := zone
		st.HotZone = &z
	}

	out := *st
	return &out
}

// DirectionBias returns anchor.Price - currentPrice, or 0 when no zone has
// been seen for the symbol.
func (a *HotZoneAccumulator) DirectionBias(symbol string, currentPrice float64) float64 {
	a.mu.Lock()
	defer a.mu.Unlock()

	st, ok := a.states[symbol]
	if !ok || st.Anchor == nil {
		return 0
	}
	return st.Anchor.Price - currentPrice
}

// HotZoneFor returns the maximum-intensity zone ingested for symbol.
func (a *HotZoneAccumulator) HotZoneFor(symbol string) (models.LiquidationZone, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	st, ok := a.states[symbol]
	if !ok || st.HotZone == nil {
		return models.LiquidationZone{}, false
	}
	return *st.HotZone, true
}

// State returns a copy of the symbol's state for persistence or inspection.
func (a *HotZoneAccumulator) State(symbol string) (*models.HotZoneState, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	st, ok := a.states[symbol]
	if !ok {
		return nil, false
	}
	out := *st
	return &out, true
}

// Reset drops all state for a symbol. Explicit operator action only; state is
// never reset as part of normal evaluation.
func (a *HotZoneAccumulator) Reset(symbol string) {
	a.mu.Lock()
	delete(a.states, symbol)
	a.mu.Unlock()
}

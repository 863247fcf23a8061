package engine

import (
	"LunarPulse/internal/domain/models"
)

// Signal names emitted by the classifiers.
const (
	SignalCloseLongs  = "close-longs"
	SignalOpenLongs   = "open-longs"
	SignalRektWarning = "rekt-warning"
	SignalSell        = "sell"
	SignalBuy         = "buy"
)

// OIThresholds parameterizes the open-interest classifier.
type OIThresholds struct {
	PeakFrac      float64 // fraction of peak that triggers close-longs
	BottomFrac    float64 // fraction of bottom that triggers open-longs
	SuperHighFrac float64 // fraction of peak that triggers rekt-warning
}

// DefaultOIThresholds match the production values: 95% of peak, 5% of bottom,
// 110% of peak.
func DefaultOIThresholds() OIThresholds {
	return OIThresholds{PeakFrac: 0.95, BottomFrac: 0.05, SuperHighFrac: 1.10}
}

// Outcome is a classified signal: name plus side.
type Outcome struct {
	Signal string
	Side   models.Side
}

// none is the zero outcome: no rule matched.
func none() Outcome { return Outcome{Signal: "", Side: models.SideNone} }

// oiRule is one entry of the ordered open-interest cascade.
type oiRule struct {
	match   func(current, peak, bottom float64, th OIThresholds) bool
	outcome Outcome
}

// The cascade is an explicit ordered list evaluated in sequence with
// last-match-wins, not mutually exclusive branches. The order is load-bearing:
// open-longs overrides close-longs, rekt-warning overrides both.
var oiCascade = []oiRule{
	{
		match: func(current, peak, _ float64, th OIThresholds) bool {
			return current >= th.PeakFrac*peak
		},
		outcome: Outcome{Signal: SignalCloseLongs, Side: models.SideShort},
	},
	{
		match: func(current, _, bottom float64, th OIThresholds) bool {
			return current <= th.BottomFrac*bottom
		},
		outcome: Outcome{Signal: SignalOpenLongs, Side: models.SideLong},
	},
	{
		match: func(current, peak, _ float64, th OIThresholds) bool {
			return current >= th.SuperHighFrac*peak
		},
		outcome: Outcome{Signal: SignalRektWarning, Side: models.SideShort},
	},
}

// ClassifyOpenInterest maps current OI against its rolling extrema to a
// discrete signal. Pure function.
func ClassifyOpenInterest(current, peak, bottom float64, th OIThresholds) Outcome {
	out := none()
	for _, r := range oiCascade {
		if r.match(current, peak, bottom, th) {
			out = r.outcome
		}
	}
	return out
}

// ClassifyDirectionBias maps a signed hot-zone distance to a side. Zero bias
// classifies as short: the boundary follows the strict bias > 0 test.
func ClassifyDirectionBias(bias float64) models.Side {
	if bias > 0 {
		return models.SideLong
	}
	return models.SideShort
}

// AltAction maps a side to the order action used in broadcast payloads.
func AltAction(side models.Side) string {
	if side == models.SideLong {
		return "BUY"
	}
	return "SELL"
}

// LunarOutcome is the result of a lunar evaluation: the outcome (possibly
// none) and the updated reference state.
type LunarOutcome struct {
	Outcome
	State models.LunarState
}

// ClassifyLunar gates buy/sell comparisons to alternating phase windows.
// phase < 0.5 is the new-moon window, phase > 0.5 the full-moon window, and
// exactly 0.5 is a dead zone in which nothing fires. Both branches are
// evaluated independently; the windows are disjoint by construction so at
// most one fires per call. The tracked reference price updates only when its
// branch fires.
func ClassifyLunar(phase, currentPrice float64, state models.LunarState) LunarOutcome {
	out := LunarOutcome{Outcome: none(), State: state}

	isNewMoon := phase < 0.5
	isFullMoon := phase > 0.5

	if isNewMoon && state.LastNewMoonPrice != 0 && currentPrice < state.LastNewMoonPrice {
		out.Outcome = Outcome{Signal: SignalSell, Side: models.SideShort}
		out.State.LastNewMoonPrice = currentPrice
	}
	if isFullMoon && state.LastFullMoonPrice != 0 && currentPrice > state.LastFullMoonPrice {
		out.Outcome = Outcome{Signal: SignalBuy, Side: models.SideLong}
		out.State.LastFullMoonPrice = currentPrice
	}
	return out
}

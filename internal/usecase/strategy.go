package usecase

import (
	"context"
	"time"

	"LunarPulse/internal/domain/models"
)

// Strategy names as they appear in signal records and API filters.
const (
	StrategyOpenInterest = "open-interest"
	StrategyHeatZone     = "liquidity-heatzone"
	StrategyMoonPhase    = "moon-phase"
	StrategySmartMoney   = "smart-money"
)

// Strategy evaluates one symbol on its own cadence and returns zero or more
// signal records. A nil slice with nil error means "no signal this cycle",
// which is the common case.
type Strategy interface {
	Name() string
	Interval() time.Duration
	Evaluate(ctx context.Context, symbol string) ([]*models.SignalRecord, error)
}

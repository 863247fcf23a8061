package repository

import (
	"context"
	"time"

	"LunarPulse/internal/domain/models"
)

// DataSource supplies market observations for a symbol. Implementations must
// return a typed error on network or parse failure; callers treat any failure
// as "no update this cycle", never as zero.
type DataSource interface {
	FetchPrice(ctx context.Context, symbol string) (float64, error)
	FetchOrderBook(ctx context.Context, symbol string, depth int) (*models.OrderBook, error)
	FetchOpenInterest(ctx context.Context, symbol string) (float64, error)
}

// Sink accepts emitted signals for persistence and/or broadcast.
// Fire-and-forget from the strategy's perspective, at-least-once delivery.
type Sink interface {
	Publish(ctx context.Context, rec *models.SignalRecord) error
	Close() error
}

// SignalStore provides read access to persisted signals.
type SignalStore interface {
	Query(ctx context.Context, symbol, strategy string, from, to time.Time, limit int) ([]*models.SignalRecord, error)
	Health(ctx context.Context) error
}

// StateStore persists mutable per-symbol strategy state across restarts
// (hot zone accumulator state, lunar reference prices).
type StateStore interface {
	LoadHotZone(ctx context.Context, symbol string) (*models.HotZoneState, error)
	SaveHotZone(ctx context.Context, state *models.HotZoneState) error
	LoadLunar(ctx context.Context, symbol string) (*models.LunarState, error)
	SaveLunar(ctx context.Context, state *models.LunarState) error
}

// WalletSource supplies on-chain wallet analysis rows (Dune query results).
type WalletSource interface {
	FetchProfitableWallets(ctx context.Context, limit int) ([]string, error)
	FetchWalletActivity(ctx context.Context, wallet string) ([]models.WalletActivity, error)
}

// Metrics records operational measurements.
type Metrics interface {
	RecordSignal(strategy, symbol, side string)
	RecordError(kind string)
	RecordLastPrice(symbol string, price float64)
	RecordLatency(op string, seconds float64)
}

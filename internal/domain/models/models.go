package models

import "time"

// Side is the directional classification attached to a signal.
type Side string

const (
	SideLong  Side = "long"
	SideShort Side = "short"
	SideNone  Side = "none"
)

// Observation is a single timestamped scalar for a symbol (price, open
// interest, liquidation intensity). Immutable once recorded.
type Observation struct {
	Symbol    string
	Value     float64
	Timestamp int64 // ms epoch
}

// Time returns the observation timestamp as time.Time.
func (o Observation) Time() time.Time {
	return time.UnixMilli(o.Timestamp)
}

// LiquidationZone is a price level with its accumulated liquidation intensity,
// derived from order book depth around the trade price.
type LiquidationZone struct {
	Price     float64 `json:"price"`
	Intensity float64 `json:"intensity"`
}

// HotZoneState holds the per-symbol liquidation accumulator state.
// Anchor is the first zone ever seen for the symbol and is the reference
// for the high/low split; HotZone is the max-intensity zone seen so far.
type HotZoneState struct {
	Symbol  string           `json:"symbol"`
	Anchor  *LiquidationZone `json:"anchor,omitempty"`
	HotZone *LiquidationZone `json:"hot_zone,omitempty"`
	HighSum float64          `json:"high_sum"`
	LowSum  float64          `json:"low_sum"`
}

// SignalRecord is an emitted trading signal. Write-once: created by a
// strategy evaluation, handed to the sink, never mutated after.
type SignalRecord struct {
	Symbol     string         `json:"symbol"`
	Strategy   string         `json:"strategy"`
	Side       Side           `json:"side"`
	Signal     string         `json:"signal"`
	Payload    map[string]any `json:"payload,omitempty"`
	ProducedAt time.Time      `json:"produced_at"`
}

// OrderBookLevel is one price level of depth.
type OrderBookLevel struct {
	Price    float64
	Quantity float64
}

// OrderBook is a depth snapshot for a symbol.
type OrderBook struct {
	Symbol string
	Bids   []OrderBookLevel
	Asks   []OrderBookLevel
}

// MarketCap is the CoinGecko market capitalization for a symbol.
type MarketCap struct {
	Symbol    string  `json:"symbol"`
	CapUSD    float64 `json:"cap_usd"`
	FetchedAt int64   `json:"fetched_at"`
}

// LunarState tracks the reference prices used by the moon-phase strategy.
// Updated only when a lunar signal fires.
type LunarState struct {
	Symbol            string  `json:"symbol"`
	LastNewMoonPrice  float64 `json:"last_new_moon_price"`
	LastFullMoonPrice float64 `json:"last_full_moon_price"`
}

// WalletActivity is one row of on-chain wallet analysis (Dune query result).
type WalletActivity struct {
	Wallet       string  `json:"wallet_address"`
	Asset        string  `json:"asset"`
	TokenAddress string  `json:"token_address"`
	TokenBalance float64 `json:"token_balance"`
	Buy          float64 `json:"buy"`
	Sell         float64 `json:"sell"`
	TotalPnL     float64 `json:"total_pnl"`
}

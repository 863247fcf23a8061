package models

// Requests for signal HTTP endpoints. Defined in domain for consistency and reuse.

type SignalsRequest struct {
	Symbol   string `query:"symbol" json:"symbol" validate:"required"`
	Strategy string `query:"strategy" json:"strategy" default:"" validate:"omitempty,oneof=open-interest liquidity-heatzone moon-phase smart-money"`
	Limit    int    `query:"limit" json:"limit" default:"100" validate:"gte=1,lte=1000"`
	From     string `query:"from" json:"from"`
	To       string `query:"to" json:"to"`
}

type HotZoneRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required"`
}

type OpenInterestRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required"`
	Window string `query:"window" json:"window" default:"24h" validate:"oneof=1h 4h 24h 2160h"`
}

type MoonPhaseRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required"`
}

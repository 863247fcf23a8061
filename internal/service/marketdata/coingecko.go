package marketdata

import (
	"context"
	"time"

	"LunarPulse/internal/domain/models"
	xhttp "LunarPulse/pkg/http"
)

// CoinGeckoClient fetches market capitalization data attached to signal
// payloads for downstream context.
type CoinGeckoClient struct {
	baseURL string
	client  *xhttp.Client
}

// NewCoinGeckoClient creates a CoinGecko REST client.
func NewCoinGeckoClient(baseURL string, timeout time.Duration) *CoinGeckoClient {
	if baseURL == "" {
		baseURL = "https://api.coingecko.com/api/v3"
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &CoinGeckoClient{
		baseURL: baseURL,
		client:  xhttp.NewClient(xhttp.WithTimeout(timeout)),
	}
}

type coinResp struct {
	MarketData struct {
		MarketCap struct {
			USD float64 `json:"usd"`
		} `json:"market_cap"`
	} `json:"market_data"`
}

// FetchMarketCap returns the USD market cap for a coin id (e.g. "bitcoin").
func (c *CoinGeckoClient) FetchMarketCap(ctx context.Context, coinID, symbol string) (*models.MarketCap, error) {
	var res coinResp
	err := c.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:      xhttp.MethodGet,
		URL:         c.baseURL + "/coins/" + coinID,
		QueryParams: map[string][]string{"localization": {"false"}},
	}, &res)
	if err != nil {
		return nil, sourceErr("coingecko", "market cap", err)
	}
	return &models.MarketCap{
		Symbol:    symbol,
		CapUSD:    res.MarketData.MarketCap.USD,
		FetchedAt: time.Now().UnixMilli(),
	}, nil
}

package marketdata

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"LunarPulse/internal/domain/models"
	drepo "LunarPulse/internal/domain/repository"
	xhttp "LunarPulse/pkg/http"
)

// DuneClient implements WalletSource over the Dune Analytics results API.
// Query IDs come from config: one query lists the profitable bot wallets, the
// other returns per-wallet position analysis rows.
type DuneClient struct {
	baseURL         string
	apiKey          string
	walletsQueryID  string
	analysisQueryID string
	client          *xhttp.Client
}

// NewDuneClient creates a Dune REST client.
func NewDuneClient(baseURL, apiKey, walletsQueryID, analysisQueryID string, timeout time.Duration) drepo.WalletSource {
	if baseURL == "" {
		baseURL = "https://api.dune.com/api"
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &DuneClient{
		baseURL:         baseURL,
		apiKey:          apiKey,
		walletsQueryID:  walletsQueryID,
		analysisQueryID: analysisQueryID,
		client:          xhttp.NewClient(xhttp.WithTimeout(timeout)),
	}
}

type duneResp struct {
	Result struct {
		Rows []map[string]any `json:"rows"`
	} `json:"result"`
}

func (c *DuneClient) results(ctx context.Context, queryID string, limit int, extra map[string][]string) (*duneResp, error) {
	params := map[string][]string{"limit": {strconv.Itoa(limit)}}
	for k, v := range extra {
		params[k] = v
	}
	var res duneResp
	err := c.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:      xhttp.MethodGet,
		URL:         fmt.Sprintf("%s/v1/query/%s/results", c.baseURL, queryID),
		Headers:     map[string]string{"X-Dune-API-Key": c.apiKey},
		QueryParams: params,
	}, &res)
	if err != nil {
		return nil, sourceErr("dune", "query "+queryID, err)
	}
	return &res, nil
}

// FetchProfitableWallets returns wallet addresses from the profitable-bots query.
func (c *DuneClient) FetchProfitableWallets(ctx context.Context, limit int) ([]string, error) {
	res, err := c.results(ctx, c.walletsQueryID, limit, nil)
	if err != nil {
		return nil, err
	}
	wallets := make([]string, 0, len(res.Result.Rows))
	for _, row := range res.Result.Rows {
		if user, ok := row["user"].(string); ok && user != "" {
			wallets = append(wallets, user)
		}
	}
	return wallets, nil
}

// FetchWalletActivity returns position analysis rows for one wallet.
func (c *DuneClient) FetchWalletActivity(ctx context.Context, wallet string) ([]models.WalletActivity, error) {
	res, err := c.results(ctx, c.analysisQueryID, 1000, map[string][]string{"wallet_address": {wallet}})
	if err != nil {
		return nil, err
	}
	out := make([]models.WalletActivity, 0, len(res.Result.Rows))
	for _, row := range res.Result.Rows {
		out = append(out, models.WalletActivity{
			Wallet:       wallet,
			Asset:        asString(row["asset"]),
			TokenAddress: asString(row["token_address"]),
			TokenBalance: asFloat(row["token_balance"]),
			Buy:          asFloat(row["buy"]),
			Sell:         asFloat(row["sell"]),
			TotalPnL:     asFloat(row["total_pnl"]),
		})
	}
	return out, nil
}

// Dune rows are loosely typed JSON; convert defensively at the boundary so the
// strategies only ever see typed structs.
func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

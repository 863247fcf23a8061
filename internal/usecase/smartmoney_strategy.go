package usecase

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"LunarPulse/internal/domain/models"
	drepo "LunarPulse/internal/domain/repository"
	applogger "LunarPulse/pkg/logger"
)

// SmartMoneyStrategy follows the on-chain activity of historically profitable
// wallets. It emits a "holding" signal the first time a wallet shows up with an
// unsold position in the tracked asset, a "sold" signal with realized pnl when a
// tracked position is closed out, and an aggregate lean signal when the cohort's
// buy and sell totals diverge. Totals are summed with decimals so large token
// amounts do not lose precision in float math.
type SmartMoneyStrategy struct {
	wallets     drepo.WalletSource
	walletLimit int
	interval    time.Duration
	l           *applogger.Logger

	mu      sync.Mutex
	tracked map[string]bool // wallet|asset positions seen unsold
}

func NewSmartMoneyStrategy(wallets drepo.WalletSource, walletLimit int, interval time.Duration, l *applogger.Logger) *SmartMoneyStrategy {
	return &SmartMoneyStrategy{
		wallets:     wallets,
		walletLimit: walletLimit,
		interval:    interval,
		l:           l,
		tracked:     make(map[string]bool),
	}
}

func (s *SmartMoneyStrategy) Name() string            { return StrategySmartMoney }
func (s *SmartMoneyStrategy) Interval() time.Duration { return s.interval }

func (s *SmartMoneyStrategy) Evaluate(ctx context.Context, symbol string) ([]*models.SignalRecord, error) {
	asset := baseAsset(symbol)

	addrs, err := s.wallets.FetchProfitableWallets(ctx, s.walletLimit)
	if err != nil {
		return nil, err
	}
	if len(addrs) == 0 {
		return nil, nil
	}

	buyTotal := decimal.Zero
	sellTotal := decimal.Zero
	pnlTotal := decimal.Zero
	matched := 0
	var recs []*models.SignalRecord

	for _, addr := range addrs {
		rows, err := s.wallets.FetchWalletActivity(ctx, addr)
		if err != nil {
			// one bad wallet must not sink the whole evaluation
			s.l.Warn("wallet activity fetch failed",
				applogger.String("wallet", addr),
				applogger.Error(err),
			)
			continue
		}
		for _, row := range rows {
			if !strings.EqualFold(row.Asset, asset) {
				continue
			}
			buyTotal = buyTotal.Add(decimal.NewFromFloat(row.Buy))
			sellTotal = sellTotal.Add(decimal.NewFromFloat(row.Sell))
			pnlTotal = pnlTotal.Add(decimal.NewFromFloat(row.TotalPnL))
			matched++

			if rec := s.trackPosition(symbol, asset, row); rec != nil {
				recs = append(recs, rec)
			}
		}
	}

	if matched == 0 {
		return recs, nil
	}
	if lean := s.leanSignal(symbol, asset, buyTotal, sellTotal, pnlTotal, len(addrs), matched); lean != nil {
		recs = append(recs, lean)
	}
	return recs, nil
}

// trackPosition remembers unsold positions per wallet and emits at the two
// transitions that matter: a position first seen while still held, and a
// tracked position that has since been fully sold.
func (s *SmartMoneyStrategy) trackPosition(symbol, asset string, row models.WalletActivity) *models.SignalRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := row.Wallet + "|" + strings.ToUpper(row.Asset)
	held := row.Buy > 0 && row.Sell < row.Buy

	switch {
	case held && !s.tracked[key]:
		s.tracked[key] = true
		return &models.SignalRecord{
			Symbol:   symbol,
			Strategy: s.Name(),
			Side:     models.SideLong,
			Signal:   "holding",
			Payload: map[string]any{
				"asset":   asset,
				"wallet":  row.Wallet,
				"buy":     row.Buy,
				"balance": row.TokenBalance,
			},
			ProducedAt: time.Now(),
		}
	case !held && s.tracked[key] && row.Buy > 0:
		delete(s.tracked, key)
		return &models.SignalRecord{
			Symbol:   symbol,
			Strategy: s.Name(),
			Side:     models.SideShort,
			Signal:   "sold",
			Payload: map[string]any{
				"asset":  asset,
				"wallet": row.Wallet,
				"sell":   row.Sell,
				"pnl":    row.TotalPnL,
			},
			ProducedAt: time.Now(),
		}
	}
	return nil
}

func (s *SmartMoneyStrategy) leanSignal(symbol, asset string, buy, sell, pnl decimal.Decimal, wallets, positions int) *models.SignalRecord {
	if buy.Equal(sell) {
		return nil // no lean either way
	}
	side := models.SideShort
	signal := "distributing"
	if buy.GreaterThan(sell) {
		side = models.SideLong
		signal = "accumulating"
	}
	return &models.SignalRecord{
		Symbol:   symbol,
		Strategy: s.Name(),
		Side:     side,
		Signal:   signal,
		Payload: map[string]any{
			"asset":      asset,
			"buy_total":  buy.String(),
			"sell_total": sell.String(),
			"pnl_total":  pnl.String(),
			"wallets":    wallets,
			"positions":  positions,
		},
		ProducedAt: time.Now(),
	}
}

// baseAsset strips the quote currency from a futures symbol, BTCUSDT -> BTC.
func baseAsset(symbol string) string {
	for _, quote := range []string{"USDT", "BUSD", "USDC"} {
		if strings.HasSuffix(symbol, quote) && len(symbol) > len(quote) {
			return strings.TrimSuffix(symbol, quote)
		}
	}
	return symbol
}

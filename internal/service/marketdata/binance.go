package marketdata

import (
	"context"
	"fmt"
	"strconv"

	"LunarPulse/internal/domain/models"
	drepo "LunarPulse/internal/domain/repository"

	"github.com/adshao/go-binance/v2/futures"
)

// BinanceSource implements DataSource against Binance USD-M futures REST.
type BinanceSource struct {
	client *futures.Client
}

// NewBinanceSource creates a Binance-backed data source. Keys may be empty:
// all endpoints used here are public market data.
func NewBinanceSource(apiKey, apiSecret string, testnet bool) drepo.DataSource {
	if testnet {
		futures.UseTestnet = true
	}
	c := futures.NewClient(apiKey, apiSecret)
	return &BinanceSource{client: c}
}

// FetchPrice returns the latest mark price for symbol.
func (s *BinanceSource) FetchPrice(ctx context.Context, symbol string) (float64, error) {
	prices, err := s.client.NewListPricesService().Symbol(symbol).Do(ctx)
	if err != nil {
		return 0, sourceErr("binance", "price", err)
	}
	if len(prices) == 0 {
		return 0, sourceErr("binance", "price", fmt.Errorf("no price for %s", symbol))
	}
	p, err := strconv.ParseFloat(prices[0].Price, 64)
	if err != nil {
		return 0, sourceErr("binance", "price parse", err)
	}
	return p, nil
}

// FetchOrderBook returns a depth snapshot with parsed levels. Unparseable
// levels are a payload error, not a silent zero.
func (s *BinanceSource) FetchOrderBook(ctx context.Context, symbol string, depth int) (*models.OrderBook, error) {
	res, err := s.client.NewDepthService().Symbol(symbol).Limit(depth).Do(ctx)
	if err != nil {
		return nil, sourceErr("binance", "depth", err)
	}

	book := &models.OrderBook{
		Symbol: symbol,
		Bids:   make([]models.OrderBookLevel, 0, len(res.Bids)),
		Asks:   make([]models.OrderBookLevel, 0, len(res.Asks)),
	}
	for _, b := range res.Bids {
		lvl, err := parseLevel(b.Price, b.Quantity)
		if err != nil {
			return nil, sourceErr("binance", "depth parse", err)
		}
		book.Bids = append(book.Bids, lvl)
	}
	for _, a := range res.Asks {
		lvl, err := parseLevel(a.Price, a.Quantity)
		if err != nil {
			return nil, sourceErr("binance", "depth parse", err)
		}
		book.Asks = append(book.Asks, lvl)
	}
	return book, nil
}

// FetchOpenInterest returns current open interest for symbol.
func (s *BinanceSource) FetchOpenInterest(ctx context.Context, symbol string) (float64, error) {
	oi, err := s.client.NewOpenInterestService().Symbol(symbol).Do(ctx)
	if err != nil {
		return 0, sourceErr("binance", "open interest", err)
	}
	v, err := strconv.ParseFloat(oi.OpenInterest, 64)
	if err != nil {
		return 0, sourceErr("binance", "open interest parse", err)
	}
	return v, nil
}

func parseLevel(price, qty string) (models.OrderBookLevel, error) {
	p, err := strconv.ParseFloat(price, 64)
	if err != nil {
		return models.OrderBookLevel{}, fmt.Errorf("price %q: %w", price, err)
	}
	q, err := strconv.ParseFloat(qty, 64)
	if err != nil {
		return models.OrderBookLevel{}, fmt.Errorf("quantity %q: %w", qty, err)
	}
	return models.OrderBookLevel{Price: p, Quantity: q}, nil
}

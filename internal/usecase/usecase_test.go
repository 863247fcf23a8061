package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"LunarPulse/internal/domain/models"
	"LunarPulse/internal/services/engine"
	applogger "LunarPulse/pkg/logger"
)

type fakeSource struct {
	price    float64
	oi       float64
	book     *models.OrderBook
	priceErr error
	oiErr    error
	bookErr  error
}

func (f *fakeSource) FetchPrice(_ context.Context, _ string) (float64, error) {
	return f.price, f.priceErr
}

func (f *fakeSource) FetchOrderBook(_ context.Context, _ string, _ int) (*models.OrderBook, error) {
	return f.book, f.bookErr
}

func (f *fakeSource) FetchOpenInterest(_ context.Context, _ string) (float64, error) {
	return f.oi, f.oiErr
}

type memStateStore struct {
	mu      sync.Mutex
	hotZone map[string]*models.HotZoneState
	lunar   map[string]*models.LunarState
}

func newMemStateStore() *memStateStore {
	return &memStateStore{
		hotZone: make(map[string]*models.HotZoneState),
		lunar:   make(map[string]*models.LunarState),
	}
}

func (m *memStateStore) LoadHotZone(_ context.Context, symbol string) (*models.HotZoneState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hotZone[symbol], nil
}

func (m *memStateStore) SaveHotZone(_ context.Context, state *models.HotZoneState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hotZone[state.Symbol] = state
	return nil
}

func (m *memStateStore) LoadLunar(_ context.Context, symbol string) (*models.LunarState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lunar[symbol], nil
}

func (m *memStateStore) SaveLunar(_ context.Context, state *models.LunarState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lunar[state.Symbol] = state
	return nil
}

type fakeWallets struct {
	addrs    []string
	activity map[string][]models.WalletActivity
}

func (f *fakeWallets) FetchProfitableWallets(_ context.Context, limit int) ([]string, error) {
	if limit < len(f.addrs) {
		return f.addrs[:limit], nil
	}
	return f.addrs, nil
}

func (f *fakeWallets) FetchWalletActivity(_ context.Context, wallet string) ([]models.WalletActivity, error) {
	return f.activity[wallet], nil
}

func testLogger(t *testing.T) *applogger.Logger {
	t.Helper()
	l, err := applogger.New(&applogger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func TestOpenInterestStrategyCloseLongs(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := engine.NewObservationStore(engine.WithClock(fixedClock(now)))
	seed := []models.Observation{
		{Symbol: "BTCUSDT", Value: 40, Timestamp: now.Add(-48 * time.Hour).UnixMilli()},
		{Symbol: "BTCUSDT", Value: 100, Timestamp: now.Add(-2 * time.Hour).UnixMilli()},
	}
	for _, o := range seed {
		if err := store.Record(o); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	src := &fakeSource{oi: 96}
	st := NewOpenInterestStrategy(src, store, nil, nil, nil, OIStrategyConfig{
		Interval:     time.Hour,
		PeakWindow:   24 * time.Hour,
		TroughWindow: 90 * 24 * time.Hour,
		Thresholds:   engine.DefaultOIThresholds(),
	}, testLogger(t))
	st.SetClock(fixedClock(now))

	recs, err := st.Evaluate(context.Background(), "BTCUSDT")
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("expected 1 signal, got %d", len(recs))
	}
	if recs[0].Signal != engine.SignalCloseLongs || recs[0].Side != models.SideShort {
		t.Fatalf("unexpected outcome: %s/%s", recs[0].Signal, recs[0].Side)
	}
}

func TestOpenInterestStrategyNeutral(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := engine.NewObservationStore(engine.WithClock(fixedClock(now)))
	if err := store.Record(models.Observation{Symbol: "BTCUSDT", Value: 100, Timestamp: now.Add(-time.Hour).UnixMilli()}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	src := &fakeSource{oi: 50}
	st := NewOpenInterestStrategy(src, store, nil, nil, nil, OIStrategyConfig{
		Interval:     time.Hour,
		PeakWindow:   24 * time.Hour,
		TroughWindow: 90 * 24 * time.Hour,
		Thresholds:   engine.DefaultOIThresholds(),
	}, testLogger(t))
	st.SetClock(fixedClock(now))

	recs, err := st.Evaluate(context.Background(), "BTCUSDT")
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(recs) != 0 {
		t.Fatalf("expected no signal, got %d", len(recs))
	}
}

func TestOpenInterestStrategyFetchError(t *testing.T) {
	boom := errors.New("network down")
	src := &fakeSource{oiErr: boom}
	st := NewOpenInterestStrategy(src, engine.NewObservationStore(), nil, nil, nil, OIStrategyConfig{
		Interval:     time.Hour,
		PeakWindow:   24 * time.Hour,
		TroughWindow: 90 * 24 * time.Hour,
		Thresholds:   engine.DefaultOIThresholds(),
	}, testLogger(t))

	if _, err := st.Evaluate(context.Background(), "BTCUSDT"); !errors.Is(err, boom) {
		t.Fatalf("expected fetch error to propagate, got %v", err)
	}
}

func TestHeatZoneStrategyEmitsTarget(t *testing.T) {
	src := &fakeSource{
		price: 105,
		book: &models.OrderBook{
			Symbol: "BTCUSDT",
			Bids:   []models.OrderBookLevel{{Price: 100, Quantity: 5}},
			Asks:   []models.OrderBookLevel{{Price: 110, Quantity: 2}},
		},
	}
	st := NewHeatZoneStrategy(src, engine.NewHotZoneAccumulator(), newMemStateStore(), time.Minute, 100, testLogger(t))

	recs, err := st.Evaluate(context.Background(), "BTCUSDT")
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	// the anchor-initializing first cycle already carries a hot zone
	if len(recs) != 1 {
		t.Fatalf("expected 1 signal, got %d", len(recs))
	}
	// the zone sits at the trade price, not at the liquidity wall
	if recs[0].Payload["target_price"] != 105.0 {
		t.Fatalf("expected target at trade price, got %v", recs[0].Payload["target_price"])
	}
	// bids dominate, intensity = (5+2) * |105 - best bid 100|
	if recs[0].Payload["intensity"] != 35.0 {
		t.Fatalf("unexpected intensity: %v", recs[0].Payload["intensity"])
	}
	// the first zone only sets the anchor, no sum collects yet
	if recs[0].Payload["high_sum"] != 0.0 || recs[0].Payload["low_sum"] != 0.0 {
		t.Fatalf("expected empty sums, got %+v", recs[0].Payload)
	}
	// anchor equals price, bias zero, short
	if recs[0].Side != models.SideShort {
		t.Fatalf("expected short side, got %s", recs[0].Side)
	}

	// a drop below the anchor lands in the low sum and retargets the hot zone
	src.price = 90
	recs, err = st.Evaluate(context.Background(), "BTCUSDT")
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("expected 1 signal, got %d", len(recs))
	}
	// intensity = (5+2) * |90 - best bid 100| wins over the first zone
	if recs[0].Payload["target_price"] != 90.0 || recs[0].Payload["intensity"] != 70.0 {
		t.Fatalf("expected hot zone at 90/70, got %+v", recs[0].Payload)
	}
	if recs[0].Payload["high_sum"] != 0.0 || recs[0].Payload["low_sum"] != 70.0 {
		t.Fatalf("unexpected sums: %+v", recs[0].Payload)
	}
	// anchor 105 above price 90, bias positive, long
	if recs[0].Side != models.SideLong {
		t.Fatalf("expected long side, got %s", recs[0].Side)
	}
}

func TestHeatZoneStrategyMalformedBook(t *testing.T) {
	src := &fakeSource{
		price: 105,
		book:  &models.OrderBook{Symbol: "BTCUSDT", Bids: []models.OrderBookLevel{{Price: 100, Quantity: 5}}},
	}
	st := NewHeatZoneStrategy(src, engine.NewHotZoneAccumulator(), newMemStateStore(), time.Minute, 100, testLogger(t))

	_, err := st.Evaluate(context.Background(), "BTCUSDT")
	var invalid *engine.InvalidArgumentError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected invalid argument error, got %v", err)
	}
}

func TestHeatZoneStrategyPersistsState(t *testing.T) {
	store := newMemStateStore()
	src := &fakeSource{
		price: 105,
		book: &models.OrderBook{
			Symbol: "BTCUSDT",
			Bids:   []models.OrderBookLevel{{Price: 100, Quantity: 5}},
			Asks:   []models.OrderBookLevel{{Price: 110, Quantity: 2}},
		},
	}
	st := NewHeatZoneStrategy(src, engine.NewHotZoneAccumulator(), store, time.Minute, 100, testLogger(t))

	if _, err := st.Evaluate(context.Background(), "BTCUSDT"); err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	saved, _ := store.LoadHotZone(context.Background(), "BTCUSDT")
	if saved == nil || saved.Anchor == nil || saved.Anchor.Price != 105 {
		t.Fatalf("expected persisted anchor at trade price, got %+v", saved)
	}
}

// newMoonAt returns a time whose lunar phase falls in the new moon window.
func newMoonAt() time.Time {
	return time.UnixMilli(engine.NewMoonReferenceMs).Add(time.Hour)
}

// fullMoonAt returns a time in the full moon window (past the half cycle).
func fullMoonAt() time.Time {
	half := time.Duration(engine.LunarCycleMs) * time.Millisecond / 2
	return time.UnixMilli(engine.NewMoonReferenceMs).Add(half + time.Hour)
}

func TestMoonPhaseStrategySeedsThenSells(t *testing.T) {
	src := &fakeSource{price: 100}
	st := NewMoonPhaseStrategy(src, newMemStateStore(), nil, nil, time.Hour, testLogger(t))
	st.SetClock(fixedClock(newMoonAt()))

	// first pass through the window only records the reference
	recs, err := st.Evaluate(context.Background(), "BTCUSDT")
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(recs) != 0 {
		t.Fatalf("expected seeding pass to stay silent, got %d", len(recs))
	}

	// lower price in the same window fires a sell
	src.price = 90
	recs, err = st.Evaluate(context.Background(), "BTCUSDT")
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(recs) != 1 || recs[0].Signal != engine.SignalSell || recs[0].Side != models.SideShort {
		t.Fatalf("expected sell signal, got %+v", recs)
	}
	if recs[0].Payload["action"] != "SELL" {
		t.Fatalf("expected SELL action, got %v", recs[0].Payload["action"])
	}
}

func TestMoonPhaseStrategyFullMoonBuy(t *testing.T) {
	store := newMemStateStore()
	_ = store.SaveLunar(context.Background(), &models.LunarState{Symbol: "BTCUSDT", LastFullMoonPrice: 100})

	src := &fakeSource{price: 120}
	st := NewMoonPhaseStrategy(src, store, nil, nil, time.Hour, testLogger(t))
	st.SetClock(fixedClock(fullMoonAt()))

	recs, err := st.Evaluate(context.Background(), "BTCUSDT")
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(recs) != 1 || recs[0].Signal != engine.SignalBuy || recs[0].Side != models.SideLong {
		t.Fatalf("expected buy signal, got %+v", recs)
	}
	// reference advances to the new high only when the signal fires
	saved, _ := store.LoadLunar(context.Background(), "BTCUSDT")
	if saved == nil || saved.LastFullMoonPrice != 120 {
		t.Fatalf("expected reference update, got %+v", saved)
	}
}

func TestMoonPhaseStrategyHigherPriceNewMoonSilent(t *testing.T) {
	store := newMemStateStore()
	_ = store.SaveLunar(context.Background(), &models.LunarState{Symbol: "BTCUSDT", LastNewMoonPrice: 100})

	src := &fakeSource{price: 150}
	st := NewMoonPhaseStrategy(src, store, nil, nil, time.Hour, testLogger(t))
	st.SetClock(fixedClock(newMoonAt()))

	recs, err := st.Evaluate(context.Background(), "BTCUSDT")
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(recs) != 0 {
		t.Fatalf("expected no signal on higher price in new moon window, got %d", len(recs))
	}
}

func TestSmartMoneyStrategyAccumulating(t *testing.T) {
	wallets := &fakeWallets{
		addrs: []string{"0xaaa", "0xbbb"},
		activity: map[string][]models.WalletActivity{
			"0xaaa": {
				{Wallet: "0xaaa", Asset: "BTC", Buy: 10, Sell: 2, TotalPnL: 500},
				{Wallet: "0xaaa", Asset: "ETH", Buy: 100, Sell: 300},
			},
			"0xbbb": {
				{Wallet: "0xbbb", Asset: "btc", Buy: 5, Sell: 1, TotalPnL: 100},
			},
		},
	}
	st := NewSmartMoneyStrategy(wallets, 10, time.Hour, testLogger(t))

	recs, err := st.Evaluate(context.Background(), "BTCUSDT")
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	// two new BTC holdings plus the aggregate lean
	if len(recs) != 3 {
		t.Fatalf("expected 3 signals, got %d", len(recs))
	}
	holdings := 0
	var lean *models.SignalRecord
	for _, rec := range recs {
		switch rec.Signal {
		case "holding":
			holdings++
			if rec.Side != models.SideLong {
				t.Fatalf("holding signal should be long, got %s", rec.Side)
			}
		case "accumulating":
			lean = rec
		default:
			t.Fatalf("unexpected signal %q", rec.Signal)
		}
	}
	if holdings != 2 {
		t.Fatalf("expected 2 holding signals, got %d", holdings)
	}
	if lean == nil {
		t.Fatal("missing aggregate lean signal")
	}
	if lean.Side != models.SideLong {
		t.Fatalf("lean should be long, got %s", lean.Side)
	}
	if lean.Payload["buy_total"] != "15" || lean.Payload["sell_total"] != "3" {
		t.Fatalf("unexpected totals: %v / %v", lean.Payload["buy_total"], lean.Payload["sell_total"])
	}
	if lean.Payload["positions"] != 2 {
		t.Fatalf("expected only BTC rows counted, got %v", lean.Payload["positions"])
	}

	// same snapshot again: holdings already tracked, only the lean repeats
	recs, err = st.Evaluate(context.Background(), "BTCUSDT")
	if err != nil {
		t.Fatalf("second evaluate: %v", err)
	}
	if len(recs) != 1 || recs[0].Signal != "accumulating" {
		t.Fatalf("expected only the lean on repeat, got %d records", len(recs))
	}
}

func TestSmartMoneyStrategySoldPosition(t *testing.T) {
	wallets := &fakeWallets{
		addrs: []string{"0xaaa"},
		activity: map[string][]models.WalletActivity{
			"0xaaa": {{Wallet: "0xaaa", Asset: "BTC", Buy: 10, Sell: 2, TotalPnL: 50}},
		},
	}
	st := NewSmartMoneyStrategy(wallets, 10, time.Hour, testLogger(t))

	if _, err := st.Evaluate(context.Background(), "BTCUSDT"); err != nil {
		t.Fatalf("evaluate: %v", err)
	}

	// the wallet exits the position
	wallets.activity["0xaaa"] = []models.WalletActivity{
		{Wallet: "0xaaa", Asset: "BTC", Buy: 10, Sell: 10, TotalPnL: 240},
	}
	recs, err := st.Evaluate(context.Background(), "BTCUSDT")
	if err != nil {
		t.Fatalf("evaluate after exit: %v", err)
	}
	var sold *models.SignalRecord
	for _, rec := range recs {
		if rec.Signal == "sold" {
			sold = rec
		}
	}
	if sold == nil {
		t.Fatal("expected a sold signal after the position closed")
	}
	if sold.Side != models.SideShort {
		t.Fatalf("sold signal should be short, got %s", sold.Side)
	}
	if sold.Payload["pnl"] != 240.0 {
		t.Fatalf("unexpected pnl: %v", sold.Payload["pnl"])
	}

	// once reported, the exit is not repeated
	recs, err = st.Evaluate(context.Background(), "BTCUSDT")
	if err != nil {
		t.Fatalf("third evaluate: %v", err)
	}
	for _, rec := range recs {
		if rec.Signal == "sold" {
			t.Fatal("sold signal emitted twice for the same position")
		}
	}
}

func TestSmartMoneyStrategyNoMatch(t *testing.T) {
	wallets := &fakeWallets{
		addrs: []string{"0xaaa"},
		activity: map[string][]models.WalletActivity{
			"0xaaa": {{Wallet: "0xaaa", Asset: "ETH", Buy: 100, Sell: 10}},
		},
	}
	st := NewSmartMoneyStrategy(wallets, 10, time.Hour, testLogger(t))

	recs, err := st.Evaluate(context.Background(), "BTCUSDT")
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(recs) != 0 {
		t.Fatalf("expected no signal without matching asset rows, got %d", len(recs))
	}
}

func TestBaseAsset(t *testing.T) {
	cases := map[string]string{
		"BTCUSDT": "BTC",
		"ETHBUSD": "ETH",
		"SOLUSDC": "SOL",
		"USDT":    "USDT",
	}
	for in, want := range cases {
		if got := baseAsset(in); got != want {
			t.Fatalf("baseAsset(%s) = %s, want %s", in, got, want)
		}
	}
}

package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"LunarPulse/internal/domain/models"
	"LunarPulse/internal/services/engine"
	applogger "LunarPulse/pkg/logger"
)

type stubSignalStore struct {
	recs []*models.SignalRecord
}

func (s *stubSignalStore) Query(_ context.Context, symbol, strategy string, _, _ time.Time, limit int) ([]*models.SignalRecord, error) {
	out := make([]*models.SignalRecord, 0, limit)
	for _, r := range s.recs {
		if r.Symbol != symbol {
			continue
		}
		if strategy != "" && r.Strategy != strategy {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (s *stubSignalStore) Health(_ context.Context) error { return nil }

type stubStateStore struct {
	lunar *models.LunarState
}

func (s *stubStateStore) LoadHotZone(_ context.Context, _ string) (*models.HotZoneState, error) {
	return nil, nil
}
func (s *stubStateStore) SaveHotZone(_ context.Context, _ *models.HotZoneState) error { return nil }
func (s *stubStateStore) LoadLunar(_ context.Context, _ string) (*models.LunarState, error) {
	return s.lunar, nil
}
func (s *stubStateStore) SaveLunar(_ context.Context, _ *models.LunarState) error { return nil }

func testLogger(t *testing.T) *applogger.Logger {
	t.Helper()
	l, err := applogger.New(&applogger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

func newTestHandler(t *testing.T) (*SignalsEchoHandler, *engine.HotZoneAccumulator, *engine.ObservationStore) {
	t.Helper()
	acc := engine.NewHotZoneAccumulator()
	store := engine.NewObservationStore()
	signals := &stubSignalStore{recs: []*models.SignalRecord{
		{Symbol: "BTCUSDT", Strategy: "open-interest", Side: models.SideShort, Signal: "close-longs", ProducedAt: time.Now()},
		{Symbol: "BTCUSDT", Strategy: "moon-phase", Side: models.SideLong, Signal: "buy", ProducedAt: time.Now()},
	}}
	h := NewSignalsEchoHandler(testLogger(t), signals, acc, store, &stubStateStore{})
	return h, acc, store
}

func doRequest(h *SignalsEchoHandler, path string) *httptest.ResponseRecorder {
	e := echo.New()
	h.RegisterRoutes(e)
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return body
}

func TestSignalsEndpoint(t *testing.T) {
	h, _, _ := newTestHandler(t)
	rec := doRequest(h, "/api/signals?symbol=BTCUSDT")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, body %s", rec.Code, rec.Body.String())
	}
	body := decodeData(t, rec)
	data, ok := body["data"].([]interface{})
	if !ok || len(data) != 2 {
		t.Fatalf("expected 2 signals, got %v", body["data"])
	}
}

func TestSignalsEndpointStrategyFilter(t *testing.T) {
	h, _, _ := newTestHandler(t)
	rec := doRequest(h, "/api/signals?symbol=BTCUSDT&strategy=moon-phase")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, body %s", rec.Code, rec.Body.String())
	}
	body := decodeData(t, rec)
	data, _ := body["data"].([]interface{})
	if len(data) != 1 {
		t.Fatalf("expected 1 filtered signal, got %d", len(data))
	}
}

func TestSignalsEndpointStoreDisabled(t *testing.T) {
	// ClickHouse disabled means the DI graph hands the handler a nil store;
	// a valid request must get a 503 payload, not a panic
	h := NewSignalsEchoHandler(testLogger(t), nil, engine.NewHotZoneAccumulator(), engine.NewObservationStore(), &stubStateStore{})
	rec := doRequest(h, "/api/signals?symbol=BTCUSDT")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, body %s", rec.Code, rec.Body.String())
	}
	body := decodeData(t, rec)
	if body["status"].(float64) != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 status payload, got %v", body["status"])
	}
}

func TestSignalsEndpointRequiresSymbol(t *testing.T) {
	h, _, _ := newTestHandler(t)
	rec := doRequest(h, "/api/signals")
	body := decodeData(t, rec)
	if body["status"].(float64) != http.StatusBadRequest {
		t.Fatalf("expected 400 status payload, got %v", body["status"])
	}
}

func TestSignalsEndpointRejectsUnknownStrategy(t *testing.T) {
	h, _, _ := newTestHandler(t)
	rec := doRequest(h, "/api/signals?symbol=BTCUSDT&strategy=astrology")
	body := decodeData(t, rec)
	if body["status"].(float64) != http.StatusBadRequest {
		t.Fatalf("expected 400 status payload, got %v", body["status"])
	}
}

func TestHotZoneEndpoint(t *testing.T) {
	h, acc, _ := newTestHandler(t)
	acc.Ingest("BTCUSDT", models.LiquidationZone{Price: 100, Intensity: 5})
	acc.Ingest("BTCUSDT", models.LiquidationZone{Price: 90, Intensity: 7})

	rec := doRequest(h, "/api/hotzone?symbol=BTCUSDT")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	body := decodeData(t, rec)
	data, _ := body["data"].(map[string]interface{})
	hz, _ := data["hot_zone"].(map[string]interface{})
	if hz == nil || hz["price"].(float64) != 90 {
		t.Fatalf("expected hot zone at 90, got %v", data)
	}
}

func TestHotZoneEndpointUnknownSymbol(t *testing.T) {
	h, _, _ := newTestHandler(t)
	rec := doRequest(h, "/api/hotzone?symbol=DOGEUSDT")
	body := decodeData(t, rec)
	if body["status"].(float64) != http.StatusNotFound {
		t.Fatalf("expected 404 status payload, got %v", body["status"])
	}
}

func TestOpenInterestEndpoint(t *testing.T) {
	h, _, store := newTestHandler(t)
	now := time.Now()
	_ = store.Record(models.Observation{Symbol: "BTCUSDT", Value: 100, Timestamp: now.Add(-time.Hour).UnixMilli()})
	_ = store.Record(models.Observation{Symbol: "BTCUSDT", Value: 120, Timestamp: now.UnixMilli()})

	rec := doRequest(h, "/api/oi?symbol=BTCUSDT&window=24h")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	body := decodeData(t, rec)
	data, _ := body["data"].(map[string]interface{})
	if data["current"].(float64) != 120 {
		t.Fatalf("expected current 120, got %v", data["current"])
	}
	if data["peak"].(float64) != 120 || data["trough"].(float64) != 100 {
		t.Fatalf("unexpected extrema: %v", data)
	}
}

func TestMoonEndpoint(t *testing.T) {
	h, _, _ := newTestHandler(t)
	rec := doRequest(h, "/api/moon?symbol=BTCUSDT")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	body := decodeData(t, rec)
	data, _ := body["data"].(map[string]interface{})
	phase, ok := data["phase"].(float64)
	if !ok || phase < 0 || phase >= 1 {
		t.Fatalf("expected phase in [0,1), got %v", data["phase"])
	}
}

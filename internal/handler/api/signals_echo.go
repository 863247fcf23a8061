package api

import (
	"time"

	models "LunarPulse/internal/domain/models"
	domrepo "LunarPulse/internal/domain/repository"
	"LunarPulse/internal/service/metrics"
	"LunarPulse/internal/service/ratelimit"
	"LunarPulse/internal/services/engine"
	"LunarPulse/pkg/cache"
	xhttp "LunarPulse/pkg/http"
	xlogger "LunarPulse/pkg/logger"
	"LunarPulse/pkg/util"

	"github.com/labstack/echo/v4"
)

// SignalsEchoHandler serves the read-side API over the signal store and the
// in-memory strategy state.
type SignalsEchoHandler struct {
	logger  *xlogger.Logger
	signals domrepo.SignalStore
	acc     *engine.HotZoneAccumulator
	oiStore *engine.ObservationStore
	state   domrepo.StateStore
	cache   cache.Service
	rl      *ratelimit.Limiter
}

func NewSignalsEchoHandler(logger *xlogger.Logger, signals domrepo.SignalStore, acc *engine.HotZoneAccumulator, oiStore *engine.ObservationStore, state domrepo.StateStore) *SignalsEchoHandler {
	metrics.Register()
	return &SignalsEchoHandler{
		logger:  logger,
		signals: signals,
		acc:     acc,
		oiStore: oiStore,
		state:   state,
		rl:      ratelimit.New(),
	}
}

// SetCache enables short-lived response caching for the signals endpoint.
func (h *SignalsEchoHandler) SetCache(c cache.Service) { h.cache = c }

func (h *SignalsEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/signals", h.Signals)
	g.GET("/hotzone", h.HotZone)
	g.GET("/oi", h.OpenInterest)
	g.GET("/moon", h.MoonPhase)
}

func (h *SignalsEchoHandler) observe(endpoint string, start time.Time) {
	metrics.APILatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
}

func (h *SignalsEchoHandler) Signals(c echo.Context) error {
	start := time.Now()
	defer h.observe("signals", start)

	// the signal store is nil when ClickHouse is disabled; the route stays
	// registered so callers get an explicit answer instead of a dropped route
	if h.signals == nil {
		return xhttp.ServiceUnavailableResponse(c, "signal history storage is disabled")
	}

	req := &models.SignalsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if !h.rl.Allow(c.RealIP()+":signals", 5, 2) {
		return xhttp.TooManyRequestsResponse(c)
	}
	req.Symbol = util.NormalizeSymbol(req.Symbol)

	from := util.ParseTimeDefault(req.From, time.Now().Add(-24*time.Hour))
	to := util.ParseTimeDefault(req.To, time.Now())

	cacheKey := cache.GenerateKeyWithParams("api:signals", req.Symbol, req.Strategy)
	if h.cache != nil && req.From == "" && req.To == "" {
		var cached []*models.SignalRecord
		if err := h.cache.Get(c.Request().Context(), cacheKey, &cached); err == nil {
			return xhttp.SuccessResponse(c, cached)
		}
	}

	recs, err := h.signals.Query(c.Request().Context(), req.Symbol, req.Strategy, from, to, req.Limit)
	if err != nil {
		metrics.APIErrors.WithLabelValues("signals").Inc()
		h.logger.Error("signals query error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}

	if h.cache != nil && req.From == "" && req.To == "" {
		if err := h.cache.Set(c.Request().Context(), cacheKey, recs, 15*time.Second); err != nil {
			h.logger.Warn("signals cache set error", xlogger.Error(err))
		}
	}
	return xhttp.SuccessResponse(c, recs)
}

func (h *SignalsEchoHandler) HotZone(c echo.Context) error {
	start := time.Now()
	defer h.observe("hotzone", start)

	req := &models.HotZoneRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	req.Symbol = util.NormalizeSymbol(req.Symbol)
	st, ok := h.acc.State(req.Symbol)
	if !ok {
		return xhttp.NotFoundResponse(c, "no hot zone state for symbol")
	}
	return xhttp.SuccessResponse(c, st)
}

func (h *SignalsEchoHandler) OpenInterest(c echo.Context) error {
	start := time.Now()
	defer h.observe("oi", start)

	req := &models.OpenInterestRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	req.Symbol = util.NormalizeSymbol(req.Symbol)
	window := util.ParseDurationDefault(req.Window, 24*time.Hour)

	latest, ok := h.oiStore.Latest(req.Symbol)
	if !ok {
		return xhttp.NotFoundResponse(c, "no open interest data for symbol")
	}

	tracker := engine.NewExtremaTracker(h.oiStore)
	resp := map[string]any{
		"symbol":     req.Symbol,
		"current":    latest.Value,
		"updated_at": latest.Timestamp,
	}
	if peak, err := tracker.Peak(req.Symbol, window); err == nil {
		resp["peak"] = peak
	}
	if trough, err := tracker.Trough(req.Symbol, window); err == nil {
		resp["trough"] = trough
	}
	return xhttp.SuccessResponse(c, resp)
}

func (h *SignalsEchoHandler) MoonPhase(c echo.Context) error {
	start := time.Now()
	defer h.observe("moon", start)

	req := &models.MoonPhaseRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	req.Symbol = util.NormalizeSymbol(req.Symbol)
	phase, err := engine.Phase(time.Now().UnixMilli(), engine.NewMoonReferenceMs, engine.LunarCycleMs)
	if err != nil {
		metrics.APIErrors.WithLabelValues("moon").Inc()
		return xhttp.AppErrorResponse(c, err)
	}

	resp := map[string]any{
		"symbol": req.Symbol,
		"phase":  phase,
	}
	if st, err := h.state.LoadLunar(c.Request().Context(), req.Symbol); err != nil {
		h.logger.Warn("lunar state load error", xlogger.Error(err))
	} else if st != nil {
		resp["last_new_moon_price"] = st.LastNewMoonPrice
		resp["last_full_moon_price"] = st.LastFullMoonPrice
	}
	return xhttp.SuccessResponse(c, resp)
}


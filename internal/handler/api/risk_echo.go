package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	models "RiskLens/internal/domain/models"
	domrepo "RiskLens/internal/domain/repository"
	icache "RiskLens/internal/service/cache"
	imetrics "RiskLens/internal/service/metrics"
	"RiskLens/internal/service/ratelimit"
	"RiskLens/internal/usecase"
	xhttp "RiskLens/pkg/http"
	xlogger "RiskLens/pkg/logger"

	"github.com/labstack/echo/v4"
)

// RiskEchoHandler exposes the risk engine over Echo: reports, beta history,
// scenario projections and the scenario catalogue.
type RiskEchoHandler struct {
	logger   *xlogger.Logger
	builder  *usecase.ReportBuilder
	runner   *usecase.ScenarioRunner
	metrics  domrepo.Metrics
	cache    icache.BytesCache
	cacheTTL time.Duration
	limiter  *ratelimit.Limiter
	rps      float64
	burst    float64
}

func NewRiskEchoHandler(logger *xlogger.Logger, builder *usecase.ReportBuilder, runner *usecase.ScenarioRunner) *RiskEchoHandler {
	imetrics.Register()
	return &RiskEchoHandler{logger: logger, builder: builder, runner: runner}
}

// SetMetrics enables engine-level counters (cache hit ratio and friends).
func (h *RiskEchoHandler) SetMetrics(m domrepo.Metrics) {
	h.metrics = m
}

// SetCache enables report caching with the given TTL.
func (h *RiskEchoHandler) SetCache(c icache.BytesCache, ttl time.Duration) {
	h.cache = c
	h.cacheTTL = ttl
}

// SetRateLimit enables per-client-IP token bucket limiting.
func (h *RiskEchoHandler) SetRateLimit(l *ratelimit.Limiter, rps float64, burst int) {
	h.limiter = l
	h.rps = rps
	h.burst = float64(burst)
}

func (h *RiskEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	if h.limiter != nil {
		g.Use(h.rateLimit)
	}
	g.GET("/report", h.Report)
	g.GET("/betas", h.Betas)
	g.POST("/scenario", h.Scenario)
	g.GET("/scenarios", h.Scenarios)
}

func (h *RiskEchoHandler) rateLimit(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !h.limiter.Allow(c.RealIP(), h.burst, h.rps) {
			return xhttp.DataResponse(c, http.StatusTooManyRequests, "rate limit exceeded")
		}
		return next(c)
	}
}

func observe(endpoint string, start time.Time, err error) {
	imetrics.APILatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	if err != nil {
		imetrics.APIErrors.WithLabelValues(endpoint).Inc()
	}
}

func (h *RiskEchoHandler) Report(c echo.Context) error {
	start := time.Now()
	req := &models.ReportRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	key := "report:" + req.Symbol
	if h.cache != nil && !req.Refresh {
		if b, ok, err := h.cache.GetBytes(key); err == nil && ok {
			var cached models.RiskReport
			if err := json.Unmarshal(b, &cached); err == nil {
				h.recordCacheHit("report", true)
				return xhttp.SuccessResponse(c, &cached)
			}
		}
		h.recordCacheHit("report", false)
	}

	report, err := h.builder.Build(c.Request().Context(), req.Symbol)
	observe("report", start, err)
	if err != nil {
		h.logger.Error("report usecase error",
			xlogger.String("symbol", req.Symbol),
			xlogger.Error(err),
		)
		return xhttp.AppErrorResponse(c, mapDomainError(err))
	}

	if h.cache != nil {
		if b, err := json.Marshal(report); err == nil {
			_ = h.cache.SetBytes(key, b, h.cacheTTL)
		}
	}
	return xhttp.SuccessResponse(c, report)
}

func (h *RiskEchoHandler) Betas(c echo.Context) error {
	start := time.Now()
	req := &models.BetasRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	snaps, err := h.runner.Betas(c.Request().Context(), req.Symbol, req.N)
	observe("betas", start, err)
	if err != nil {
		h.logger.Error("betas usecase error",
			xlogger.String("symbol", req.Symbol),
			xlogger.Error(err),
		)
		return xhttp.AppErrorResponse(c, mapDomainError(err))
	}
	return xhttp.ListResponse(c, snaps, int64(len(snaps)))
}

func (h *RiskEchoHandler) Scenario(c echo.Context) error {
	start := time.Now()
	req := &models.ScenarioRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	var (
		impact models.ScenarioImpact
		err    error
	)
	if req.Trigger != "" {
		impact, err = h.runner.RunDerived(c.Request().Context(), req.Symbol, req.Trigger, req.Quantile, req.Target, req.Severity)
	} else if req.From != "" {
		from, ok := xhttp.ParseTime(req.From)
		if !ok {
			return xhttp.BadRequestResponse(c, "from must be RFC3339 or unix seconds")
		}
		to, ok := xhttp.ParseTime(req.To)
		if !ok {
			return xhttp.BadRequestResponse(c, "to must be RFC3339 or unix seconds")
		}
		impact, err = h.runner.RunWindow(c.Request().Context(), req.Symbol, from, to, req.Severity)
	} else {
		impact, err = h.runner.Run(c.Request().Context(), req.Symbol, req.Scenario, req.Severity)
	}
	observe("scenario", start, err)
	if err != nil {
		h.logger.Error("scenario usecase error",
			xlogger.String("symbol", req.Symbol),
			xlogger.String("scenario", req.Scenario),
			xlogger.Error(err),
		)
		return xhttp.AppErrorResponse(c, mapDomainError(err))
	}
	return xhttp.SuccessResponse(c, impact)
}

func (h *RiskEchoHandler) recordCacheHit(endpoint string, hit bool) {
	if h.metrics != nil {
		h.metrics.RecordCacheHit(endpoint, hit)
	}
}

func (h *RiskEchoHandler) Scenarios(c echo.Context) error {
	defs := h.runner.List()
	return xhttp.ListResponse(c, defs, int64(len(defs)))
}

// mapDomainError translates engine errors into API errors with proper status
// codes; anything unrecognized surfaces as 500.
func mapDomainError(err error) error {
	var (
		gap     *models.DataGapError
		unknown *models.UnknownScenarioError
		stale   *models.StaleBetaError
	)
	switch {
	case errors.As(err, &gap):
		return xhttp.NewAppError("ERR_DATA_GAP", "symbol", gap.Error(), http.StatusUnprocessableEntity).
			WithParam("rows", gap.Rows).
			WithParam("min_rows", gap.MinRows).
			WithError(err)
	case errors.As(err, &unknown):
		return xhttp.NotFoundErrorf("unknown scenario %q", unknown.Name).WithError(err)
	case errors.As(err, &stale):
		return xhttp.NewAppError("ERR_STALE_BETAS", "symbol",
			fmt.Sprintf("no fitted betas for %s; trigger a recompute first", stale.Asset),
			http.StatusConflict).WithError(err)
	default:
		return err
	}
}

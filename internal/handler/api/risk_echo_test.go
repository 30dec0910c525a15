package api

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"RiskLens/internal/domain/models"
	icache "RiskLens/internal/service/cache"
	"RiskLens/internal/services/align"
	"RiskLens/internal/services/diversification"
	"RiskLens/internal/services/regression"
	"RiskLens/internal/services/scenario"
	"RiskLens/internal/services/tailrisk"
	"RiskLens/internal/usecase"
	xlogger "RiskLens/pkg/logger"
)

type stubSource struct {
	assets  map[string]models.ReturnSeries
	factors map[string]models.FactorSeries
}

func (s *stubSource) GetReturnSeries(_ context.Context, symbol string, _, _ time.Time) (models.ReturnSeries, error) {
	rs, ok := s.assets[symbol]
	if !ok {
		return models.ReturnSeries{}, fmt.Errorf("no such symbol %s", symbol)
	}
	return rs, nil
}

func (s *stubSource) GetFactorSeries(_ context.Context, name string, _, _ time.Time) (models.FactorSeries, error) {
	fs, ok := s.factors[name]
	if !ok {
		return models.FactorSeries{}, fmt.Errorf("no such factor %s", name)
	}
	return fs, nil
}

type stubStore struct{}

func (s *stubStore) Init(context.Context) error                               { return nil }
func (s *stubStore) StoreBetas(context.Context, *models.BetaTimeSeries) error { return nil }
func (s *stubStore) LatestBetas(context.Context, string, int) ([]models.BetaSnapshot, error) {
	return []models.BetaSnapshot{{
		Date:  time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC),
		Betas: map[string]float64{"MKT": 0.5, "RATES": -0.2},
	}}, nil
}
func (s *stubStore) StoreReport(context.Context, *models.RiskReport) error { return nil }
func (s *stubStore) Health(context.Context) error                          { return nil }
func (s *stubStore) Close() error                                          { return nil }

type stubMetrics struct {
	mu        sync.Mutex
	cacheHits []bool
	scenarios []string
}

func (m *stubMetrics) RecordRecompute(string, float64)      {}
func (m *stubMetrics) RecordAlignedRows(string, int)        {}
func (m *stubMetrics) RecordWindowsFitted(string, int, int) {}
func (m *stubMetrics) RecordScenarioRun(scenario string) {
	m.mu.Lock()
	m.scenarios = append(m.scenarios, scenario)
	m.mu.Unlock()
}
func (m *stubMetrics) RecordCacheHit(_ string, hit bool) {
	m.mu.Lock()
	m.cacheHits = append(m.cacheHits, hit)
	m.mu.Unlock()
}
func (m *stubMetrics) RecordError(string) {}

func obsSeries(n int, gen func(i int) float64) []models.Observation {
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	obs := make([]models.Observation, n)
	for i := 0; i < n; i++ {
		obs[i] = models.Observation{Date: start.AddDate(0, 0, i), Value: gen(i)}
	}
	return obs
}

func newTestHandler(t *testing.T) (*RiskEchoHandler, *stubMetrics) {
	t.Helper()

	mkt := func(i int) float64 { return 0.01 * math.Sin(float64(i)) }
	rates := func(i int) float64 { return 0.008 * math.Cos(float64(i)*1.7) }
	asset := func(i int) float64 { return 0.0003 + 0.6*mkt(i) - 0.2*rates(i) }
	src := &stubSource{
		assets: map[string]models.ReturnSeries{
			"AAA": {Symbol: "AAA", Region: models.RegionUS, Obs: obsSeries(80, asset)},
		},
		factors: map[string]models.FactorSeries{
			"MKT":   {Name: "MKT", Region: models.RegionUS, Obs: obsSeries(80, mkt)},
			"RATES": {Name: "RATES", Region: models.RegionUS, Obs: obsSeries(80, rates)},
		},
	}
	store := &stubStore{}
	rm := &stubMetrics{}

	bcfg := usecase.BuilderConfig{Symbols: []string{"AAA"}, Factors: []string{"MKT", "RATES"}}
	ridge, err := regression.New(regression.Config{Window: 20, Lambda: 1.0})
	require.NoError(t, err)
	builder := usecase.NewReportBuilder(
		bcfg, src, store, rm,
		align.New(align.Config{MinRows: 5}),
		ridge,
		tailrisk.New(tailrisk.Config{}),
		diversification.New(diversification.Config{}),
	)

	gen, err := scenario.New(nil)
	require.NoError(t, err)
	runner := usecase.NewScenarioRunner(bcfg, src, store, rm, gen)

	l, err := xlogger.New(&xlogger.Config{Level: "error", Format: "json", Output: "stdout"})
	require.NoError(t, err)

	h := NewRiskEchoHandler(l, builder, runner)
	h.SetMetrics(rm)
	return h, rm
}

func TestReportCacheHitRecorded(t *testing.T) {
	h, rm := newTestHandler(t)
	h.SetCache(icache.NewTTLCache(), time.Minute)

	e := echo.New()
	h.RegisterRoutes(e)

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/report?symbol=AAA", nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	// first lookup misses and builds, second is served from cache
	require.Equal(t, []bool{false, true}, rm.cacheHits)
}

func TestScenarioDerivedFromTrigger(t *testing.T) {
	h, rm := newTestHandler(t)

	e := echo.New()
	h.RegisterRoutes(e)

	body := `{"symbol":"AAA","trigger":"MKT","quantile":0.9,"target":0.2}`
	req := httptest.NewRequest(http.MethodPost, "/api/scenario", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "derived:MKT")
	require.Contains(t, rec.Body.String(), "Contributions")
	require.Equal(t, []string{"derived"}, rm.scenarios)
}

func TestScenarioUnknownNameIs404(t *testing.T) {
	h, _ := newTestHandler(t)

	e := echo.New()
	h.RegisterRoutes(e)

	body := `{"symbol":"AAA","scenario":"dot_com"}`
	req := httptest.NewRequest(http.MethodPost, "/api/scenario", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

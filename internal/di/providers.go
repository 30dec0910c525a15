package di

import (
	"context"
	"fmt"
	"time"

	"RiskLens/internal/domain/models"
	"RiskLens/internal/domain/repository"
	domsvc "RiskLens/internal/domain/service"
	"RiskLens/internal/handler/api"
	internalrepo "RiskLens/internal/repository"
	icache "RiskLens/internal/service/cache"
	"RiskLens/internal/service/ratelimit"
	"RiskLens/internal/services/align"
	"RiskLens/internal/services/diversification"
	"RiskLens/internal/services/regression"
	"RiskLens/internal/services/scenario"
	"RiskLens/internal/services/tailrisk"
	"RiskLens/internal/usecase"
	pkgch "RiskLens/pkg/clickhouse"
	"RiskLens/pkg/config"
	xhttp "RiskLens/pkg/http"
	applogger "RiskLens/pkg/logger"
	"RiskLens/pkg/metrics"
	"RiskLens/pkg/server"
)

// ProvideLogger creates the application logger from the environment.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	format := "json"
	if cfg.Environment == "dev" || cfg.Environment == "local" {
		format = "console"
	}
	return applogger.New(&applogger.Config{Level: "info", Format: format, Output: "stdout"})
}

// ProvideClickHouseClient creates a ClickHouse client.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideSeriesSource creates the ClickHouse-backed series reader.
func ProvideSeriesSource(chClient *pkgch.Client, l *applogger.Logger) repository.SeriesSource {
	src := internalrepo.NewCHSeriesSource(chClient)
	src.SetLogger(l)
	return src
}

// ProvideReportStore creates the ClickHouse-backed output store and ensures
// its schema exists.
func ProvideReportStore(chClient *pkgch.Client, l *applogger.Logger) (repository.ReportStore, error) {
	store := internalrepo.NewCHReportStore(chClient)
	store.SetLogger(l)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.Init(ctx); err != nil {
		return nil, fmt.Errorf("report store schema: %w", err)
	}
	return store, nil
}

// ProvideAligner builds the calendar aligner with configured region closes.
func ProvideAligner(cfg *config.Config) domsvc.Aligner {
	closes := align.DefaultCloseMinutes()
	for region, minutes := range cfg.Regions.CloseMinutes {
		closes[models.RegionTag(region)] = minutes
	}
	return align.New(align.Config{
		CloseMinutes: closes,
		MinRows:      cfg.Risk.MinAlignedRows,
	})
}

// ProvideBetaEstimator builds the rolling ridge estimator.
func ProvideBetaEstimator(cfg *config.Config) (domsvc.BetaEstimator, error) {
	return regression.New(regression.Config{
		Window: cfg.Risk.Window,
		Lambda: cfg.Risk.Lambda,
	})
}

// ProvideScenarioGenerator registers the configured stress episodes.
func ProvideScenarioGenerator(cfg *config.Config) (domsvc.ScenarioGenerator, error) {
	defs := make([]models.ScenarioDefinition, 0, len(cfg.Scenarios))
	for _, sc := range cfg.Scenarios {
		start, err := time.Parse("2006-01-02", sc.Start)
		if err != nil {
			return nil, fmt.Errorf("scenario %q start: %w", sc.Name, err)
		}
		end, err := time.Parse("2006-01-02", sc.End)
		if err != nil {
			return nil, fmt.Errorf("scenario %q end: %w", sc.Name, err)
		}
		defs = append(defs, models.ScenarioDefinition{Name: sc.Name, Start: start, End: end})
	}
	return scenario.New(defs)
}

// ProvideTailRiskEstimator builds the VaR and volatility estimator.
func ProvideTailRiskEstimator(cfg *config.Config) domsvc.TailRiskEstimator {
	return tailrisk.New(tailrisk.Config{
		Window:        cfg.Risk.VaRWindow,
		Confidences:   cfg.Risk.VaRConfidences,
		Annualization: cfg.Risk.Annualization,
	})
}

// ProvideDiversificationMonitor builds the correlation and drawdown monitor.
func ProvideDiversificationMonitor(cfg *config.Config) domsvc.DiversificationMonitor {
	return diversification.New(diversification.Config{Window: cfg.Risk.CorrWindow})
}

// ProvideBuilderConfig extracts the recompute configuration.
func ProvideBuilderConfig(cfg *config.Config) usecase.BuilderConfig {
	return usecase.BuilderConfig{
		Symbols:      cfg.Portfolio.Symbols,
		Factors:      cfg.Portfolio.Factors,
		LookbackDays: cfg.Risk.LookbackDays,
		Parallelism:  cfg.Risk.Parallelism,
	}
}

// ProvideReportBuilder creates the recompute use case.
func ProvideReportBuilder(
	bcfg usecase.BuilderConfig,
	src repository.SeriesSource,
	store repository.ReportStore,
	m repository.Metrics,
	aligner domsvc.Aligner,
	betas domsvc.BetaEstimator,
	tail domsvc.TailRiskEstimator,
	div domsvc.DiversificationMonitor,
	l *applogger.Logger,
) *usecase.ReportBuilder {
	b := usecase.NewReportBuilder(bcfg, src, store, m, aligner, betas, tail, div)
	b.SetLogger(l)
	return b
}

// ProvideScenarioRunner creates the scenario use case.
func ProvideScenarioRunner(
	bcfg usecase.BuilderConfig,
	src repository.SeriesSource,
	store repository.ReportStore,
	m repository.Metrics,
	gen domsvc.ScenarioGenerator,
) *usecase.ScenarioRunner {
	return usecase.NewScenarioRunner(bcfg, src, store, m, gen)
}

// ProvideHTTPHandler creates the Echo handler with cache and rate limiting.
func ProvideHTTPHandler(
	cfg *config.Config,
	builder *usecase.ReportBuilder,
	runner *usecase.ScenarioRunner,
	m repository.Metrics,
	l *applogger.Logger,
) xhttp.Handler {
	h := api.NewRiskEchoHandler(l, builder, runner)
	h.SetMetrics(m)

	ttl := cfg.Cache.TTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if cfg.Cache.Redis.Enabled {
		h.SetCache(icache.NewRedisCache(icache.RedisConfig{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
		}), ttl)
	} else {
		h.SetCache(icache.NewTTLCache(), ttl)
	}

	if cfg.RateLimit.Enabled {
		h.SetRateLimit(ratelimit.New(), cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	}
	return h
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	builder *usecase.ReportBuilder,
	chClient *pkgch.Client,
	handler xhttp.Handler,
	l *applogger.Logger,
) *server.App {
	app := server.New(cfg, builder, chClient, l)
	app.SetHTTPHandler(handler)
	return app
}

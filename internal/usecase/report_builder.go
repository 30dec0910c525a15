package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"RiskLens/internal/domain/models"
	domrepo "RiskLens/internal/domain/repository"
	domsvc "RiskLens/internal/domain/service"
	applogger "RiskLens/pkg/logger"
)

// BuilderConfig is the immutable recompute configuration.
type BuilderConfig struct {
	Symbols      []string
	Factors      []string
	LookbackDays int
	Parallelism  int
}

// ReportBuilder runs one full recompute cycle per asset: fetch series, align,
// fan out regression / tail-risk / diversification, and assemble an immutable
// RiskReport. The engine itself performs no I/O; all fetching happens here at
// the boundary.
type ReportBuilder struct {
	cfg     BuilderConfig
	src     domrepo.SeriesSource
	store   domrepo.ReportStore
	metrics domrepo.Metrics
	aligner domsvc.Aligner
	betas   domsvc.BetaEstimator
	tail    domsvc.TailRiskEstimator
	div     domsvc.DiversificationMonitor
	logger  *applogger.Logger
}

func NewReportBuilder(
	cfg BuilderConfig,
	src domrepo.SeriesSource,
	store domrepo.ReportStore,
	metrics domrepo.Metrics,
	aligner domsvc.Aligner,
	betas domsvc.BetaEstimator,
	tail domsvc.TailRiskEstimator,
	div domsvc.DiversificationMonitor,
) *ReportBuilder {
	if cfg.LookbackDays <= 0 {
		cfg.LookbackDays = 3650
	}
	if cfg.Parallelism <= 0 {
		cfg.Parallelism = 4
	}
	return &ReportBuilder{
		cfg: cfg, src: src, store: store, metrics: metrics,
		aligner: aligner, betas: betas, tail: tail, div: div,
	}
}

// SetLogger injects a structured logger.
func (b *ReportBuilder) SetLogger(l *applogger.Logger) { b.logger = l }

// Build recomputes the report for one symbol. Alignment shortfalls propagate
// as DataGapError; a regression that cannot fit any window is recorded as an
// omission rather than aborting the rest of the report.
func (b *ReportBuilder) Build(ctx context.Context, symbol string) (*models.RiskReport, error) {
	start := time.Now()
	from, to := b.window()

	asset, err := b.src.GetReturnSeries(ctx, symbol, from, to)
	if err != nil {
		b.recordError("series_source")
		return nil, fmt.Errorf("fetch returns %s: %w", symbol, err)
	}
	if asset.Region == "" {
		asset.Region = models.InferRegion(symbol)
	}

	factors, err := b.fetchFactors(ctx, from, to)
	if err != nil {
		return nil, err
	}

	panel, err := b.aligner.Align(asset, factors)
	if err != nil {
		b.recordError("align")
		return nil, err
	}
	if b.metrics != nil {
		b.metrics.RecordAlignedRows(symbol, panel.Rows())
	}

	report := &models.RiskReport{
		Symbol:      symbol,
		GeneratedAt: time.Now().UTC(),
		AlignedRows: panel.Rows(),
	}

	ts, err := b.betas.Estimate(ctx, panel)
	switch {
	case err == nil:
		// fitted
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return nil, err
	default:
		var gap *models.DataGapError
		if !errors.As(err, &gap) {
			b.recordError("regression")
			return nil, err
		}
		ts = nil
	}
	if latest, ok := ts.Latest(); ok {
		snap := latest
		report.Beta = &snap
		report.BetaSkipped = ts.SkippedWindows
		if b.metrics != nil {
			b.metrics.RecordWindowsFitted(symbol, len(ts.Snapshots), ts.SkippedWindows)
		}
	} else {
		report.Omissions = append(report.Omissions, "beta")
	}

	vars, vol := b.tail.Estimate(panel.AssetReturns)
	report.VaR = vars
	report.Volatility = &vol

	dd := b.div.Drawdown(panel.AssetReturns)
	report.Drawdown = &dd

	if assets, err := b.fetchPortfolio(ctx, from, to); err != nil {
		if b.logger != nil {
			b.logger.Warn("portfolio series unavailable", applogger.Error(err))
		}
		report.Omissions = append(report.Omissions, "correlations", "portfolio_drawdown")
	} else {
		corr := b.div.Correlations(assets)
		report.Correlations = &corr
		pdd := b.div.PortfolioDrawdown(assets)
		report.PortfolioDrawdown = &pdd
	}

	b.persist(ctx, ts, report)

	if b.metrics != nil {
		b.metrics.RecordRecompute(symbol, time.Since(start).Seconds())
	}
	if b.logger != nil {
		b.logger.Info("report rebuilt",
			applogger.String("symbol", symbol),
			applogger.Int("aligned_rows", panel.Rows()),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return report, nil
}

// BuildAll recomputes every configured symbol with a bounded fan-out.
// Per-symbol failures are reported per symbol; cancellation abandons the
// symbols not yet started and whatever windows the running fits had left.
func (b *ReportBuilder) BuildAll(ctx context.Context) (map[string]*models.RiskReport, map[string]error) {
	reports := make(map[string]*models.RiskReport, len(b.cfg.Symbols))
	failures := make(map[string]error)

	var mu sync.Mutex
	var wg sync.WaitGroup
	sem := make(chan struct{}, b.cfg.Parallelism)

	for _, symbol := range b.cfg.Symbols {
		if ctx.Err() != nil {
			mu.Lock()
			failures[symbol] = ctx.Err()
			mu.Unlock()
			continue
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(sym string) {
			defer wg.Done()
			defer func() { <-sem }()
			r, err := b.Build(ctx, sym)
			mu.Lock()
			if err != nil {
				failures[sym] = err
			} else {
				reports[sym] = r
			}
			mu.Unlock()
		}(symbol)
	}
	wg.Wait()
	return reports, failures
}

func (b *ReportBuilder) window() (time.Time, time.Time) {
	to := time.Now().UTC().Truncate(24 * time.Hour)
	return to.AddDate(0, 0, -b.cfg.LookbackDays), to
}

func (b *ReportBuilder) fetchFactors(ctx context.Context, from, to time.Time) ([]models.FactorSeries, error) {
	out := make([]models.FactorSeries, 0, len(b.cfg.Factors))
	for _, name := range b.cfg.Factors {
		fs, err := b.src.GetFactorSeries(ctx, name, from, to)
		if err != nil {
			b.recordError("series_source")
			return nil, fmt.Errorf("fetch factor %s: %w", name, err)
		}
		out = append(out, fs)
	}
	return out, nil
}

func (b *ReportBuilder) fetchPortfolio(ctx context.Context, from, to time.Time) ([]models.ReturnSeries, error) {
	assets := make([]models.ReturnSeries, 0, len(b.cfg.Symbols))
	for _, sym := range b.cfg.Symbols {
		rs, err := b.src.GetReturnSeries(ctx, sym, from, to)
		if err != nil {
			return nil, fmt.Errorf("fetch returns %s: %w", sym, err)
		}
		assets = append(assets, rs)
	}
	return assets, nil
}

// persist is best-effort: a broken store must not fail a recompute.
func (b *ReportBuilder) persist(ctx context.Context, ts *models.BetaTimeSeries, report *models.RiskReport) {
	if b.store == nil {
		return
	}
	if ts != nil && len(ts.Snapshots) > 0 {
		if err := b.store.StoreBetas(ctx, ts); err != nil {
			b.recordError("report_store")
			if b.logger != nil {
				b.logger.Warn("store betas failed", applogger.Error(err))
			}
		}
	}
	if err := b.store.StoreReport(ctx, report); err != nil {
		b.recordError("report_store")
		if b.logger != nil {
			b.logger.Warn("store report failed", applogger.Error(err))
		}
	}
}

func (b *ReportBuilder) recordError(kind string) {
	if b.metrics != nil {
		b.metrics.RecordError(kind)
	}
}

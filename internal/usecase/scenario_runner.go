package usecase

import (
	"context"
	"fmt"
	"time"

	"RiskLens/internal/domain/models"
	domrepo "RiskLens/internal/domain/repository"
	domsvc "RiskLens/internal/domain/service"
)

// ScenarioRunner replays named stress episodes through the most recently
// persisted betas. It reads snapshots from the store rather than refitting, so
// a scenario request stays cheap even for deep histories.
type ScenarioRunner struct {
	cfg       BuilderConfig
	src       domrepo.SeriesSource
	store     domrepo.ReportStore
	metrics   domrepo.Metrics
	generator domsvc.ScenarioGenerator
}

func NewScenarioRunner(
	cfg BuilderConfig,
	src domrepo.SeriesSource,
	store domrepo.ReportStore,
	metrics domrepo.Metrics,
	generator domsvc.ScenarioGenerator,
) *ScenarioRunner {
	if cfg.LookbackDays <= 0 {
		cfg.LookbackDays = 3650
	}
	return &ScenarioRunner{cfg: cfg, src: src, store: store, metrics: metrics, generator: generator}
}

// Run projects one scenario for one symbol. A symbol with no stored betas
// yields StaleBetaError; callers decide whether to trigger a recompute first.
func (r *ScenarioRunner) Run(ctx context.Context, symbol, scenario string, severity float64) (models.ScenarioImpact, error) {
	snaps, err := r.store.LatestBetas(ctx, symbol, 1)
	if err != nil {
		if r.metrics != nil {
			r.metrics.RecordError("report_store")
		}
		return models.ScenarioImpact{}, fmt.Errorf("load betas %s: %w", symbol, err)
	}
	ts := &models.BetaTimeSeries{Asset: symbol, Snapshots: snaps}

	factors, err := r.fetchFactors(ctx)
	if err != nil {
		return models.ScenarioImpact{}, err
	}
	impact, err := r.generator.Project(ts, scenario, severity, factors)
	if err != nil {
		return models.ScenarioImpact{}, err
	}
	if r.metrics != nil {
		r.metrics.RecordScenarioRun(scenario)
	}
	return impact, nil
}

// RunWindow projects an ad-hoc episode over an explicit date range.
func (r *ScenarioRunner) RunWindow(ctx context.Context, symbol string, start, end time.Time, severity float64) (models.ScenarioImpact, error) {
	snaps, err := r.store.LatestBetas(ctx, symbol, 1)
	if err != nil {
		if r.metrics != nil {
			r.metrics.RecordError("report_store")
		}
		return models.ScenarioImpact{}, fmt.Errorf("load betas %s: %w", symbol, err)
	}
	ts := &models.BetaTimeSeries{Asset: symbol, Snapshots: snaps}

	factors, err := r.fetchFactors(ctx)
	if err != nil {
		return models.ScenarioImpact{}, err
	}
	impact, err := r.generator.ProjectWindow(ts, start, end, severity, factors)
	if err != nil {
		return models.ScenarioImpact{}, err
	}
	if r.metrics != nil {
		r.metrics.RecordScenarioRun("custom")
	}
	return impact, nil
}

// RunDerived synthesizes an episode from the worst days of a trigger factor
// and projects it, so stress can be run against a hypothetical trigger move
// ("VIX to +20%") without a registered date range.
func (r *ScenarioRunner) RunDerived(ctx context.Context, symbol, trigger string, quantile, target, severity float64) (models.ScenarioImpact, error) {
	snaps, err := r.store.LatestBetas(ctx, symbol, 1)
	if err != nil {
		if r.metrics != nil {
			r.metrics.RecordError("report_store")
		}
		return models.ScenarioImpact{}, fmt.Errorf("load betas %s: %w", symbol, err)
	}
	ts := &models.BetaTimeSeries{Asset: symbol, Snapshots: snaps}

	factors, err := r.fetchFactors(ctx)
	if err != nil {
		return models.ScenarioImpact{}, err
	}
	impact, err := r.generator.ProjectDerived(ts, trigger, quantile, target, severity, factors)
	if err != nil {
		return models.ScenarioImpact{}, err
	}
	if r.metrics != nil {
		r.metrics.RecordScenarioRun("derived")
	}
	return impact, nil
}

// Betas returns up to n most recent persisted snapshots for a symbol.
func (r *ScenarioRunner) Betas(ctx context.Context, symbol string, n int) ([]models.BetaSnapshot, error) {
	snaps, err := r.store.LatestBetas(ctx, symbol, n)
	if err != nil {
		if r.metrics != nil {
			r.metrics.RecordError("report_store")
		}
		return nil, fmt.Errorf("load betas %s: %w", symbol, err)
	}
	return snaps, nil
}

// List exposes the registered episodes.
func (r *ScenarioRunner) List() []models.ScenarioDefinition {
	return r.generator.List()
}

func (r *ScenarioRunner) fetchFactors(ctx context.Context) ([]models.FactorSeries, error) {
	to := time.Now().UTC().Truncate(24 * time.Hour)
	from := to.AddDate(0, 0, -r.cfg.LookbackDays)
	factors := make([]models.FactorSeries, 0, len(r.cfg.Factors))
	for _, name := range r.cfg.Factors {
		fs, err := r.src.GetFactorSeries(ctx, name, from, to)
		if err != nil {
			if r.metrics != nil {
				r.metrics.RecordError("series_source")
			}
			return nil, fmt.Errorf("fetch factor %s: %w", name, err)
		}
		factors = append(factors, fs)
	}
	return factors, nil
}

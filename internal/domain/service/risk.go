package service

import (
	"context"
	"time"

	"RiskLens/internal/domain/models"
)

// Aligner synchronizes heterogeneous return and factor series into a single
// gap-free panel of same-day-comparable observations.
type Aligner interface {
	Align(asset models.ReturnSeries, factors []models.FactorSeries) (*models.AlignedPanel, error)
}

// BetaEstimator fits rolling regularized regressions over an aligned panel,
// producing a chronological series of beta snapshots.
type BetaEstimator interface {
	Estimate(ctx context.Context, panel *models.AlignedPanel) (*models.BetaTimeSeries, error)
}

// ScenarioGenerator resolves named stress episodes into factor shock vectors
// and projects them through the latest fitted betas. ProjectWindow does the
// same for an ad-hoc date range not present in the registry; ProjectDerived
// synthesizes the episode from the worst days of a trigger factor, rescaled
// so the trigger lands on the requested target move.
type ScenarioGenerator interface {
	Project(betas *models.BetaTimeSeries, scenario string, severity float64, factors []models.FactorSeries) (models.ScenarioImpact, error)
	ProjectWindow(betas *models.BetaTimeSeries, start, end time.Time, severity float64, factors []models.FactorSeries) (models.ScenarioImpact, error)
	ProjectDerived(betas *models.BetaTimeSeries, trigger string, quantile, target, severity float64, factors []models.FactorSeries) (models.ScenarioImpact, error)
	List() []models.ScenarioDefinition
}

// TailRiskEstimator computes Value-at-Risk and rolling volatility from a
// return column.
type TailRiskEstimator interface {
	Estimate(returns []float64) ([]models.VaREstimate, models.RollingVolatility)
}

// DiversificationMonitor computes trailing correlation matrices and
// peak-to-trough drawdown, per asset and for the equal-weighted portfolio
// aggregate.
type DiversificationMonitor interface {
	Correlations(assets []models.ReturnSeries) models.CorrelationMatrix
	Drawdown(returns []float64) models.DrawdownState
	PortfolioDrawdown(assets []models.ReturnSeries) models.DrawdownState
}

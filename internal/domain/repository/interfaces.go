package repository

import (
	"context"
	"time"

	"RiskLens/internal/domain/models"
)

// SeriesSource provides read-only access to already-cleaned return and factor
// series materialized by the data layer. The engine never fetches or cleans
// data itself; series arrive with monotonically increasing dates and no NaNs.
type SeriesSource interface {
	GetReturnSeries(ctx context.Context, symbol string, from, to time.Time) (models.ReturnSeries, error)
	GetFactorSeries(ctx context.Context, name string, from, to time.Time) (models.FactorSeries, error)
}

// ReportStore persists computed engine outputs: beta snapshots and risk
// reports. Raw series persistence belongs to the data layer, not here.
type ReportStore interface {
	Init(ctx context.Context) error
	StoreBetas(ctx context.Context, ts *models.BetaTimeSeries) error
	LatestBetas(ctx context.Context, symbol string, n int) ([]models.BetaSnapshot, error)
	StoreReport(ctx context.Context, r *models.RiskReport) error
	Health(ctx context.Context) error
	Close() error
}

// Metrics records engine instrumentation.
type Metrics interface {
	RecordRecompute(symbol string, seconds float64)
	RecordAlignedRows(symbol string, rows int)
	RecordWindowsFitted(symbol string, fitted, skipped int)
	RecordScenarioRun(scenario string)
	RecordCacheHit(endpoint string, hit bool)
	RecordError(kind string)
}

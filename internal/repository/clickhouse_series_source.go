package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"RiskLens/internal/domain/models"
	domrepo "RiskLens/internal/domain/repository"
	pkgch "RiskLens/pkg/clickhouse"
	applogger "RiskLens/pkg/logger"
)

// CHSeriesSource reads cleaned daily return and factor series from
// ClickHouse. The ingestion pipeline owns these tables; this side only reads.
type CHSeriesSource struct {
	db *sql.DB
	l  *applogger.Logger
}

func NewCHSeriesSource(ch *pkgch.Client) *CHSeriesSource {
	return &CHSeriesSource{db: ch.DB()}
}

// SetLogger injects a structured logger.
func (s *CHSeriesSource) SetLogger(l *applogger.Logger) { s.l = l }

func (s *CHSeriesSource) GetReturnSeries(ctx context.Context, symbol string, from, to time.Time) (models.ReturnSeries, error) {
	start := time.Now()
	const q = `
        SELECT trade_date, ret
        FROM asset_returns
        WHERE symbol = ? AND trade_date >= ? AND trade_date <= ?
        ORDER BY trade_date ASC
    `
	rows, err := s.db.QueryContext(ctx, q, symbol, from, to)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse get_returns query error",
				applogger.String("symbol", symbol),
				applogger.Error(err),
			)
		}
		return models.ReturnSeries{}, fmt.Errorf("get returns: %w", err)
	}
	defer rows.Close()

	obs, err := scanObservations(rows)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse get_returns scan error",
				applogger.String("symbol", symbol),
				applogger.Error(err),
			)
		}
		return models.ReturnSeries{}, fmt.Errorf("scan returns: %w", err)
	}
	if s.l != nil {
		s.l.Debug("clickhouse get_returns ok",
			applogger.String("symbol", symbol),
			applogger.Int("rows", len(obs)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return models.ReturnSeries{
		Symbol: symbol,
		Region: models.InferRegion(symbol),
		Obs:    obs,
	}, nil
}

func (s *CHSeriesSource) GetFactorSeries(ctx context.Context, name string, from, to time.Time) (models.FactorSeries, error) {
	start := time.Now()
	const q = `
        SELECT trade_date, ret, region
        FROM factor_returns
        WHERE name = ? AND trade_date >= ? AND trade_date <= ?
        ORDER BY trade_date ASC
    `
	rows, err := s.db.QueryContext(ctx, q, name, from, to)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse get_factor query error",
				applogger.String("factor", name),
				applogger.Error(err),
			)
		}
		return models.FactorSeries{}, fmt.Errorf("get factor: %w", err)
	}
	defer rows.Close()

	out := models.FactorSeries{Name: name, Region: models.RegionUS}
	for rows.Next() {
		var (
			o      models.Observation
			region string
		)
		if err := rows.Scan(&o.Date, &o.Value, &region); err != nil {
			return models.FactorSeries{}, fmt.Errorf("scan factor: %w", err)
		}
		if region != "" {
			out.Region = models.RegionTag(region)
		}
		out.Obs = append(out.Obs, o)
	}
	if err := rows.Err(); err != nil {
		return models.FactorSeries{}, fmt.Errorf("rows: %w", err)
	}
	if s.l != nil {
		s.l.Debug("clickhouse get_factor ok",
			applogger.String("factor", name),
			applogger.Int("rows", len(out.Obs)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return out, nil
}

func scanObservations(rows *sql.Rows) ([]models.Observation, error) {
	out := make([]models.Observation, 0, 1024)
	for rows.Next() {
		var o models.Observation
		if err := rows.Scan(&o.Date, &o.Value); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

var _ domrepo.SeriesSource = (*CHSeriesSource)(nil)

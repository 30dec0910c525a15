package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"RiskLens/internal/domain/models"
	domrepo "RiskLens/internal/domain/repository"
	pkgch "RiskLens/pkg/clickhouse"
	applogger "RiskLens/pkg/logger"
)

// CHReportStore persists computed betas and reports to ClickHouse. Betas go
// wide as one row per (symbol, as_of, factor) so they stay queryable; whole
// reports are stored as JSON documents keyed by symbol and generation time.
type CHReportStore struct {
	db *sql.DB
	l  *applogger.Logger
}

func NewCHReportStore(ch *pkgch.Client) *CHReportStore {
	return &CHReportStore{db: ch.DB()}
}

// SetLogger injects a structured logger.
func (s *CHReportStore) SetLogger(l *applogger.Logger) { s.l = l }

var schemaStmts = []string{
	`CREATE TABLE IF NOT EXISTS risk_betas (
        symbol String,
        as_of Date,
        factor String,
        beta Float64,
        intercept Float64,
        residual_variance Float64
    ) ENGINE = ReplacingMergeTree
    ORDER BY (symbol, as_of, factor)`,
	`CREATE TABLE IF NOT EXISTS risk_reports (
        symbol String,
        generated_at DateTime,
        report String
    ) ENGINE = MergeTree
    ORDER BY (symbol, generated_at)`,
}

func (s *CHReportStore) Init(ctx context.Context) error {
	for _, stmt := range schemaStmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

func (s *CHReportStore) StoreBetas(ctx context.Context, ts *models.BetaTimeSeries) error {
	if ts == nil || len(ts.Snapshots) == 0 {
		return nil
	}
	start := time.Now()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `
        INSERT INTO risk_betas (symbol, as_of, factor, beta, intercept, residual_variance)
        VALUES (?, ?, ?, ?, ?, ?)
    `)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare betas: %w", err)
	}
	defer stmt.Close()

	n := 0
	for _, snap := range ts.Snapshots {
		for factor, beta := range snap.Betas {
			if _, err := stmt.ExecContext(ctx,
				ts.Asset, snap.Date, factor, beta, snap.Intercept, snap.ResidualVariance,
			); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("insert beta: %w", err)
			}
			n++
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit betas: %w", err)
	}
	if s.l != nil {
		s.l.Info("clickhouse store_betas ok",
			applogger.String("symbol", ts.Asset),
			applogger.Int("rows", n),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return nil
}

func (s *CHReportStore) LatestBetas(ctx context.Context, symbol string, n int) ([]models.BetaSnapshot, error) {
	const q = `
        SELECT as_of, factor, beta, intercept, residual_variance
        FROM risk_betas FINAL
        WHERE symbol = ?
          AND as_of IN (
            SELECT DISTINCT as_of FROM risk_betas WHERE symbol = ?
            ORDER BY as_of DESC LIMIT ?
          )
        ORDER BY as_of ASC, factor ASC
    `
	rows, err := s.db.QueryContext(ctx, q, symbol, symbol, n)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse latest_betas query error",
				applogger.String("symbol", symbol),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("latest betas: %w", err)
	}
	defer rows.Close()

	var out []models.BetaSnapshot
	for rows.Next() {
		var (
			asOf             time.Time
			factor           string
			beta, icpt, rvar float64
		)
		if err := rows.Scan(&asOf, &factor, &beta, &icpt, &rvar); err != nil {
			return nil, fmt.Errorf("scan beta: %w", err)
		}
		if len(out) == 0 || !out[len(out)-1].Date.Equal(asOf) {
			out = append(out, models.BetaSnapshot{
				Date:             asOf,
				Betas:            make(map[string]float64),
				Intercept:        icpt,
				ResidualVariance: rvar,
			})
		}
		out[len(out)-1].Betas[factor] = beta
	}
	return out, rows.Err()
}

func (s *CHReportStore) StoreReport(ctx context.Context, r *models.RiskReport) error {
	if r == nil {
		return nil
	}
	doc, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `
        INSERT INTO risk_reports (symbol, generated_at, report) VALUES (?, ?, ?)
    `, r.Symbol, r.GeneratedAt, string(doc)); err != nil {
		if s.l != nil {
			s.l.Error("clickhouse store_report error",
				applogger.String("symbol", r.Symbol),
				applogger.Error(err),
			)
		}
		return fmt.Errorf("insert report: %w", err)
	}
	return nil
}

func (s *CHReportStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *CHReportStore) Close() error { return nil }

var _ domrepo.ReportStore = (*CHReportStore)(nil)

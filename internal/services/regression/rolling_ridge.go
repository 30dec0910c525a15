package regression

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"RiskLens/internal/domain/models"
	domsvc "RiskLens/internal/domain/service"
)

// Config is the immutable regression configuration.
type Config struct {
	// Window is the number of rows in each fitting window.
	Window int
	// Lambda is the L2 penalty applied to factor coefficients. The intercept
	// is never penalized. Zero reduces the fit to ordinary least squares.
	Lambda float64
}

// RollingRidge fits a ridge-penalized linear model over a sliding window,
// producing one BetaSnapshot per window end. Macro factors are collinear in
// stress regimes; the penalty keeps day-to-day betas stable where plain OLS
// would jump.
type RollingRidge struct {
	cfg Config
}

func New(cfg Config) (*RollingRidge, error) {
	if cfg.Window < 2 {
		return nil, fmt.Errorf("regression window must be at least 2, got %d", cfg.Window)
	}
	if cfg.Lambda < 0 {
		return nil, fmt.Errorf("ridge penalty must be non-negative, got %v", cfg.Lambda)
	}
	return &RollingRidge{cfg: cfg}, nil
}

// Estimate runs one fit per window end index i >= Window-1. Singular windows
// are skipped and counted, never zero-filled: a snapshot that is absent is
// distinguishable from a genuine zero exposure. Cancellation is cooperative
// between windows; snapshots fitted before cancellation remain valid and are
// returned alongside the context error.
func (r *RollingRidge) Estimate(ctx context.Context, panel *models.AlignedPanel) (*models.BetaTimeSeries, error) {
	w := r.cfg.Window
	n := panel.Rows()
	ts := &models.BetaTimeSeries{Asset: panel.Asset}
	if n < w {
		return nil, &models.DataGapError{Asset: panel.Asset, Rows: n, MinRows: w}
	}

	for i := w - 1; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return ts, err
		}
		snap, err := r.fitWindow(panel, i-w+1, i)
		if err != nil {
			ts.SkippedWindows++
			continue
		}
		ts.Snapshots = append(ts.Snapshots, snap)
	}
	return ts, nil
}

// fitWindow solves the penalized normal equations for rows [lo, hi].
func (r *RollingRidge) fitWindow(panel *models.AlignedPanel, lo, hi int) (models.BetaSnapshot, error) {
	w := hi - lo + 1
	p := len(panel.Factors)

	// Design matrix with an intercept column of ones.
	x := mat.NewDense(w, p+1, nil)
	y := mat.NewVecDense(w, nil)
	for i := 0; i < w; i++ {
		x.Set(i, 0, 1)
		row := panel.FactorReturns[lo+i]
		for j := 0; j < p; j++ {
			x.Set(i, j+1, row[j])
		}
		y.SetVec(i, panel.AssetReturns[lo+i])
	}

	// (XᵀX + λJ)β = Xᵀy with J = diag(0,1,…,1): the penalty touches factor
	// coefficients only, never the intercept row/column.
	var xtx mat.Dense
	xtx.Mul(x.T(), x)
	for j := 1; j <= p; j++ {
		xtx.Set(j, j, xtx.At(j, j)+r.cfg.Lambda)
	}
	var xty mat.VecDense
	xty.MulVec(x.T(), y)

	var beta mat.VecDense
	if err := beta.SolveVec(&xtx, &xty); err != nil {
		return models.BetaSnapshot{}, &models.InsufficientRankError{WindowEnd: panel.Dates[hi]}
	}

	// Residual variance = SSR / (W - P - 1), clipped at zero.
	var fitted mat.VecDense
	fitted.MulVec(x, &beta)
	ssr := 0.0
	for i := 0; i < w; i++ {
		res := y.AtVec(i) - fitted.AtVec(i)
		ssr += res * res
	}
	residVar := 0.0
	if dof := w - p - 1; dof > 0 {
		residVar = ssr / float64(dof)
	}
	if residVar < 0 {
		residVar = 0
	}

	betas := make(map[string]float64, p)
	for j, name := range panel.Factors {
		betas[name] = beta.AtVec(j + 1)
	}
	return models.BetaSnapshot{
		Date:             panel.Dates[hi],
		Betas:            betas,
		Intercept:        beta.AtVec(0),
		ResidualVariance: residVar,
	}, nil
}

var _ domsvc.BetaEstimator = (*RollingRidge)(nil)

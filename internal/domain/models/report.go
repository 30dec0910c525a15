package models

import "time"

// VaREstimate carries the historical and parametric Value-at-Risk for one
// confidence level. Both values are positive loss magnitudes: 0.03 means a
// 3% loss is the estimated threshold, never a gain.
type VaREstimate struct {
	Confidence float64
	Historical float64
	Parametric float64
}

// RollingVolatility is the trailing annualized standard deviation of returns.
type RollingVolatility struct {
	Window     int
	Annualized float64
}

// CorrelationMatrix is the pairwise Pearson correlation of all tracked assets
// over the trailing window. Symbols gives the row/column order.
type CorrelationMatrix struct {
	Symbols []string
	Values  [][]float64
}

// At returns the correlation between two symbols by name.
func (m CorrelationMatrix) At(a, b string) (float64, bool) {
	ia, ib := -1, -1
	for i, s := range m.Symbols {
		if s == a {
			ia = i
		}
		if s == b {
			ib = i
		}
	}
	if ia < 0 || ib < 0 {
		return 0, false
	}
	return m.Values[ia][ib], true
}

// DrawdownState tracks the decline from the running peak of cumulative
// return. The peak is monotonic from the start of the series (or the
// configured rebase date); it is never reset.
type DrawdownState struct {
	Current float64
	Max     float64
	Peak    float64
}

// RiskReport is the engine's externally consumed result: an immutable bundle
// rebuilt on each recomputation cycle. Fields that could not be computed are
// nil and named in Omissions; a missing beta estimate is never replaced by a
// zero that could be mistaken for a real zero exposure.
type RiskReport struct {
	Symbol            string
	GeneratedAt       time.Time
	AlignedRows       int
	Beta              *BetaSnapshot
	BetaSkipped       int
	VaR               []VaREstimate
	Volatility        *RollingVolatility
	Correlations      *CorrelationMatrix
	Drawdown          *DrawdownState
	PortfolioDrawdown *DrawdownState
	Omissions         []string
}

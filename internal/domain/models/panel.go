package models

import "time"

// AlignedPanel is the unit of work for regression and tail-risk computation:
// a dense matrix keyed by trading date with one asset return column and one
// column per factor. Every cell is populated; dates with any unresolved gap
// were dropped during alignment.
type AlignedPanel struct {
	Asset        string
	Dates        []time.Time
	AssetReturns []float64
	Factors      []string
	// FactorReturns is row-major: FactorReturns[i][j] is the return of
	// Factors[j] usable at Dates[i] (already lagged where required).
	FactorReturns [][]float64
}

// Rows returns the number of aligned observations.
func (p *AlignedPanel) Rows() int { return len(p.Dates) }

// FactorColumn extracts one factor column by name. The second return value is
// false if the factor is not part of the panel.
func (p *AlignedPanel) FactorColumn(name string) ([]float64, bool) {
	idx := -1
	for j, f := range p.Factors {
		if f == name {
			idx = j
			break
		}
	}
	if idx < 0 {
		return nil, false
	}
	col := make([]float64, len(p.FactorReturns))
	for i := range p.FactorReturns {
		col[i] = p.FactorReturns[i][idx]
	}
	return col, true
}

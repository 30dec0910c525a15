// Package tailrisk computes Value-at-Risk and rolling volatility from an
// aligned return column.
//
// Sign convention: all VaR figures are positive loss magnitudes. A historical
// VaR of 0.03 at 95% means the empirical 5th-percentile outcome is a 3% loss;
// values that would come out as gains floor at zero.
package tailrisk

import (
	"math"
	"sort"

	"RiskLens/internal/domain/models"
	domsvc "RiskLens/internal/domain/service"
)

// Config is the immutable estimator configuration.
type Config struct {
	// Window bounds the trailing sample; zero means full available history.
	// Independent of the regression window, defaulting to the same 252.
	Window int
	// Confidences are the requested VaR confidence levels, e.g. 0.95, 0.99.
	Confidences []float64
	// Annualization scales the per-period stddev to a yearly figure; 252 for
	// daily data.
	Annualization float64
}

type Estimator struct {
	cfg Config
}

func New(cfg Config) *Estimator {
	if len(cfg.Confidences) == 0 {
		cfg.Confidences = []float64{0.95, 0.99}
	}
	if cfg.Annualization <= 0 {
		cfg.Annualization = 252
	}
	return &Estimator{cfg: cfg}
}

// Estimate computes historical and parametric VaR per configured confidence
// level plus trailing annualized volatility over the same window.
func (e *Estimator) Estimate(returns []float64) ([]models.VaREstimate, models.RollingVolatility) {
	window := returns
	if e.cfg.Window > 0 && len(returns) > e.cfg.Window {
		window = returns[len(returns)-e.cfg.Window:]
	}

	sorted := make([]float64, len(window))
	copy(sorted, window)
	sort.Float64s(sorted)

	mean := meanOf(window)
	sigma := stddevOf(window, mean)

	out := make([]models.VaREstimate, 0, len(e.cfg.Confidences))
	for _, c := range e.cfg.Confidences {
		hist := -quantile(sorted, 1-c)
		if hist < 0 {
			hist = 0
		}
		// z is the standard-normal quantile of the tail probability, so it
		// comes out negative for the usual confidence levels.
		z := normQuantile(1 - c)
		param := -(mean + z*sigma)
		if param < 0 {
			param = 0
		}
		out = append(out, models.VaREstimate{Confidence: c, Historical: hist, Parametric: param})
	}

	vol := models.RollingVolatility{
		Window:     len(window),
		Annualized: sigma * math.Sqrt(e.cfg.Annualization),
	}
	return out, vol
}

func meanOf(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range xs {
		sum += v
	}
	return sum / float64(len(xs))
}

// stddevOf is the sample standard deviation (n-1 denominator).
func stddevOf(xs []float64, mean float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	sumSq := 0.0
	for _, v := range xs {
		d := v - mean
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(xs)-1))
}

// quantile interpolates linearly between order statistics; sorted ascending.
func quantile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}
	idx := p * float64(n-1)
	lo := int(idx)
	if lo >= n-1 {
		return sorted[n-1]
	}
	frac := idx - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}

var _ domsvc.TailRiskEstimator = (*Estimator)(nil)

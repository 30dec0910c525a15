package diversification

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"RiskLens/internal/domain/models"
	domsvc "RiskLens/internal/domain/service"
)

// Config is the immutable monitor configuration.
type Config struct {
	// Window bounds the trailing correlation sample; zero means full history.
	Window int
}

// Monitor computes trailing pairwise correlations and peak-to-trough
// drawdowns. Everything is recomputed per cycle; no incremental state.
type Monitor struct {
	cfg Config
}

func New(cfg Config) *Monitor {
	return &Monitor{cfg: cfg}
}

// Correlations builds the symmetric Pearson matrix over the trailing window.
// Each pair is correlated over its common dates only; pairs with fewer than
// two shared observations report zero.
func (m *Monitor) Correlations(assets []models.ReturnSeries) models.CorrelationMatrix {
	n := len(assets)
	out := models.CorrelationMatrix{
		Symbols: make([]string, n),
		Values:  make([][]float64, n),
	}
	for i := range assets {
		out.Symbols[i] = assets[i].Symbol
		out.Values[i] = make([]float64, n)
		out.Values[i][i] = 1
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			r := m.pairCorrelation(assets[i], assets[j])
			out.Values[i][j] = r
			out.Values[j][i] = r
		}
	}
	return out
}

func (m *Monitor) pairCorrelation(a, b models.ReturnSeries) float64 {
	bv := make(map[int64]float64, len(b.Obs))
	for _, o := range b.Obs {
		bv[o.Date.Unix()] = o.Value
	}
	var xs, ys []float64
	for _, o := range a.Obs {
		if v, ok := bv[o.Date.Unix()]; ok {
			xs = append(xs, o.Value)
			ys = append(ys, v)
		}
	}
	if m.cfg.Window > 0 && len(xs) > m.cfg.Window {
		xs = xs[len(xs)-m.cfg.Window:]
		ys = ys[len(ys)-m.cfg.Window:]
	}
	if len(xs) < 2 {
		return 0
	}
	return stat.Correlation(xs, ys, nil)
}

// Drawdown compounds the return series into a wealth index and tracks the
// decline from its running peak. The peak is monotonic from the first
// observation; it is never reset.
func (m *Monitor) Drawdown(returns []float64) models.DrawdownState {
	wealth := 1.0
	peak := 1.0
	maxDD := 0.0
	for _, r := range returns {
		wealth *= 1 + r
		if wealth > peak {
			peak = wealth
		}
		if dd := (peak - wealth) / peak; dd > maxDD {
			maxDD = dd
		}
	}
	return models.DrawdownState{
		Current: (peak - wealth) / peak,
		Max:     maxDD,
		Peak:    peak,
	}
}

// PortfolioDrawdown tracks the drawdown of an equal-weighted basket of all
// assets. The basket return on a date is the mean of the asset returns, taken
// only over dates every asset traded; a day any member missed is excluded
// rather than averaged over fewer names.
func (m *Monitor) PortfolioDrawdown(assets []models.ReturnSeries) models.DrawdownState {
	if len(assets) == 0 {
		return m.Drawdown(nil)
	}
	sums := make(map[int64]float64)
	counts := make(map[int64]int)
	for _, a := range assets {
		for _, o := range a.Obs {
			k := o.Date.Unix()
			sums[k] += o.Value
			counts[k]++
		}
	}
	dates := make([]int64, 0, len(sums))
	for k, n := range counts {
		if n == len(assets) {
			dates = append(dates, k)
		}
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i] < dates[j] })

	basket := make([]float64, len(dates))
	for i, k := range dates {
		basket[i] = sums[k] / float64(len(assets))
	}
	return m.Drawdown(basket)
}

var _ domsvc.DiversificationMonitor = (*Monitor)(nil)

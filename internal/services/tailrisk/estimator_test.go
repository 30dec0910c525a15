package tailrisk

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHistoricalVaRMatchesKnownQuantile(t *testing.T) {
	// 1000 evenly spaced returns on [-0.05, 0.0499]: the 5th percentile is
	// known analytically.
	returns := make([]float64, 1000)
	for i := range returns {
		returns[i] = -0.05 + float64(i)*0.0001
	}
	est := New(Config{Confidences: []float64{0.95}})
	vars, _ := est.Estimate(returns)

	require.Len(t, vars, 1)
	// quantile at p=0.05 of a uniform grid: -0.05 + 0.05*999*0.0001
	want := 0.05 - 0.05*999*0.0001
	require.InDelta(t, want, vars[0].Historical, 1e-9)
}

func TestParametricVaRAgainstNormalQuantiles(t *testing.T) {
	// Symmetric two-point sample: mean 0, sample stddev computable by hand.
	returns := []float64{-0.01, 0.01, -0.01, 0.01, -0.01, 0.01}
	mean := 0.0
	sigma := math.Sqrt(6.0 * 0.0001 / 5.0)

	est := New(Config{Confidences: []float64{0.95, 0.99}})
	vars, _ := est.Estimate(returns)

	require.InDelta(t, -(mean + normQuantile(0.05)*sigma), vars[0].Parametric, 1e-9)
	require.InDelta(t, -(mean + normQuantile(0.01)*sigma), vars[1].Parametric, 1e-9)
	// wider confidence means larger loss threshold
	require.Greater(t, vars[1].Parametric, vars[0].Parametric)
}

func TestVaRIsPositiveLossMagnitude(t *testing.T) {
	// All-gain history: no loss in the tail, VaR floors at zero.
	returns := []float64{0.01, 0.02, 0.015, 0.03, 0.025, 0.01, 0.02}
	est := New(Config{Confidences: []float64{0.95}})
	vars, _ := est.Estimate(returns)
	require.Zero(t, vars[0].Historical)
}

func TestTrailingWindowBoundsSample(t *testing.T) {
	// Old catastrophic returns fall outside the window and must not leak in.
	returns := make([]float64, 0, 300)
	for i := 0; i < 100; i++ {
		returns = append(returns, -0.50)
	}
	for i := 0; i < 200; i++ {
		returns = append(returns, 0.001*float64(i%3-1))
	}
	est := New(Config{Window: 200, Confidences: []float64{0.99}})
	vars, vol := est.Estimate(returns)
	require.Equal(t, 200, vol.Window)
	require.Less(t, vars[0].Historical, 0.01)
}

func TestAnnualizedVolatility(t *testing.T) {
	returns := []float64{0.01, -0.01, 0.02, -0.02, 0.01, -0.01}
	mean := meanOf(returns)
	sigma := stddevOf(returns, mean)

	est := New(Config{Annualization: 252})
	_, vol := est.Estimate(returns)
	require.InDelta(t, sigma*math.Sqrt(252), vol.Annualized, 1e-12)
}

func TestNormQuantileReferencePoints(t *testing.T) {
	// Textbook z-scores.
	require.InDelta(t, -1.6449, normQuantile(0.05), 1e-3)
	require.InDelta(t, -2.3263, normQuantile(0.01), 1e-3)
	require.InDelta(t, 0.0, normQuantile(0.5), 1e-9)
	require.InDelta(t, 1.6449, normQuantile(0.95), 1e-3)
}

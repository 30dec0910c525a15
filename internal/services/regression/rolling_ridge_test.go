package regression

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"RiskLens/internal/domain/models"
)

// buildPanel generates a deterministic panel with two moderately collinear
// factors and noisy asset returns.
func buildPanel(n int) *models.AlignedPanel {
	p := &models.AlignedPanel{
		Asset:   "7203.T",
		Factors: []string{"rates", "vol"},
	}
	start := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		f1 := 0.01 * math.Sin(float64(i)*0.7)
		f2 := 0.6*f1 + 0.004*math.Cos(float64(i)*1.3)
		noise := 0.0005 * math.Sin(float64(i)*2.9)
		p.Dates = append(p.Dates, start.AddDate(0, 0, i))
		p.FactorReturns = append(p.FactorReturns, []float64{f1, f2})
		p.AssetReturns = append(p.AssetReturns, 0.0002+0.5*f1-0.3*f2+noise)
	}
	return p
}

// olsReference solves the unpenalized least-squares problem for the last
// window via QR, independent of the engine's normal-equation path.
func olsReference(t *testing.T, p *models.AlignedPanel, w int) []float64 {
	t.Helper()
	n := p.Rows()
	x := mat.NewDense(w, len(p.Factors)+1, nil)
	y := mat.NewVecDense(w, nil)
	for i := 0; i < w; i++ {
		row := p.FactorReturns[n-w+i]
		x.Set(i, 0, 1)
		for j, v := range row {
			x.Set(i, j+1, v)
		}
		y.SetVec(i, p.AssetReturns[n-w+i])
	}
	var qr mat.QR
	qr.Factorize(x)
	var beta mat.VecDense
	if err := qr.SolveVecTo(&beta, false, y); err != nil {
		t.Fatalf("reference OLS solve: %v", err)
	}
	out := make([]float64, beta.Len())
	for i := range out {
		out[i] = beta.AtVec(i)
	}
	return out
}

func TestZeroLambdaMatchesOLS(t *testing.T) {
	panel := buildPanel(80)
	w := 60
	eng, err := New(Config{Window: w, Lambda: 0})
	require.NoError(t, err)

	ts, err := eng.Estimate(context.Background(), panel)
	require.NoError(t, err)
	require.NotEmpty(t, ts.Snapshots)

	last := ts.Snapshots[len(ts.Snapshots)-1]
	ref := olsReference(t, panel, w)
	require.InDelta(t, ref[0], last.Intercept, 1e-9)
	require.InDelta(t, ref[1], last.Betas["rates"], 1e-9)
	require.InDelta(t, ref[2], last.Betas["vol"], 1e-9)
}

func TestLambdaShrinksCoefficientNorm(t *testing.T) {
	panel := buildPanel(80)
	lambdas := []float64{0, 0.5, 1, 5, 50}
	prev := math.Inf(1)
	for _, l := range lambdas {
		eng, err := New(Config{Window: 60, Lambda: l})
		require.NoError(t, err)
		ts, err := eng.Estimate(context.Background(), panel)
		require.NoError(t, err)
		last, ok := ts.Latest()
		require.True(t, ok)

		norm := 0.0
		for _, b := range last.Betas {
			norm += b * b
		}
		norm = math.Sqrt(norm)
		require.LessOrEqual(t, norm, prev+1e-12, "lambda=%v must not grow the coefficient norm", l)
		prev = norm
	}
}

func TestSnapshotsChronologicalAndComplete(t *testing.T) {
	panel := buildPanel(70)
	w := 50
	eng, err := New(Config{Window: w, Lambda: 1})
	require.NoError(t, err)

	ts, err := eng.Estimate(context.Background(), panel)
	require.NoError(t, err)
	require.Len(t, ts.Snapshots, panel.Rows()-w+1)
	require.Zero(t, ts.SkippedWindows)
	for i := 1; i < len(ts.Snapshots); i++ {
		require.True(t, ts.Snapshots[i].Date.After(ts.Snapshots[i-1].Date))
	}
	// window ends line up with panel dates
	require.True(t, ts.Snapshots[0].Date.Equal(panel.Dates[w-1]))
	last, _ := ts.Latest()
	require.True(t, last.Date.Equal(panel.Dates[panel.Rows()-1]))
}

func TestSingularWindowSkippedNotZeroFilled(t *testing.T) {
	// Two byte-identical factor columns make XᵀX singular at lambda 0.
	panel := buildPanel(60)
	for i := range panel.FactorReturns {
		panel.FactorReturns[i][1] = panel.FactorReturns[i][0]
	}
	eng, err := New(Config{Window: 50, Lambda: 0})
	require.NoError(t, err)

	ts, err := eng.Estimate(context.Background(), panel)
	require.NoError(t, err)
	require.Equal(t, panel.Rows()-50+1, ts.SkippedWindows)
	require.Empty(t, ts.Snapshots)

	// Ridge penalty restores full rank on the same data.
	eng, err = New(Config{Window: 50, Lambda: 1})
	require.NoError(t, err)
	ts, err = eng.Estimate(context.Background(), panel)
	require.NoError(t, err)
	require.NotEmpty(t, ts.Snapshots)
	require.Zero(t, ts.SkippedWindows)
}

func TestResidualVarianceNonNegative(t *testing.T) {
	panel := buildPanel(80)
	eng, err := New(Config{Window: 60, Lambda: 0})
	require.NoError(t, err)
	ts, err := eng.Estimate(context.Background(), panel)
	require.NoError(t, err)
	for _, s := range ts.Snapshots {
		require.GreaterOrEqual(t, s.ResidualVariance, 0.0)
	}
}

func TestCancellationReturnsPartialSeries(t *testing.T) {
	panel := buildPanel(80)
	eng, err := New(Config{Window: 60, Lambda: 1})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ts, err := eng.Estimate(ctx, panel)
	require.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, ts)
	require.Empty(t, ts.Snapshots)
}

func TestShortPanelIsDataGap(t *testing.T) {
	panel := buildPanel(30)
	eng, err := New(Config{Window: 60, Lambda: 1})
	require.NoError(t, err)
	_, err = eng.Estimate(context.Background(), panel)
	var gap *models.DataGapError
	require.ErrorAs(t, err, &gap)
}

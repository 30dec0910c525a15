package align

import (
	"errors"
	"testing"
	"time"

	"RiskLens/internal/domain/models"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func series(symbol string, region models.RegionTag, start time.Time, vals ...float64) models.ReturnSeries {
	obs := make([]models.Observation, len(vals))
	for i, v := range vals {
		obs[i] = models.Observation{Date: start.AddDate(0, 0, i), Value: v}
	}
	return models.ReturnSeries{Symbol: symbol, Region: region, Obs: obs}
}

func factor(name string, region models.RegionTag, start time.Time, vals ...float64) models.FactorSeries {
	s := series(name, region, start, vals...)
	return models.FactorSeries{Name: name, Region: region, Obs: s.Obs}
}

func TestAlignNoLagForEarlierClose(t *testing.T) {
	// JP closes before US: a US asset sees the JP factor same-day.
	start := day(2024, 3, 4)
	asset := series("AAPL", models.RegionUS, start, 0.01, 0.02, 0.03)
	jp := factor("NIKKEI", models.RegionJP, start, 0.10, 0.20, 0.30)

	p, err := New(Config{MinRows: 2}).Align(asset, []models.FactorSeries{jp})
	if err != nil {
		t.Fatalf("align: %v", err)
	}
	if p.Rows() != 3 {
		t.Fatalf("rows = %d, want 3", p.Rows())
	}
	// date D carries the JP value observed at JP's close on D
	if got := p.FactorReturns[1][0]; got != 0.20 {
		t.Fatalf("factor value = %v, want 0.20 (unlagged)", got)
	}
}

func TestAlignLagsLaterClose(t *testing.T) {
	// US closes after KR: a KR asset must see yesterday's US factor.
	start := day(2024, 3, 4)
	asset := series("005930.KS", models.RegionKR, start, 0.01, 0.02, 0.03)
	vix := factor("VIX", models.RegionUS, start, 0.10, 0.20, 0.30)

	p, err := New(Config{MinRows: 2}).Align(asset, []models.FactorSeries{vix})
	if err != nil {
		t.Fatalf("align: %v", err)
	}
	// first asset date drops (no prior US row); date D uses US value from D-1
	if p.Rows() != 2 {
		t.Fatalf("rows = %d, want 2", p.Rows())
	}
	if !p.Dates[0].Equal(start.AddDate(0, 0, 1)) {
		t.Fatalf("first date = %v, want %v", p.Dates[0], start.AddDate(0, 0, 1))
	}
	if got := p.FactorReturns[0][0]; got != 0.10 {
		t.Fatalf("factor value = %v, want 0.10 (lagged one session)", got)
	}
	if got := p.FactorReturns[1][0]; got != 0.20 {
		t.Fatalf("factor value = %v, want 0.20 (lagged one session)", got)
	}
}

func TestAlignDropsGappedDates(t *testing.T) {
	start := day(2024, 3, 4)
	asset := series("AAPL", models.RegionUS, start, 0.01, 0.02, 0.03, 0.04)
	// JP factor missing the third date entirely (holiday).
	jp := models.FactorSeries{Name: "NIKKEI", Region: models.RegionJP, Obs: []models.Observation{
		{Date: start, Value: 0.1},
		{Date: start.AddDate(0, 0, 1), Value: 0.2},
		{Date: start.AddDate(0, 0, 3), Value: 0.4},
	}}

	p, err := New(Config{MinRows: 2}).Align(asset, []models.FactorSeries{jp})
	if err != nil {
		t.Fatalf("align: %v", err)
	}
	if p.Rows() != 3 {
		t.Fatalf("rows = %d, want 3 (holiday row dropped)", p.Rows())
	}
	for i := range p.FactorReturns {
		if len(p.FactorReturns[i]) != 1 {
			t.Fatalf("row %d has %d cells, want 1", i, len(p.FactorReturns[i]))
		}
	}
}

func TestAlignNoOverlapIsDataGap(t *testing.T) {
	asset := series("AAPL", models.RegionUS, day(2024, 3, 4), 0.01, 0.02)
	f := factor("VIX", models.RegionUS, day(2020, 1, 6), 0.1, 0.2)

	_, err := New(Config{MinRows: 2}).Align(asset, []models.FactorSeries{f})
	var gap *models.DataGapError
	if !errors.As(err, &gap) {
		t.Fatalf("err = %v, want DataGapError", err)
	}
	if gap.Rows != 0 {
		t.Fatalf("gap rows = %d, want 0", gap.Rows)
	}
}

func TestAlignBelowMinimumIsDataGap(t *testing.T) {
	start := day(2024, 3, 4)
	asset := series("AAPL", models.RegionUS, start, 0.01, 0.02, 0.03)
	f := factor("VIX", models.RegionUS, start, 0.1, 0.2, 0.3)

	_, err := New(Config{MinRows: 10}).Align(asset, []models.FactorSeries{f})
	var gap *models.DataGapError
	if !errors.As(err, &gap) {
		t.Fatalf("err = %v, want DataGapError", err)
	}
}

func TestAlignEqualCloseNoLag(t *testing.T) {
	// Same region on both sides: boundary inclusive, no lag.
	start := day(2024, 3, 4)
	asset := series("7203.T", models.RegionJP, start, 0.01, 0.02)
	f := factor("NIKKEI", models.RegionJP, start, 0.1, 0.2)

	p, err := New(Config{MinRows: 2}).Align(asset, []models.FactorSeries{f})
	if err != nil {
		t.Fatalf("align: %v", err)
	}
	if got := p.FactorReturns[0][0]; got != 0.1 {
		t.Fatalf("factor value = %v, want 0.1", got)
	}
}

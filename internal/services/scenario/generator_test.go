package scenario

import (
	"errors"
	"math"
	"testing"
	"time"

	"RiskLens/internal/domain/models"
)

func day(d int) time.Time {
	return time.Date(2020, 3, d, 0, 0, 0, 0, time.UTC)
}

func fixedBetas() *models.BetaTimeSeries {
	return &models.BetaTimeSeries{
		Asset: "005930.KS",
		Snapshots: []models.BetaSnapshot{{
			Date:      day(31),
			Betas:     map[string]float64{"rates": 0.5, "vol": -0.3},
			Intercept: 0.0,
		}},
	}
}

func episodeFactors() []models.FactorSeries {
	// Single-day episode so the compounded move equals the raw return.
	return []models.FactorSeries{
		{Name: "rates", Region: models.RegionUS, Obs: []models.Observation{
			{Date: day(9), Value: 0.02},
		}},
		{Name: "vol", Region: models.RegionUS, Obs: []models.Observation{
			{Date: day(9), Value: 0.10},
		}},
	}
}

func newGenerator(t *testing.T) *Generator {
	t.Helper()
	g, err := New([]models.ScenarioDefinition{
		{Name: "covid_crash", Start: day(9), End: day(9)},
	})
	if err != nil {
		t.Fatalf("new generator: %v", err)
	}
	return g
}

func TestProjectWorkedExample(t *testing.T) {
	g := newGenerator(t)
	impact, err := g.Project(fixedBetas(), "covid_crash", 1.0, episodeFactors())
	if err != nil {
		t.Fatalf("project: %v", err)
	}
	// 0 + 0.5*0.02 + (-0.3)*0.10 = -0.02
	if math.Abs(impact.Projected-(-0.02)) > 1e-12 {
		t.Fatalf("projected = %v, want -0.02", impact.Projected)
	}
	// per-factor attribution carries the beta·shock terms
	if math.Abs(impact.Contributions["rates"]-0.01) > 1e-12 {
		t.Fatalf("rates contribution = %v, want 0.01", impact.Contributions["rates"])
	}
	if math.Abs(impact.Contributions["vol"]-(-0.03)) > 1e-12 {
		t.Fatalf("vol contribution = %v, want -0.03", impact.Contributions["vol"])
	}
	sum := 0.0
	for _, c := range impact.Contributions {
		sum += c
	}
	if math.Abs(sum-impact.Projected) > 1e-12 {
		t.Fatalf("contributions sum %v != projected %v (intercept 0)", sum, impact.Projected)
	}
}

func TestSeverityScalesShocksNotIntercept(t *testing.T) {
	betas := fixedBetas()
	betas.Snapshots[0].Intercept = 0.004
	g := newGenerator(t)

	zero, err := g.Project(betas, "covid_crash", 0, episodeFactors())
	if err != nil {
		t.Fatalf("project severity 0: %v", err)
	}
	if math.Abs(zero.Projected-0.004) > 1e-12 {
		t.Fatalf("severity 0 projected = %v, want intercept 0.004", zero.Projected)
	}

	one, _ := g.Project(betas, "covid_crash", 1, episodeFactors())
	two, _ := g.Project(betas, "covid_crash", 2, episodeFactors())
	// severity 2 doubles the factor-shock contribution, not the intercept
	wantTwo := zero.Projected + 2*(one.Projected-zero.Projected)
	if math.Abs(two.Projected-wantTwo) > 1e-12 {
		t.Fatalf("severity 2 projected = %v, want %v", two.Projected, wantTwo)
	}
}

func TestCompoundedNotAveraged(t *testing.T) {
	g, err := New([]models.ScenarioDefinition{{Name: "two_day", Start: day(9), End: day(10)}})
	if err != nil {
		t.Fatalf("new generator: %v", err)
	}
	factors := []models.FactorSeries{{Name: "rates", Obs: []models.Observation{
		{Date: day(9), Value: 0.10},
		{Date: day(10), Value: 0.10},
	}}}
	betas := &models.BetaTimeSeries{Asset: "x", Snapshots: []models.BetaSnapshot{{
		Date: day(31), Betas: map[string]float64{"rates": 1}, Intercept: 0,
	}}}

	impact, err := g.Project(betas, "two_day", 1, factors)
	if err != nil {
		t.Fatalf("project: %v", err)
	}
	want := 1.1*1.1 - 1 // 0.21, not the 0.20 an average would give
	if math.Abs(impact.Projected-want) > 1e-12 {
		t.Fatalf("projected = %v, want %v", impact.Projected, want)
	}
}

func TestProjectWindowMatchesRegisteredEpisode(t *testing.T) {
	g := newGenerator(t)
	named, err := g.Project(fixedBetas(), "covid_crash", 1.0, episodeFactors())
	if err != nil {
		t.Fatalf("project: %v", err)
	}
	adhoc, err := g.ProjectWindow(fixedBetas(), day(9), day(9), 1.0, episodeFactors())
	if err != nil {
		t.Fatalf("project window: %v", err)
	}
	if adhoc.Projected != named.Projected {
		t.Fatalf("ad-hoc projected = %v, named = %v", adhoc.Projected, named.Projected)
	}
	if adhoc.Scenario == named.Scenario {
		t.Fatalf("ad-hoc episode should not reuse the registered name")
	}
}

func TestProjectWindowInvertedRange(t *testing.T) {
	g := newGenerator(t)
	if _, err := g.ProjectWindow(fixedBetas(), day(10), day(9), 1.0, episodeFactors()); err == nil {
		t.Fatalf("expected error for inverted range")
	}
}

func TestUnknownScenario(t *testing.T) {
	g := newGenerator(t)
	_, err := g.Project(fixedBetas(), "dot_com", 1, episodeFactors())
	var unknown *models.UnknownScenarioError
	if !errors.As(err, &unknown) {
		t.Fatalf("err = %v, want UnknownScenarioError", err)
	}
}

func TestStaleBeta(t *testing.T) {
	g := newGenerator(t)
	_, err := g.Project(&models.BetaTimeSeries{Asset: "005930.KS"}, "covid_crash", 1, episodeFactors())
	var stale *models.StaleBetaError
	if !errors.As(err, &stale) {
		t.Fatalf("err = %v, want StaleBetaError", err)
	}
	if stale.Asset != "005930.KS" {
		t.Fatalf("stale asset = %q", stale.Asset)
	}
}

func TestDeriveShocksPreservesProportions(t *testing.T) {
	// Trigger spikes on two days; companion moves half as much on those days.
	var trig, comp []models.Observation
	for i := 1; i <= 20; i++ {
		v := 0.001 * float64(i%5)
		if i == 7 || i == 14 {
			v = 0.30
		}
		trig = append(trig, models.Observation{Date: day(i), Value: v})
		comp = append(comp, models.Observation{Date: day(i), Value: v / 2})
	}
	factors := []models.FactorSeries{
		{Name: "vix", Obs: trig},
		{Name: "rates", Obs: comp},
	}

	g := newGenerator(t)
	shocks, err := g.DeriveShocks("vix", 0.90, 0.20, factors)
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	if math.Abs(shocks["vix"]-0.20) > 1e-12 {
		t.Fatalf("trigger shock = %v, want exactly 0.20", shocks["vix"])
	}
	if math.Abs(shocks["rates"]-0.10) > 1e-12 {
		t.Fatalf("companion shock = %v, want 0.10 (half the trigger)", shocks["rates"])
	}
}

func TestProjectDerivedPushesShocksThroughBetas(t *testing.T) {
	// Same fixture as DeriveShocks: trigger lands on 0.20, companion on 0.10.
	var trig, comp []models.Observation
	for i := 1; i <= 20; i++ {
		v := 0.001 * float64(i%5)
		if i == 7 || i == 14 {
			v = 0.30
		}
		trig = append(trig, models.Observation{Date: day(i), Value: v})
		comp = append(comp, models.Observation{Date: day(i), Value: v / 2})
	}
	factors := []models.FactorSeries{
		{Name: "vix", Obs: trig},
		{Name: "rates", Obs: comp},
	}
	betas := &models.BetaTimeSeries{
		Asset: "005930.KS",
		Snapshots: []models.BetaSnapshot{{
			Date:  day(31),
			Betas: map[string]float64{"vix": -0.3, "rates": 0.5},
		}},
	}

	g := newGenerator(t)
	impact, err := g.ProjectDerived(betas, "vix", 0.90, 0.20, 1.0, factors)
	if err != nil {
		t.Fatalf("project derived: %v", err)
	}
	want := -0.3*0.20 + 0.5*0.10
	if math.Abs(impact.Projected-want) > 1e-12 {
		t.Fatalf("projected = %v, want %v", impact.Projected, want)
	}
	if impact.Scenario == "" || impact.Scenario == "covid_crash" {
		t.Fatalf("derived episode must carry its own name, got %q", impact.Scenario)
	}
}

func TestProjectDerivedUnknownTrigger(t *testing.T) {
	g := newGenerator(t)
	_, err := g.ProjectDerived(fixedBetas(), "oil", 0.90, 0.20, 1.0, episodeFactors())
	if err == nil {
		t.Fatalf("expected error for trigger with no history")
	}
}

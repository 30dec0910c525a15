package models

import "time"

// ScenarioDefinition names a historical stress episode by its date range.
// The realized factor moves over [Start, End] form the shock template.
type ScenarioDefinition struct {
	Name  string
	Start time.Time
	End   time.Time
}

// FactorShockVector maps factor name to a shocked return. Shocks keep the
// relative proportions observed during the real episode; a severity
// multiplier scales all of them uniformly.
type FactorShockVector map[string]float64

// ScenarioImpact is the projected portfolio effect of a shock vector pushed
// through the latest fitted betas. Contributions carries each factor's
// beta·shock term so consumers can attribute the projected move without
// re-deriving it from the betas.
type ScenarioImpact struct {
	Asset         string
	Scenario      string
	Severity      float64
	AsOf          time.Time
	Shocks        FactorShockVector
	Contributions FactorShockVector
	Projected     float64
}

package models

// Requests for risk HTTP endpoints. Defined in domain for consistency and reuse.

type ReportRequest struct {
	Symbol  string `query:"symbol" json:"symbol" validate:"required"`
	Refresh bool   `query:"refresh" json:"refresh"`
}

type BetasRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required"`
	N      int    `query:"n" json:"n" default:"60" validate:"gte=1,lte=5000"`
}

type ScenarioRequest struct {
	Symbol   string  `query:"symbol" json:"symbol" validate:"required"`
	Scenario string  `query:"scenario" json:"scenario" validate:"required_without_all=From Trigger"`
	Severity float64 `query:"severity" json:"severity" default:"1.0" validate:"gte=0,lte=10"`
	// From/To define an ad-hoc episode instead of a registered one.
	From string `query:"from" json:"from" validate:"required_with=To"`
	To   string `query:"to" json:"to" validate:"required_with=From"`
	// Trigger/Quantile/Target derive a synthetic episode from the trigger
	// factor's worst days instead of a date range.
	Trigger  string  `query:"trigger" json:"trigger"`
	Quantile float64 `query:"quantile" json:"quantile" default:"0.98" validate:"gt=0,lt=1"`
	Target   float64 `query:"target" json:"target" validate:"required_with=Trigger"`
}

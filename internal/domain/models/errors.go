package models

import (
	"fmt"
	"time"
)

// DataGapError reports that alignment left fewer rows than the configured
// minimum, so no rolling window can be fitted.
type DataGapError struct {
	Asset   string
	Rows    int
	MinRows int
}

func (e *DataGapError) Error() string {
	return fmt.Sprintf("insufficient aligned history for %s: %d rows, need %d", e.Asset, e.Rows, e.MinRows)
}

// InsufficientRankError marks a single regression window whose regularized
// design matrix was singular within floating-point tolerance. It is recorded
// as an omission in the beta series, never propagated.
type InsufficientRankError struct {
	WindowEnd time.Time
}

func (e *InsufficientRankError) Error() string {
	return fmt.Sprintf("singular regression window ending %s", e.WindowEnd.Format("2006-01-02"))
}

// UnknownScenarioError reports a scenario name absent from the registry.
type UnknownScenarioError struct {
	Name string
}

func (e *UnknownScenarioError) Error() string {
	return fmt.Sprintf("unknown scenario %q", e.Name)
}

// StaleBetaError reports a scenario request made before any regression window
// has produced a snapshot.
type StaleBetaError struct {
	Asset string
}

func (e *StaleBetaError) Error() string {
	return fmt.Sprintf("no beta snapshot available for %s", e.Asset)
}

package models

import "time"

// BetaSnapshot holds the fitted factor sensitivities for one window-end date.
type BetaSnapshot struct {
	Date             time.Time
	Betas            map[string]float64
	Intercept        float64
	ResidualVariance float64
}

// BetaTimeSeries is an ordered sequence of snapshots, one per valid window
// end. Windows skipped for numerical reasons are simply absent; ordering is
// always chronological.
type BetaTimeSeries struct {
	Asset          string
	Snapshots      []BetaSnapshot
	SkippedWindows int
}

// Latest returns the most recent snapshot, or false when no window has been
// fitted yet.
func (ts *BetaTimeSeries) Latest() (BetaSnapshot, bool) {
	if ts == nil || len(ts.Snapshots) == 0 {
		return BetaSnapshot{}, false
	}
	return ts.Snapshots[len(ts.Snapshots)-1], true
}

// Tail returns up to n most recent snapshots in chronological order.
func (ts *BetaTimeSeries) Tail(n int) []BetaSnapshot {
	if ts == nil || n <= 0 {
		return nil
	}
	if n > len(ts.Snapshots) {
		n = len(ts.Snapshots)
	}
	return ts.Snapshots[len(ts.Snapshots)-n:]
}

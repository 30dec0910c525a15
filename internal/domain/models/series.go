package models

import (
	"strings"
	"time"
)

// RegionTag identifies the market region an instrument or factor trades in.
// It drives the one-session factor lag applied during alignment.
type RegionTag string

const (
	RegionJP    RegionTag = "JP"
	RegionKR    RegionTag = "KR"
	RegionHK    RegionTag = "HK"
	RegionCN    RegionTag = "CN"
	RegionUS    RegionTag = "US"
	RegionOther RegionTag = "OTHER"
)

// InferRegion derives the region from a symbol's listing-venue suffix.
// Symbols without a recognized venue suffix are treated as US-listed when
// they look like plain tickers, otherwise OTHER.
func InferRegion(symbol string) RegionTag {
	switch {
	case strings.HasSuffix(symbol, ".T"):
		return RegionJP
	case strings.HasSuffix(symbol, ".KS"):
		return RegionKR
	case strings.HasSuffix(symbol, ".HK"):
		return RegionHK
	case strings.HasSuffix(symbol, ".SS"), strings.HasSuffix(symbol, ".SZ"):
		return RegionCN
	case symbol != "" && !strings.Contains(symbol, "."):
		return RegionUS
	default:
		return RegionOther
	}
}

// Observation is one (trading day, fractional return) pair.
// Date is the local trading date at UTC midnight.
type Observation struct {
	Date  time.Time
	Value float64
}

// ReturnSeries is the ordered return history of one instrument.
// Dates are strictly increasing with no duplicates; the series is immutable
// once handed to the engine.
type ReturnSeries struct {
	Symbol string
	Region RegionTag
	Obs    []Observation
}

// FactorSeries is the ordered return history of one macro factor, tagged with
// the region whose market close produces the observation.
type FactorSeries struct {
	Name   string
	Region RegionTag
	Obs    []Observation
}

// Len returns the number of observations.
func (s ReturnSeries) Len() int { return len(s.Obs) }

// Len returns the number of observations.
func (s FactorSeries) Len() int { return len(s.Obs) }

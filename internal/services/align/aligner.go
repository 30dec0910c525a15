package align

import (
	"sort"
	"time"

	"RiskLens/internal/domain/models"
	domsvc "RiskLens/internal/domain/service"
)

// DefaultCloseMinutes maps each region to the UTC minute-of-day its cash
// session closes. JP 15:00 JST, KR 15:30 KST, HK 16:00 HKT, CN 15:00 CST,
// US 16:00 EST.
func DefaultCloseMinutes() map[models.RegionTag]int {
	return map[models.RegionTag]int{
		models.RegionJP:    6 * 60,
		models.RegionKR:    6*60 + 30,
		models.RegionHK:    8 * 60,
		models.RegionCN:    7 * 60,
		models.RegionUS:    21 * 60,
		models.RegionOther: 21 * 60,
	}
}

// Config is the immutable aligner configuration.
type Config struct {
	// CloseMinutes gives the UTC close minute-of-day per region, used to
	// decide whether a factor close is observable at the asset close.
	CloseMinutes map[models.RegionTag]int
	// MinRows is the smallest usable panel; fewer aligned rows is a data gap.
	MinRows int
}

// Aligner joins asset and factor series into a gap-free panel, lagging any
// factor whose home close lands after the asset's local close.
type Aligner struct {
	cfg Config
}

func New(cfg Config) *Aligner {
	if cfg.CloseMinutes == nil {
		cfg.CloseMinutes = DefaultCloseMinutes()
	}
	if cfg.MinRows <= 0 {
		cfg.MinRows = 2
	}
	return &Aligner{cfg: cfg}
}

// Align builds one AlignedPanel for the asset. Factors closing after the
// asset's local close are shifted forward by exactly one session on their own
// calendar (the prior available row), so no value is used before it was
// observable. The join is inner: any date missing a value for any column is
// dropped entirely rather than filled.
func (a *Aligner) Align(asset models.ReturnSeries, factors []models.FactorSeries) (*models.AlignedPanel, error) {
	assetVals := make(map[int64]float64, len(asset.Obs))
	for _, o := range asset.Obs {
		assetVals[o.Date.Unix()] = o.Value
	}

	factorVals := make([]map[int64]float64, len(factors))
	names := make([]string, len(factors))
	for j, f := range factors {
		names[j] = f.Name
		obs := f.Obs
		if a.needsLag(asset.Region, f.Region) {
			obs = shiftOneSession(obs)
		}
		m := make(map[int64]float64, len(obs))
		for _, o := range obs {
			m[o.Date.Unix()] = o.Value
		}
		factorVals[j] = m
	}

	// Inner join on the asset's calendar.
	keys := make([]int64, 0, len(assetVals))
	for k := range assetVals {
		complete := true
		for _, m := range factorVals {
			if _, ok := m[k]; !ok {
				complete = false
				break
			}
		}
		if complete {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	if len(keys) < a.cfg.MinRows {
		return nil, &models.DataGapError{Asset: asset.Symbol, Rows: len(keys), MinRows: a.cfg.MinRows}
	}

	panel := &models.AlignedPanel{
		Asset:         asset.Symbol,
		Factors:       names,
		Dates:         make([]time.Time, len(keys)),
		AssetReturns:  make([]float64, len(keys)),
		FactorReturns: make([][]float64, len(keys)),
	}
	for i, k := range keys {
		panel.Dates[i] = time.Unix(k, 0).UTC()
		panel.AssetReturns[i] = assetVals[k]
		row := make([]float64, len(factors))
		for j, m := range factorVals {
			row[j] = m[k]
		}
		panel.FactorReturns[i] = row
	}
	return panel, nil
}

// needsLag reports whether a factor from factorRegion closes after an asset
// from assetRegion on the same calendar day. Equal closes mean no lag: the
// print exists at the asset close, boundary inclusive.
func (a *Aligner) needsLag(assetRegion, factorRegion models.RegionTag) bool {
	ac, ok := a.cfg.CloseMinutes[assetRegion]
	if !ok {
		ac = a.cfg.CloseMinutes[models.RegionOther]
	}
	fc, ok := a.cfg.CloseMinutes[factorRegion]
	if !ok {
		fc = a.cfg.CloseMinutes[models.RegionOther]
	}
	return fc > ac
}

// shiftOneSession moves each value forward to the next available date on the
// factor's own calendar. The first observation has no predecessor and drops.
func shiftOneSession(obs []models.Observation) []models.Observation {
	if len(obs) < 2 {
		return nil
	}
	out := make([]models.Observation, 0, len(obs)-1)
	for i := 1; i < len(obs); i++ {
		out = append(out, models.Observation{Date: obs[i].Date, Value: obs[i-1].Value})
	}
	return out
}

var _ domsvc.Aligner = (*Aligner)(nil)

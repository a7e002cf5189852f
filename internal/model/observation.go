package model

import "sort"

// Observation is one source's measurement of one product for one ISO week.
// Observations are immutable once created; merge logic always builds new
// values instead of mutating in place.
type Observation struct {
	ProductID  string     `json:"product_id"`
	Region     Region     `json:"region"`
	Source     SourceKind `json:"source"`
	Period     Period     `json:"period"`
	Provenance Provenance `json:"provenance"`

	// Metrics holds named numeric fields. Key presence distinguishes a
	// reported zero from missing data.
	Metrics map[string]float64 `json:"metrics,omitempty"`

	// Attrs holds named text fields (title, sku).
	Attrs map[string]string `json:"attrs,omitempty"`
}

// SeriesKey identifies one reconciled series.
type SeriesKey struct {
	ProductID string     `json:"product_id"`
	Region    Region     `json:"region"`
	Source    SourceKind `json:"source"`
}

// ReconciledSeries is a chronologically ordered sequence of observations for
// one (product, region, source), unique by period.
type ReconciledSeries struct {
	Key          SeriesKey     `json:"key"`
	Observations []Observation `json:"observations"`
}

// Periods returns the periods covered by the series, in order.
func (s ReconciledSeries) Periods() []Period {
	out := make([]Period, len(s.Observations))
	for i, o := range s.Observations {
		out[i] = o.Period
	}
	return out
}

// At returns the observation for the given period, if present.
func (s ReconciledSeries) At(p Period) (Observation, bool) {
	i := sort.Search(len(s.Observations), func(i int) bool {
		return !s.Observations[i].Period.Before(p)
	})
	if i < len(s.Observations) && s.Observations[i].Period == p {
		return s.Observations[i], true
	}
	return Observation{}, false
}

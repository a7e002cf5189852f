package model

// RecordKey identifies one composite record.
type RecordKey struct {
	ProductID string `json:"product_id"`
	Region    Region `json:"region"`
	Period    Period `json:"period"`
}

// CompositeRecord is the merged row for one product/region/week, combining
// the fields of every source that produced an observation for that week.
// Sources absent for the week leave their fields unset rather than
// zero-filled.
type CompositeRecord struct {
	Key     RecordKey               `json:"key"`
	Sources map[SourceKind]struct{} `json:"-"`
	Metrics map[string]float64      `json:"metrics,omitempty"`
	Attrs   map[string]string       `json:"attrs,omitempty"`
}

// HasSource reports whether the given source contributed to the record.
func (r CompositeRecord) HasSource(kind SourceKind) bool {
	_, ok := r.Sources[kind]
	return ok
}

// Metric returns the named metric and whether it was set.
func (r CompositeRecord) Metric(name string) (float64, bool) {
	v, ok := r.Metrics[name]
	return v, ok
}

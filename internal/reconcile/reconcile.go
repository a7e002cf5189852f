// Package reconcile merges current and historical observations into one
// deduplicated, chronologically ordered series per (product, region, source).
// It is a pure transform: no network, no I/O.
package reconcile

import (
	"sort"

	"github.com/sells-group/seller-metrics-cli/internal/model"
)

// historicalOverrides lists, per source, the metric fields whose historical
// value stays authoritative even when a current observation covers the same
// period. Business-report current exports under-report units for partial
// weeks, so the corrected units from the historical export win; everything
// else follows the current-wins rule.
var historicalOverrides = map[model.SourceKind][]string{
	model.SourceBusinessReport: {"units"},
}

// HistoricalOverrides exposes the override table for documentation and tests.
func HistoricalOverrides(kind model.SourceKind) []string {
	fields := historicalOverrides[kind]
	out := make([]string, len(fields))
	copy(out, fields)
	return out
}

// MergeAll groups observations by series key and merges current against
// historical per key. Output series are ordered by key (product, region,
// source) and each series is ordered by period ascending. Merging is
// deterministic: identical inputs always yield identical output.
func MergeAll(current, historical []model.Observation) []model.ReconciledSeries {
	keys := make(map[model.SeriesKey]struct{})
	curByKey := groupByKey(current)
	histByKey := groupByKey(historical)
	for k := range curByKey {
		keys[k] = struct{}{}
	}
	for k := range histByKey {
		keys[k] = struct{}{}
	}

	ordered := make([]model.SeriesKey, 0, len(keys))
	for k := range keys {
		ordered = append(ordered, k)
	}
	sort.Slice(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if a.ProductID != b.ProductID {
			return a.ProductID < b.ProductID
		}
		if a.Region != b.Region {
			return a.Region < b.Region
		}
		return a.Source < b.Source
	})

	out := make([]model.ReconciledSeries, 0, len(ordered))
	for _, k := range ordered {
		out = append(out, Merge(k, curByKey[k], histByKey[k]))
	}
	return out
}

// Merge reconciles one series. Historical observations fill periods the
// current export lacks; when both cover a period the current observation
// wins, except for the source's historical-override fields. Equal-period
// duplicates within one provenance resolve last-seen-wins in input order.
func Merge(key model.SeriesKey, current, historical []model.Observation) model.ReconciledSeries {
	byPeriod := make(map[model.Period]model.Observation)

	// Historical first, last-seen-wins within the snapshot.
	for _, o := range historical {
		byPeriod[o.Period] = o
	}

	for _, o := range current {
		hist, both := byPeriod[o.Period]
		if !both || hist.Provenance != model.ProvenanceHistorical {
			byPeriod[o.Period] = o
			continue
		}
		byPeriod[o.Period] = overrideFields(key.Source, o, hist)
	}

	periods := make([]model.Period, 0, len(byPeriod))
	for p := range byPeriod {
		periods = append(periods, p)
	}
	sort.Slice(periods, func(i, j int) bool { return periods[i].Before(periods[j]) })

	obs := make([]model.Observation, 0, len(periods))
	for _, p := range periods {
		obs = append(obs, byPeriod[p])
	}
	return model.ReconciledSeries{Key: key, Observations: obs}
}

// overrideFields returns the current observation with the source's
// authoritative historical fields copied over it. Observations are
// immutable, so a fresh metric map is built.
func overrideFields(kind model.SourceKind, current, historical model.Observation) model.Observation {
	fields := historicalOverrides[kind]
	if len(fields) == 0 {
		return current
	}

	merged := current
	merged.Metrics = make(map[string]float64, len(current.Metrics))
	for name, v := range current.Metrics {
		merged.Metrics[name] = v
	}
	for _, name := range fields {
		if v, ok := historical.Metrics[name]; ok {
			merged.Metrics[name] = v
		}
	}
	return merged
}

func groupByKey(obs []model.Observation) map[model.SeriesKey][]model.Observation {
	grouped := make(map[model.SeriesKey][]model.Observation)
	for _, o := range obs {
		k := model.SeriesKey{ProductID: o.ProductID, Region: o.Region, Source: o.Source}
		grouped[k] = append(grouped[k], o)
	}
	return grouped
}

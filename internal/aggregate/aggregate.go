// Package aggregate combines per-source reconciled series into composite
// records, one per product/region/week.
package aggregate

import (
	"sort"

	"github.com/sells-group/seller-metrics-cli/internal/model"
)

// Build merges the reconciled series of every source into composite records.
// A source's fields appear in a record only when that source produced an
// observation for the record's period; absent sources leave their fields
// unset so consumers can tell "zero metric" from "no data". Metric names are
// namespaced by source kind ("sellerboard.profit", "rank.widget") so two
// sources reporting the same field name never collide. Values pass through
// verbatim: derived ratios were computed at their source and are never
// recomputed here. Output is ordered by product, then region, then period.
func Build(series []model.ReconciledSeries) []model.CompositeRecord {
	byKey := make(map[model.RecordKey]*model.CompositeRecord)
	for _, s := range series {
		for _, o := range s.Observations {
			key := model.RecordKey{ProductID: o.ProductID, Region: o.Region, Period: o.Period}
			rec := byKey[key]
			if rec == nil {
				rec = &model.CompositeRecord{
					Key:     key,
					Sources: make(map[model.SourceKind]struct{}),
					Metrics: make(map[string]float64),
					Attrs:   make(map[string]string),
				}
				byKey[key] = rec
			}
			rec.Sources[o.Source] = struct{}{}
			for name, v := range o.Metrics {
				rec.Metrics[fieldName(o.Source, name)] = v
			}
			for name, v := range o.Attrs {
				rec.Attrs[fieldName(o.Source, name)] = v
			}
		}
	}

	out := make([]model.CompositeRecord, 0, len(byKey))
	for _, rec := range byKey {
		out = append(out, *rec)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Key, out[j].Key
		if a.ProductID != b.ProductID {
			return a.ProductID < b.ProductID
		}
		if a.Region != b.Region {
			return a.Region < b.Region
		}
		return a.Period.Before(b.Period)
	})
	return out
}

func fieldName(kind model.SourceKind, name string) string {
	return string(kind) + "." + name
}

// Field returns the namespaced metric name for a source's field.
func Field(kind model.SourceKind, name string) string {
	return fieldName(kind, name)
}

package source

import (
	"context"
	"os"

	"go.uber.org/zap"

	"github.com/sells-group/seller-metrics-cli/internal/model"
	"github.com/sells-group/seller-metrics-cli/internal/tabular"
)

// SnS metric field names.
const (
	FieldShippedUnits  = "shipped_units"
	FieldSubscriptions = "subscriptions"
)

// SNSLoader parses the Subscribe & Save export pair: the performance report
// (shipped units, Export.Path) and the manage-products report (subscription
// counts, Export.Companion). Values are summed per ASIN.
type SNSLoader struct {
	known map[string]struct{}
}

// NewSNSLoader builds a loader scoped to the region's products.
func NewSNSLoader(productList []model.Product) *SNSLoader {
	return &SNSLoader{known: asinSet(productList)}
}

func (l *SNSLoader) Kind() model.SourceKind {
	return model.SourceSNS
}

func (l *SNSLoader) Load(ctx context.Context, exp Export) ([]model.Observation, Stats, error) {
	shipped, perfStats, err := l.sumColumn(ctx, exp, exp.Path, "SnS shipped units")
	if err != nil {
		return nil, perfStats, err
	}

	subs, prodStats, err := l.sumColumn(ctx, exp, exp.Companion, "Subscriptions Count")
	if err != nil {
		return nil, addStats(perfStats, prodStats), err
	}
	stats := addStats(perfStats, prodStats)

	keys := make(map[string]struct{}, len(shipped)+len(subs))
	for asin := range shipped {
		keys[asin] = struct{}{}
	}
	for asin := range subs {
		keys[asin] = struct{}{}
	}

	obs := make([]model.Observation, 0, len(keys))
	for asin := range keys {
		obs = append(obs, model.Observation{
			ProductID:  asin,
			Region:     exp.Region,
			Source:     l.Kind(),
			Period:     exp.Period,
			Provenance: exp.Provenance,
			Metrics: map[string]float64{
				FieldShippedUnits:  shipped[asin],
				FieldSubscriptions: subs[asin],
			},
		})
	}

	zap.L().Debug("sns: loaded",
		zap.String("performance", exp.Path),
		zap.String("products", exp.Companion),
		zap.Int("rows", stats.RowsRead),
		zap.Int("skipped", stats.RowsSkipped),
		zap.Int("observations", len(obs)),
	)
	return obs, stats, nil
}

// sumColumn totals the named column per known ASIN in one SnS file.
func (l *SNSLoader) sumColumn(ctx context.Context, exp Export, path, column string) (map[string]float64, Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Stats{}, err
	}
	defer f.Close() //nolint:errcheck

	header, rows, err := tabular.ReadCSV(ctx, f, tabular.CSVOptions{TrimSpace: true})
	if err != nil {
		return nil, Stats{}, err
	}

	asinIdx := columnIndex(header, "ASIN")
	valueIdx := columnIndex(header, column)
	if asinIdx < 0 || valueIdx < 0 {
		return nil, Stats{}, &FormatError{
			Source: l.Kind(),
			Path:   path,
			Reason: "missing required columns ASIN, " + column,
		}
	}

	sums := make(map[string]float64)
	var stats Stats
	for _, row := range rows {
		stats.RowsRead++

		asin := cell(row, asinIdx)
		if asin == "" {
			stats.RowsSkipped++
			continue
		}
		if _, ok := l.known[asin]; !ok {
			stats.RowsSkipped++
			continue
		}
		v, ok := tabular.ParseNumber(cell(row, valueIdx))
		if !ok {
			stats.RowsSkipped++
			continue
		}
		sums[asin] += v
	}
	return sums, stats, nil
}

func addStats(a, b Stats) Stats {
	return Stats{
		RowsRead:    a.RowsRead + b.RowsRead,
		RowsSkipped: a.RowsSkipped + b.RowsSkipped,
	}
}

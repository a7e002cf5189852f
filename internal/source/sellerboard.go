package source

import (
	"context"
	"math"

	"go.uber.org/zap"

	"github.com/sells-group/seller-metrics-cli/internal/model"
	"github.com/sells-group/seller-metrics-cli/internal/tabular"
)

// Sellerboard metric field names.
const (
	FieldSales  = "sales"
	FieldProfit = "profit"
	FieldMargin = "margin"
)

// SellerboardLoader parses Sellerboard dashboard workbook exports. Required
// columns: ASIN, Sales, Net profit. Rows for the same ASIN and week are
// summed; margin is derived here (profit/sales, 4 decimals) so the
// aggregator never recomputes it.
type SellerboardLoader struct {
	known map[string]struct{}
}

// NewSellerboardLoader builds a loader scoped to the region's products.
func NewSellerboardLoader(productList []model.Product) *SellerboardLoader {
	return &SellerboardLoader{known: asinSet(productList)}
}

func (l *SellerboardLoader) Kind() model.SourceKind {
	return model.SourceSellerboard
}

func (l *SellerboardLoader) Load(ctx context.Context, exp Export) ([]model.Observation, Stats, error) {
	if err := ctx.Err(); err != nil {
		return nil, Stats{}, err
	}

	header, rows, err := tabular.ReadXLSX(exp.Path, tabular.XLSXOptions{})
	if err != nil {
		return nil, Stats{}, err
	}

	asinIdx := columnIndex(header, "ASIN")
	salesIdx := columnIndex(header, "Sales")
	profitIdx := columnIndex(header, "Net profit")
	if asinIdx < 0 || salesIdx < 0 || profitIdx < 0 {
		return nil, Stats{}, &FormatError{
			Source: l.Kind(),
			Path:   exp.Path,
			Reason: "missing required columns ASIN, Sales, Net profit",
		}
	}
	weekIdx := columnIndex(header, "Week")
	dateIdx := columnIndex(header, "Date")

	type totals struct {
		sales  float64
		profit float64
	}
	sums := make(map[model.RecordKey]*totals)
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

		period, ok := rowPeriod(row, weekIdx, dateIdx, exp.Period)
		if !ok {
			stats.RowsSkipped++
			continue
		}
		sales, okSales := tabular.ParseNumber(cell(row, salesIdx))
		profit, okProfit := tabular.ParseNumber(cell(row, profitIdx))
		if !okSales || !okProfit {
			stats.RowsSkipped++
			continue
		}

		key := model.RecordKey{ProductID: asin, Region: exp.Region, Period: period}
		t := sums[key]
		if t == nil {
			t = &totals{}
			sums[key] = t
		}
		t.sales += sales
		t.profit += profit
	}

	obs := make([]model.Observation, 0, len(sums))
	for key, t := range sums {
		margin := 0.0
		if t.sales != 0 {
			margin = math.Round(t.profit/t.sales*10000) / 10000
		}
		obs = append(obs, model.Observation{
			ProductID:  key.ProductID,
			Region:     key.Region,
			Source:     l.Kind(),
			Period:     key.Period,
			Provenance: exp.Provenance,
			Metrics: map[string]float64{
				FieldSales:  t.sales,
				FieldProfit: t.profit,
				FieldMargin: margin,
			},
		})
	}

	zap.L().Debug("sellerboard: loaded",
		zap.String("path", exp.Path),
		zap.Int("rows", stats.RowsRead),
		zap.Int("skipped", stats.RowsSkipped),
		zap.Int("observations", len(obs)),
	)
	return obs, stats, nil
}

func asinSet(productList []model.Product) map[string]struct{} {
	set := make(map[string]struct{}, len(productList))
	for _, p := range productList {
		set[p.ASIN] = struct{}{}
	}
	return set
}

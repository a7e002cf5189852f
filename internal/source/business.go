package source

import (
	"context"
	"math"
	"os"

	"go.uber.org/zap"

	"github.com/sells-group/seller-metrics-cli/internal/model"
	"github.com/sells-group/seller-metrics-cli/internal/tabular"
)

// Business report metric and attribute field names.
const (
	FieldSessions = "sessions"
	FieldUnits    = "units"
	FieldOrders   = "orders"
	AttrTitle     = "title"
	AttrSKU       = "sku"
)

// Business report exports use positional columns because the UK and US
// marketplaces name the same columns differently.
const (
	bizASINCol     = 1
	bizTitleCol    = 2
	bizSKUCol      = 3
	bizSessionsCol = 4
	bizUnitsCol    = 14
	bizSalesCol    = 18
	bizOrdersCol   = 20
)

// BusinessLoader parses Amazon Business Report CSV exports. Current exports
// fill the full field set; historical exports carry only corrected weekly
// units (the reconciler keeps those authoritative). Repeated ASIN rows are
// aggregated: first title/sku/sessions, summed units/sales/orders.
type BusinessLoader struct {
	known map[string]struct{}
}

// NewBusinessLoader builds a loader scoped to the region's products.
func NewBusinessLoader(productList []model.Product) *BusinessLoader {
	return &BusinessLoader{known: asinSet(productList)}
}

func (l *BusinessLoader) Kind() model.SourceKind {
	return model.SourceBusinessReport
}

func (l *BusinessLoader) Load(ctx context.Context, exp Export) ([]model.Observation, Stats, error) {
	f, err := os.Open(exp.Path)
	if err != nil {
		return nil, Stats{}, err
	}
	defer f.Close() //nolint:errcheck

	header, rows, err := tabular.ReadCSV(ctx, f, tabular.CSVOptions{TrimSpace: true})
	if err != nil {
		return nil, Stats{}, err
	}

	if len(header) <= bizOrdersCol {
		return nil, Stats{}, &FormatError{
			Source: l.Kind(),
			Path:   exp.Path,
			Reason: "unexpected column layout: business report needs at least 21 columns",
		}
	}
	weekIdx := columnIndex(header, "Week")
	dateIdx := columnIndex(header, "Date")

	type entry struct {
		title    string
		sku      string
		sessions float64
		units    float64
		sales    float64
		orders   float64
	}
	sums := make(map[model.RecordKey]*entry)
	var stats Stats

	for _, row := range rows {
		stats.RowsRead++

		asin := cell(row, bizASINCol)
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
		units, okUnits := tabular.ParseNumber(cell(row, bizUnitsCol))
		if !okUnits {
			stats.RowsSkipped++
			continue
		}

		key := model.RecordKey{ProductID: asin, Region: exp.Region, Period: period}
		e := sums[key]
		if e == nil {
			e = &entry{
				title: cell(row, bizTitleCol),
				sku:   cell(row, bizSKUCol),
			}
			if sessions, ok := tabular.ParseNumber(cell(row, bizSessionsCol)); ok {
				e.sessions = sessions
			}
			sums[key] = e
		}
		e.units += units
		if sales, ok := tabular.ParseNumber(cell(row, bizSalesCol)); ok {
			e.sales += sales
		}
		if orders, ok := tabular.ParseNumber(cell(row, bizOrdersCol)); ok {
			e.orders += orders
		}
	}

	obs := make([]model.Observation, 0, len(sums))
	for key, e := range sums {
		o := model.Observation{
			ProductID:  key.ProductID,
			Region:     key.Region,
			Source:     l.Kind(),
			Period:     key.Period,
			Provenance: exp.Provenance,
			Metrics:    map[string]float64{FieldUnits: e.units},
		}
		if exp.Provenance == model.ProvenanceCurrent {
			o.Metrics[FieldSessions] = e.sessions
			o.Metrics[FieldSales] = math.Round(e.sales*100) / 100
			o.Metrics[FieldOrders] = e.orders
			o.Attrs = map[string]string{
				AttrTitle: e.title,
				AttrSKU:   e.sku,
			}
		}
		obs = append(obs, o)
	}

	zap.L().Debug("business: loaded",
		zap.String("path", exp.Path),
		zap.String("provenance", string(exp.Provenance)),
		zap.Int("rows", stats.RowsRead),
		zap.Int("skipped", stats.RowsSkipped),
		zap.Int("observations", len(obs)),
	)
	return obs, stats, nil
}

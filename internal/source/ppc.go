package source

import (
	"context"
	"math"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/seller-metrics-cli/internal/model"
	"github.com/sells-group/seller-metrics-cli/internal/tabular"
)

// PPC metric field names.
const (
	FieldSpend  = "spend"
	FieldClicks = "clicks"
	FieldCTR    = "ctr"
	FieldCPC    = "cpc"
	FieldACOS   = "acos"
)

// Campaign states included in aggregation. Archived campaigns are history,
// not the reporting week.
const (
	campaignEnabled = "ENABLED"
	campaignPaused  = "PAUSED"
)

// PPCLoader parses Amazon Ads campaign CSV exports. Rows are matched to a
// product by case-insensitive substring of its campaign name over ENABLED
// and PAUSED campaigns. Spend and sales column names vary by marketplace
// ("Spend" vs "Spend(GBP)"). Derived ratios (ctr, cpc, acos) are computed
// here with the export's own rounding; the aggregator passes them through.
type PPCLoader struct {
	productList []model.Product
}

// NewPPCLoader builds a loader scoped to the region's products.
func NewPPCLoader(productList []model.Product) *PPCLoader {
	return &PPCLoader{productList: productList}
}

func (l *PPCLoader) Kind() model.SourceKind {
	return model.SourcePPC
}

func (l *PPCLoader) Load(ctx context.Context, exp Export) ([]model.Observation, Stats, error) {
	f, err := os.Open(exp.Path)
	if err != nil {
		return nil, Stats{}, err
	}
	defer f.Close() //nolint:errcheck

	header, rows, err := tabular.ReadCSV(ctx, f, tabular.CSVOptions{TrimSpace: true})
	if err != nil {
		return nil, Stats{}, err
	}

	stateIdx := columnIndex(header, "State")
	nameIdx := columnIndex(header, "Campaigns")
	clicksIdx := columnIndex(header, "Clicks")
	ordersIdx := columnIndex(header, "Orders")
	imprIdx := columnIndex(header, "Impressions")
	spendIdx := currencyColumn(header, "Spend")
	salesIdx := currencyColumn(header, "Sales")
	if stateIdx < 0 || nameIdx < 0 || clicksIdx < 0 || ordersIdx < 0 || imprIdx < 0 || spendIdx < 0 || salesIdx < 0 {
		return nil, Stats{}, &FormatError{
			Source: l.Kind(),
			Path:   exp.Path,
			Reason: "missing required columns State, Campaigns, Clicks, Orders, Impressions, Spend, Sales",
		}
	}

	type totals struct {
		spend       float64
		sales       float64
		clicks      float64
		orders      float64
		impressions float64
		matched     bool
	}
	perProduct := make([]totals, len(l.productList))
	var stats Stats

	for _, row := range rows {
		stats.RowsRead++

		state := cell(row, stateIdx)
		if state != campaignEnabled && state != campaignPaused {
			stats.RowsSkipped++
			continue
		}
		name := strings.ToLower(cell(row, nameIdx))
		if name == "" {
			stats.RowsSkipped++
			continue
		}

		spend, okSpend := tabular.ParseNumber(cell(row, spendIdx))
		sales, okSales := tabular.ParseNumber(cell(row, salesIdx))
		clicks, okClicks := tabular.ParseNumber(cell(row, clicksIdx))
		orders, okOrders := tabular.ParseNumber(cell(row, ordersIdx))
		impressions, okImpr := tabular.ParseNumber(cell(row, imprIdx))
		if !okSpend || !okSales || !okClicks || !okOrders || !okImpr {
			stats.RowsSkipped++
			continue
		}

		for i, p := range l.productList {
			if p.CampaignName == "" || !strings.Contains(name, strings.ToLower(p.CampaignName)) {
				continue
			}
			t := &perProduct[i]
			t.spend += spend
			t.sales += sales
			t.clicks += clicks
			t.orders += orders
			t.impressions += impressions
			t.matched = true
		}
	}

	var obs []model.Observation
	for i, t := range perProduct {
		if !t.matched {
			continue
		}
		metrics := map[string]float64{
			FieldSpend:  math.Round(t.spend*100) / 100,
			FieldClicks: t.clicks,
			FieldOrders: t.orders,
		}
		if t.impressions != 0 {
			metrics[FieldCTR] = math.Round(t.clicks/t.impressions*10000) / 10000
		}
		if t.clicks != 0 {
			metrics[FieldCPC] = math.Round(t.spend/t.clicks*100) / 100
		}
		if t.sales != 0 {
			metrics[FieldACOS] = math.Round(t.spend/t.sales*10000) / 10000
		}
		obs = append(obs, model.Observation{
			ProductID:  l.productList[i].ASIN,
			Region:     exp.Region,
			Source:     l.Kind(),
			Period:     exp.Period,
			Provenance: exp.Provenance,
			Metrics:    metrics,
		})
	}

	zap.L().Debug("ppc: loaded",
		zap.String("path", exp.Path),
		zap.Int("rows", stats.RowsRead),
		zap.Int("skipped", stats.RowsSkipped),
		zap.Int("observations", len(obs)),
	)
	return obs, stats, nil
}

// currencyColumn resolves a column that may carry a currency suffix, e.g.
// "Spend" or "Spend(GBP)".
func currencyColumn(header []string, base string) int {
	if idx := columnIndex(header, base); idx >= 0 {
		return idx
	}
	for i, h := range header {
		h = strings.TrimSpace(h)
		if strings.HasPrefix(h, base+"(") && strings.HasSuffix(h, ")") {
			return i
		}
	}
	return -1
}

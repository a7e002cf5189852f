// Package publish maps composite records onto spreadsheet ranges and
// writes them out, one batched call per destination sheet.
package publish

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/seller-metrics-cli/internal/aggregate"
	"github.com/sells-group/seller-metrics-cli/internal/config"
	"github.com/sells-group/seller-metrics-cli/internal/model"
	"github.com/sells-group/seller-metrics-cli/internal/products"
	"github.com/sells-group/seller-metrics-cli/internal/source"
	"github.com/sells-group/seller-metrics-cli/pkg/sheets"
)

// productColumns is the fixed per-week column layout on a product tab.
// Rank columns follow, one per keyword in registry order.
var productColumns = []struct {
	kind  model.SourceKind
	field string
}{
	{model.SourceSellerboard, source.FieldSales},
	{model.SourceSellerboard, source.FieldProfit},
	{model.SourceSellerboard, source.FieldMargin},
	{model.SourceBusinessReport, source.FieldSessions},
	{model.SourceBusinessReport, source.FieldUnits},
	{model.SourceBusinessReport, source.FieldOrders},
	{model.SourcePPC, source.FieldSpend},
	{model.SourcePPC, source.FieldClicks},
	{model.SourcePPC, source.FieldCTR},
	{model.SourcePPC, source.FieldCPC},
	{model.SourcePPC, source.FieldACOS},
	{model.SourceSNS, source.FieldShippedUnits},
	{model.SourceSNS, source.FieldSubscriptions},
}

// summaryColumns is the per-week column layout on the region summary tab.
var summaryColumns = []struct {
	kind  model.SourceKind
	field string
}{
	{model.SourceSellerboard, source.FieldSales},
	{model.SourceSellerboard, source.FieldProfit},
	{model.SourceBusinessReport, source.FieldUnits},
	{model.SourcePPC, source.FieldSpend},
	{model.SourceSNS, source.FieldShippedUnits},
}

// Error marks a publish failure scoped to one destination sheet. Other
// sheets' batches are unaffected.
type Error struct {
	SheetID string
	Region  model.Region
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("publish %s sheet %s: %v", e.Region, e.SheetID, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Publisher plans and writes batched range updates.
type Publisher struct {
	client   sheets.Client
	cfg      config.PublishConfig
	registry *products.Registry
	sheetIDs map[model.Region]string
}

// New creates a Publisher writing through the given spreadsheet client.
// sheetIDs maps each region to its destination spreadsheet.
func New(client sheets.Client, cfg config.PublishConfig, registry *products.Registry, sheetIDs map[model.Region]string) *Publisher {
	return &Publisher{client: client, cfg: cfg, registry: registry, sheetIDs: sheetIDs}
}

// Plan maps composite records to publish targets: one contiguous block
// per product tab (one row per period, ascending) plus region summary
// rows. Targets are ordered by product then period, and validated to be
// pairwise non-overlapping per sheet.
func (p *Publisher) Plan(records []model.CompositeRecord) ([]model.PublishTarget, error) {
	startCol, err := colNumber(p.cfg.ProductStartCol)
	if err != nil {
		return nil, err
	}
	summaryCol, err := colNumber(p.cfg.SummaryStartCol)
	if err != nil {
		return nil, err
	}

	byProduct := make(map[model.Region]map[string][]model.CompositeRecord)
	for _, rec := range records {
		region := rec.Key.Region
		if byProduct[region] == nil {
			byProduct[region] = make(map[string][]model.CompositeRecord)
		}
		byProduct[region][rec.Key.ProductID] = append(byProduct[region][rec.Key.ProductID], rec)
	}

	regions := make([]model.Region, 0, len(byProduct))
	for region := range byProduct {
		regions = append(regions, region)
	}
	sort.Slice(regions, func(i, j int) bool { return regions[i] < regions[j] })

	var targets []model.PublishTarget
	for _, region := range regions {
		sheetID, ok := p.sheetIDs[region]
		if !ok {
			return nil, eris.Errorf("publish: no spreadsheet configured for region %s", region)
		}

		asins := make([]string, 0, len(byProduct[region]))
		for asin := range byProduct[region] {
			asins = append(asins, asin)
		}
		sort.Strings(asins)

		for _, asin := range asins {
			product, ok := p.registry.Lookup(region, asin)
			if !ok {
				zap.L().Warn("no registry entry for product, skipping publish",
					zap.String("asin", asin),
					zap.String("region", string(region)))
				continue
			}

			if product.SheetTitle == "" {
				// Summary-only product, no tab of its own.
				continue
			}

			recs := byProduct[region][asin]
			sort.Slice(recs, func(i, j int) bool {
				return recs[i].Key.Period.Before(recs[j].Key.Period)
			})

			rows := make([][]string, len(recs))
			for i, rec := range recs {
				rows[i] = productRow(rec, product.Keywords)
			}

			width := len(rows[0])
			target := model.PublishTarget{
				SheetID:   sheetID,
				Region:    region,
				ProductID: asin,
				Values:    rows,
				RangeRef: Range{
					Sheet:    product.SheetTitle,
					StartCol: startCol,
					StartRow: p.cfg.StartRow,
					EndCol:   startCol + width - 1,
					EndRow:   p.cfg.StartRow + len(rows) - 1,
				}.Ref(),
			}
			targets = append(targets, target)
		}

		if rows := p.summaryRows(byProduct[region]); len(rows) > 0 {
			targets = append(targets, model.PublishTarget{
				SheetID: sheetID,
				Region:  region,
				Values:  rows,
				RangeRef: Range{
					Sheet:    p.cfg.SummarySheetTitle,
					StartCol: summaryCol,
					StartRow: p.cfg.StartRow,
					EndCol:   summaryCol + len(rows[0]) - 1,
					EndRow:   p.cfg.StartRow + len(rows) - 1,
				}.Ref(),
			})
		}
	}

	if err := validateDisjoint(targets); err != nil {
		return nil, err
	}
	return targets, nil
}

// Publish issues one batched write per destination sheet. A rejected
// batch fails only that sheet; remaining sheets are still attempted.
func (p *Publisher) Publish(ctx context.Context, targets []model.PublishTarget) []model.SheetStatus {
	bySheet := make(map[string][]model.PublishTarget)
	for _, t := range targets {
		bySheet[t.SheetID] = append(bySheet[t.SheetID], t)
	}

	sheetIDs := make([]string, 0, len(bySheet))
	for id := range bySheet {
		sheetIDs = append(sheetIDs, id)
	}
	sort.Strings(sheetIDs)

	statuses := make([]model.SheetStatus, 0, len(sheetIDs))
	for _, sheetID := range sheetIDs {
		group := bySheet[sheetID]
		status := model.SheetStatus{
			SheetID: sheetID,
			Region:  group[0].Region,
			Ranges:  len(group),
		}

		data := make([]sheets.ValueRange, len(group))
		for i, t := range group {
			data[i] = sheets.ValueRange{Range: t.RangeRef, Values: t.Values}
		}

		resp, err := p.client.BatchUpdate(ctx, sheetID, data)
		if err != nil {
			perr := &Error{SheetID: sheetID, Region: status.Region, Err: err}
			zap.L().Error("sheet batch write failed", zap.Error(perr))
			status.Outcome = model.OutcomeFailed
			status.Error = perr.Error()
		} else {
			zap.L().Info("sheet batch written",
				zap.String("sheet_id", sheetID),
				zap.Int("ranges", len(group)),
				zap.Int("cells", resp.TotalUpdatedCells))
			status.Outcome = model.OutcomeSuccess
		}
		statuses = append(statuses, status)
	}
	return statuses
}

// productRow renders one period's row for a product tab. Missing fields
// render as empty cells so a blank is distinguishable from a zero.
func productRow(rec model.CompositeRecord, keywords []string) []string {
	row := make([]string, 0, 1+len(productColumns)+len(keywords))
	row = append(row, rec.Key.Period.String())
	for _, col := range productColumns {
		row = append(row, formatMetric(rec, aggregate.Field(col.kind, col.field)))
	}
	for _, kw := range keywords {
		row = append(row, formatMetric(rec, aggregate.Field(model.SourceRank, kw)))
	}
	return row
}

// summaryRows totals per-period metrics across a region's products.
func (p *Publisher) summaryRows(byASIN map[string][]model.CompositeRecord) [][]string {
	type total struct {
		sums map[string]float64
		seen map[string]bool
	}
	totals := make(map[model.Period]*total)
	for _, recs := range byASIN {
		for _, rec := range recs {
			t := totals[rec.Key.Period]
			if t == nil {
				t = &total{sums: make(map[string]float64), seen: make(map[string]bool)}
				totals[rec.Key.Period] = t
			}
			for _, col := range summaryColumns {
				name := aggregate.Field(col.kind, col.field)
				if v, ok := rec.Metric(name); ok {
					t.sums[name] += v
					t.seen[name] = true
				}
			}
		}
	}

	periods := make([]model.Period, 0, len(totals))
	for p := range totals {
		periods = append(periods, p)
	}
	sort.Slice(periods, func(i, j int) bool { return periods[i].Before(periods[j]) })

	rows := make([][]string, 0, len(periods))
	for _, period := range periods {
		t := totals[period]
		row := make([]string, 0, 1+len(summaryColumns))
		row = append(row, period.String())
		for _, col := range summaryColumns {
			name := aggregate.Field(col.kind, col.field)
			if !t.seen[name] {
				row = append(row, "")
				continue
			}
			row = append(row, strconv.FormatFloat(t.sums[name], 'f', -1, 64))
		}
		rows = append(rows, row)
	}
	return rows
}

func formatMetric(rec model.CompositeRecord, name string) string {
	v, ok := rec.Metric(name)
	if !ok {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// validateDisjoint rejects plans where two targets on the same sheet
// overlap.
func validateDisjoint(targets []model.PublishTarget) error {
	rects := make([]Range, len(targets))
	for i, t := range targets {
		r, err := parseRef(t.RangeRef)
		if err != nil {
			return err
		}
		rects[i] = r
	}
	for i := range rects {
		for j := i + 1; j < len(rects); j++ {
			if targets[i].SheetID != targets[j].SheetID {
				continue
			}
			if rects[i].Overlaps(rects[j]) {
				return eris.Errorf("publish: overlapping ranges %s and %s on sheet %s",
					targets[i].RangeRef, targets[j].RangeRef, targets[i].SheetID)
			}
		}
	}
	return nil
}

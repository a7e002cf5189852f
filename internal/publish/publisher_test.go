package publish

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/seller-metrics-cli/internal/aggregate"
	"github.com/sells-group/seller-metrics-cli/internal/config"
	"github.com/sells-group/seller-metrics-cli/internal/model"
	"github.com/sells-group/seller-metrics-cli/internal/products"
	"github.com/sells-group/seller-metrics-cli/internal/source"
	"github.com/sells-group/seller-metrics-cli/pkg/sheets"
)

type fakeSheets struct {
	calls   map[string][]sheets.ValueRange
	order   []string
	failFor map[string]error
}

func newFakeSheets() *fakeSheets {
	return &fakeSheets{calls: make(map[string][]sheets.ValueRange), failFor: make(map[string]error)}
}

func (f *fakeSheets) BatchUpdate(_ context.Context, spreadsheetID string, data []sheets.ValueRange) (*sheets.BatchUpdateResponse, error) {
	f.order = append(f.order, spreadsheetID)
	if err := f.failFor[spreadsheetID]; err != nil {
		return nil, err
	}
	f.calls[spreadsheetID] = data
	return &sheets.BatchUpdateResponse{SpreadsheetID: spreadsheetID}, nil
}

func (f *fakeSheets) BatchGet(context.Context, string, []string) (*sheets.BatchGetResponse, error) {
	return &sheets.BatchGetResponse{}, nil
}

func testRegistry(t *testing.T) *products.Registry {
	t.Helper()
	reg, err := products.Parse([]byte(`
products:
  uk:
    - asin: SKU1
      sheet: Widget
      keywords: [widget]
    - asin: SKU2
      sheet: Gadget
  us:
    - asin: SKU1
      sheet: Widget
`))
	require.NoError(t, err)
	return reg
}

func testConfig() config.PublishConfig {
	return config.PublishConfig{
		ProductStartCol:   "B",
		SummaryStartCol:   "A",
		SummarySheetTitle: "Business",
		StartRow:          2,
	}
}

func record(asin string, region model.Region, period model.Period, metrics map[string]float64) model.CompositeRecord {
	return model.CompositeRecord{
		Key:     model.RecordKey{ProductID: asin, Region: region, Period: period},
		Metrics: metrics,
	}
}

func TestPlanWeeklyRows(t *testing.T) {
	profit := aggregate.Field(model.SourceSellerboard, source.FieldProfit)
	sales := aggregate.Field(model.SourceSellerboard, source.FieldSales)
	rank := aggregate.Field(model.SourceRank, "widget")

	records := []model.CompositeRecord{
		record("SKU1", model.RegionUK, model.Period{Year: 2024, Week: 10}, map[string]float64{profit: 100, sales: 250.5, rank: 5}),
		record("SKU1", model.RegionUK, model.Period{Year: 2024, Week: 8}, map[string]float64{profit: 80}),
		record("SKU1", model.RegionUK, model.Period{Year: 2024, Week: 9}, map[string]float64{profit: 90}),
	}

	p := New(newFakeSheets(), testConfig(), testRegistry(t), map[model.Region]string{model.RegionUK: "sheet-uk"})
	targets, err := p.Plan(records)
	require.NoError(t, err)

	// One product block plus the region summary block.
	require.Len(t, targets, 2)

	block := targets[0]
	assert.Equal(t, "sheet-uk", block.SheetID)
	assert.Equal(t, "SKU1", block.ProductID)
	// 1 period col + 13 metric cols + 1 keyword col = 15 wide, rows 2-4.
	assert.Equal(t, "Widget!B2:P4", block.RangeRef)
	require.Len(t, block.Values, 3)

	// Rows ascend by period regardless of input order.
	assert.Equal(t, "2024-W08", block.Values[0][0])
	assert.Equal(t, "2024-W09", block.Values[1][0])
	assert.Equal(t, "2024-W10", block.Values[2][0])

	// Column 2 is profit; W08 carries 80, W10 carries 100.
	assert.Equal(t, "80", block.Values[0][2])
	assert.Equal(t, "90", block.Values[1][2])
	assert.Equal(t, "100", block.Values[2][2])

	// Sales absent for W08 renders as a blank cell, not zero.
	assert.Equal(t, "", block.Values[0][1])
	assert.Equal(t, "250.5", block.Values[2][1])

	// Last column is the keyword rank.
	assert.Equal(t, "5", block.Values[2][14])
	assert.Equal(t, "", block.Values[0][14])

	summary := targets[1]
	assert.Empty(t, summary.ProductID)
	assert.Equal(t, "Business!A2:F4", summary.RangeRef)
	assert.Equal(t, "2024-W08", summary.Values[0][0])
	assert.Equal(t, "80", summary.Values[0][2])
}

func TestPlanDeterministicOrder(t *testing.T) {
	profit := aggregate.Field(model.SourceSellerboard, source.FieldProfit)
	records := []model.CompositeRecord{
		record("SKU2", model.RegionUK, model.Period{Year: 2024, Week: 10}, map[string]float64{profit: 1}),
		record("SKU1", model.RegionUS, model.Period{Year: 2024, Week: 10}, map[string]float64{profit: 2}),
		record("SKU1", model.RegionUK, model.Period{Year: 2024, Week: 10}, map[string]float64{profit: 3}),
	}
	sheetIDs := map[model.Region]string{model.RegionUK: "sheet-uk", model.RegionUS: "sheet-us"}

	p := New(newFakeSheets(), testConfig(), testRegistry(t), sheetIDs)
	first, err := p.Plan(records)
	require.NoError(t, err)
	second, err := p.Plan(records)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	var order []string
	for _, tgt := range first {
		order = append(order, string(tgt.Region)+"/"+tgt.ProductID)
	}
	assert.Equal(t, []string{"uk/SKU1", "uk/SKU2", "uk/", "us/SKU1", "us/"}, order)
}

func TestPlanRejectsOverlap(t *testing.T) {
	reg, err := products.Parse([]byte(`
products:
  uk:
    - asin: SKU1
      sheet: Widget
    - asin: SKU2
      sheet: Widget
`))
	require.NoError(t, err)

	profit := aggregate.Field(model.SourceSellerboard, source.FieldProfit)
	records := []model.CompositeRecord{
		record("SKU1", model.RegionUK, model.Period{Year: 2024, Week: 10}, map[string]float64{profit: 1}),
		record("SKU2", model.RegionUK, model.Period{Year: 2024, Week: 10}, map[string]float64{profit: 2}),
	}

	p := New(newFakeSheets(), testConfig(), reg, map[model.Region]string{model.RegionUK: "sheet-uk"})
	_, err = p.Plan(records)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "overlapping ranges")
}

func TestPlanMissingRegionSheet(t *testing.T) {
	profit := aggregate.Field(model.SourceSellerboard, source.FieldProfit)
	records := []model.CompositeRecord{
		record("SKU1", model.RegionUK, model.Period{Year: 2024, Week: 10}, map[string]float64{profit: 1}),
	}
	p := New(newFakeSheets(), testConfig(), testRegistry(t), nil)
	_, err := p.Plan(records)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no spreadsheet configured")
}

func TestPublishSheetIsolation(t *testing.T) {
	fake := newFakeSheets()
	fake.failFor["sheet-uk"] = assert.AnError

	p := New(fake, testConfig(), testRegistry(t), nil)
	statuses := p.Publish(context.Background(), []model.PublishTarget{
		{SheetID: "sheet-us", Region: model.RegionUS, RangeRef: "Widget!B2:C2", Values: [][]string{{"a", "b"}}},
		{SheetID: "sheet-uk", Region: model.RegionUK, RangeRef: "Widget!B2:C2", Values: [][]string{{"a", "b"}}},
		{SheetID: "sheet-uk", Region: model.RegionUK, RangeRef: "Gadget!B2:C2", Values: [][]string{{"c", "d"}}},
	})

	require.Len(t, statuses, 2)
	assert.Equal(t, "sheet-uk", statuses[0].SheetID)
	assert.Equal(t, model.OutcomeFailed, statuses[0].Outcome)
	assert.Equal(t, 2, statuses[0].Ranges)
	assert.Contains(t, statuses[0].Error, "sheet-uk")

	assert.Equal(t, "sheet-us", statuses[1].SheetID)
	assert.Equal(t, model.OutcomeSuccess, statuses[1].Outcome)
	assert.Empty(t, statuses[1].Error)

	// The failing sheet did not stop the other batch.
	require.Len(t, fake.calls["sheet-us"], 1)
	assert.Equal(t, "Widget!B2:C2", fake.calls["sheet-us"][0].Range)
}

package source

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/seller-metrics-cli/internal/model"
)

func snsExport(perf, prod string) Export {
	return Export{
		Path:       perf,
		Companion:  prod,
		Provenance: model.ProvenanceCurrent,
		Region:     model.RegionUK,
		Period:     model.Period{Year: 2024, Week: 10},
	}
}

func TestSNSLoad(t *testing.T) {
	perf := writeCSV(t, "uk_sns_performance.csv", [][]string{
		{"ASIN", "SnS shipped units"},
		{"B001", "8"},
		{"B001", "2"},
		{"B002", "5"},
	})
	prod := writeCSV(t, "uk_sns_products.csv", [][]string{
		{"ASIN", "Subscriptions Count"},
		{"B001", "40"},
	})

	loader := NewSNSLoader(testProducts)
	obs, stats, err := loader.Load(context.Background(), snsExport(perf, prod))
	require.NoError(t, err)

	assert.Equal(t, 4, stats.RowsRead)
	require.Len(t, obs, 2)

	byASIN := map[string]model.Observation{}
	for _, o := range obs {
		byASIN[o.ProductID] = o
	}
	assert.Equal(t, 10.0, byASIN["B001"].Metrics[FieldShippedUnits])
	assert.Equal(t, 40.0, byASIN["B001"].Metrics[FieldSubscriptions])

	// B002 appears in the performance file only; its subscription count is
	// zero, not absent, because the source did report for the product.
	assert.Equal(t, 5.0, byASIN["B002"].Metrics[FieldShippedUnits])
	assert.Zero(t, byASIN["B002"].Metrics[FieldSubscriptions])
}

func TestSNSSkipsMalformedRows(t *testing.T) {
	perf := writeCSV(t, "uk_sns_performance.csv", [][]string{
		{"ASIN", "SnS shipped units"},
		{"B001", "8"},
		{"", "3"},
		{"B404", "7"},
		{"B002", "many"},
	})
	prod := writeCSV(t, "uk_sns_products.csv", [][]string{
		{"ASIN", "Subscriptions Count"},
		{"B001", "40"},
	})

	loader := NewSNSLoader(testProducts)
	obs, stats, err := loader.Load(context.Background(), snsExport(perf, prod))
	require.NoError(t, err)

	assert.Equal(t, 5, stats.RowsRead)
	assert.Equal(t, 3, stats.RowsSkipped)
	require.Len(t, obs, 1)
	assert.Equal(t, "B001", obs[0].ProductID)
}

func TestSNSMissingColumnsEitherFile(t *testing.T) {
	good := writeCSV(t, "uk_sns_performance.csv", [][]string{
		{"ASIN", "SnS shipped units"},
		{"B001", "8"},
	})
	bad := writeCSV(t, "uk_sns_products.csv", [][]string{
		{"SKU", "Count"},
		{"SKU-1", "40"},
	})

	loader := NewSNSLoader(testProducts)

	_, _, err := loader.Load(context.Background(), snsExport(bad, good))
	var ferr *FormatError
	require.True(t, errors.As(err, &ferr))
	assert.Equal(t, model.SourceSNS, ferr.Source)

	_, _, err = loader.Load(context.Background(), snsExport(good, bad))
	require.True(t, errors.As(err, &ferr))
}

func TestSNSMissingFile(t *testing.T) {
	good := writeCSV(t, "uk_sns_performance.csv", [][]string{
		{"ASIN", "SnS shipped units"},
		{"B001", "8"},
	})

	loader := NewSNSLoader(testProducts)
	_, _, err := loader.Load(context.Background(), snsExport(good, "nope.csv"))
	assert.Error(t, err)
}

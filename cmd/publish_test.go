package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/seller-metrics-cli/internal/model"
)

func TestParseRegions(t *testing.T) {
	regions, err := parseRegions([]string{"uk", "US", " de "})
	require.NoError(t, err)
	assert.Equal(t, []model.Region{model.RegionUK, model.RegionUS, model.RegionDE}, regions)

	regions, err = parseRegions(nil)
	require.NoError(t, err)
	assert.Nil(t, regions)

	_, err = parseRegions([]string{"uk", "mars"})
	assert.Error(t, err)
}

func TestParseSources(t *testing.T) {
	kinds, err := parseSources([]string{"sellerboard", "rank"})
	require.NoError(t, err)
	assert.Equal(t, []model.SourceKind{model.SourceSellerboard, model.SourceRank}, kinds)

	_, err = parseSources([]string{"telemetry"})
	assert.Error(t, err)
}

func TestDateLayout(t *testing.T) {
	d, err := time.Parse(dateLayout, "12/Mar/24")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.March, 12, 0, 0, 0, 0, time.UTC), d)

	_, err = time.Parse(dateLayout, "2024-03-12")
	assert.Error(t, err)
}

func TestFormatReport(t *testing.T) {
	report := &model.RunReport{
		Period:  model.Period{Year: 2024, Week: 10},
		Records: 6,
		Sources: []model.SourceStatus{
			{Source: model.SourceSellerboard, Region: model.RegionUK, Outcome: model.OutcomeSuccess, RowsRead: 12, Observations: 6},
			{Source: model.SourcePPC, Region: model.RegionUK, Outcome: model.OutcomeFailed, Error: "missing column"},
		},
		Sheets: []model.SheetStatus{
			{SheetID: "sheet-uk", Region: model.RegionUK, Outcome: model.OutcomeSuccess, Ranges: 3},
		},
		RankQueries: 4,
		RankMissing: 1,
	}

	var buf bytes.Buffer
	formatReport(&buf, "run-1", report)
	out := buf.String()

	assert.Contains(t, out, "run-1")
	assert.Contains(t, out, "2024-W10")
	assert.Contains(t, out, "sellerboard")
	assert.Contains(t, out, "missing column")
	assert.Contains(t, out, "Rank queries: 4 (1 without data)")
	assert.Contains(t, out, "sheet-uk")
	assert.Contains(t, out, "Outcome: degraded")
}

func TestCommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["publish"])
	assert.True(t, names["runs"])
	assert.True(t, names["serve"])
}

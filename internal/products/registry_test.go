package products

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/seller-metrics-cli/internal/model"
)

const registryYAML = `
products:
  uk:
    - asin: "  B001  "
      sheet: " Widget "
      campaign: widget
      rank_id: 77
      keywords: ["  Widget Pro ", "WIDGET"]
    - asin: B002
  us:
    - asin: B001
      sheet: Widget US
`

func TestParse(t *testing.T) {
	reg, err := Parse([]byte(registryYAML))
	require.NoError(t, err)

	uk := reg.ForRegion(model.RegionUK)
	require.Len(t, uk, 2)
	assert.Equal(t, "B001", uk[0].ASIN)
	assert.Equal(t, "Widget", uk[0].SheetTitle)
	assert.Equal(t, 77, uk[0].RankServiceID)
	assert.Equal(t, []string{"widget pro", "widget"}, uk[0].Keywords)

	// B002 is summary-only: no sheet, no campaign, no rank tracking.
	assert.Empty(t, uk[1].SheetTitle)
	assert.Zero(t, uk[1].RankServiceID)

	assert.Equal(t, []model.Region{model.RegionUK, model.RegionUS}, reg.Regions())
	assert.Nil(t, reg.ForRegion(model.RegionDE))
}

func TestParseSkipsEntriesWithoutASIN(t *testing.T) {
	reg, err := Parse([]byte(`
products:
  uk:
    - sheet: Orphan
    - asin: B001
`))
	require.NoError(t, err)
	require.Len(t, reg.ForRegion(model.RegionUK), 1)
	assert.Equal(t, "B001", reg.ForRegion(model.RegionUK)[0].ASIN)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{name: "empty", yaml: `products: {}`},
		{name: "unknown_region", yaml: "products:\n  mars:\n    - asin: B001\n"},
		{name: "region_all_skipped", yaml: "products:\n  uk:\n    - sheet: Orphan\n"},
		{name: "not_yaml", yaml: `{products: [`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLookup(t *testing.T) {
	reg, err := Parse([]byte(registryYAML))
	require.NoError(t, err)

	p, ok := reg.Lookup(model.RegionUK, "B002")
	assert.True(t, ok)
	assert.Equal(t, "B002", p.ASIN)

	_, ok = reg.Lookup(model.RegionUS, "B002")
	assert.False(t, ok)
	_, ok = reg.Lookup(model.RegionUK, "B999")
	assert.False(t, ok)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "products.yaml")
	require.NoError(t, os.WriteFile(path, []byte(registryYAML), 0o644))

	reg, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, reg.ForRegion(model.RegionUK), 2)

	_, err = Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

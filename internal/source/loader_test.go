package source

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/seller-metrics-cli/internal/model"
)

func TestLoadersCoversFileBackedSources(t *testing.T) {
	loaders := Loaders(testProducts)
	require.Len(t, loaders, 4)

	kinds := map[model.SourceKind]bool{}
	for _, l := range loaders {
		kinds[l.Kind()] = true
	}
	assert.True(t, kinds[model.SourceSellerboard])
	assert.True(t, kinds[model.SourceBusinessReport])
	assert.True(t, kinds[model.SourcePPC])
	assert.True(t, kinds[model.SourceSNS])
	assert.False(t, kinds[model.SourceRank])
}

func TestColumnIndex(t *testing.T) {
	header := []string{" ASIN ", "Units ordered", "Sales"}
	assert.Equal(t, 0, columnIndex(header, "asin"))
	assert.Equal(t, 1, columnIndex(header, "Units Ordered"))
	assert.Equal(t, -1, columnIndex(header, "Orders"))
}

func TestRowPeriod(t *testing.T) {
	fallback := model.Period{Year: 2024, Week: 10}

	// No week or date column: every row belongs to the export's period.
	p, ok := rowPeriod([]string{"B001"}, -1, -1, fallback)
	assert.True(t, ok)
	assert.Equal(t, fallback, p)

	// Week column wins over the fallback.
	p, ok = rowPeriod([]string{"B001", "2024-W08"}, 1, -1, fallback)
	assert.True(t, ok)
	assert.Equal(t, model.Period{Year: 2024, Week: 8}, p)

	// Date column resolves to its ISO week.
	p, ok = rowPeriod([]string{"B001", "26/02/2024"}, -1, 1, fallback)
	assert.True(t, ok)
	assert.Equal(t, model.Period{Year: 2024, Week: 9}, p)

	// A present-but-unparseable value skips the row instead of silently
	// falling back to the wrong week.
	_, ok = rowPeriod([]string{"B001", "garbage"}, 1, -1, fallback)
	assert.False(t, ok)
	_, ok = rowPeriod([]string{"B001", ""}, -1, 1, fallback)
	assert.False(t, ok)
}

package tabular

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
)

func writeWorkbook(t *testing.T, sheets map[string][][]string) string {
	t.Helper()

	f := xlsx.NewFile()
	for name, rows := range sheets {
		sheet, err := f.AddSheet(name)
		require.NoError(t, err)
		for _, row := range rows {
			r := sheet.AddRow()
			for _, v := range row {
				r.AddCell().Value = v
			}
		}
	}

	path := filepath.Join(t.TempDir(), "export.xlsx")
	require.NoError(t, f.Save(path))
	return path
}

func TestReadXLSX(t *testing.T) {
	path := writeWorkbook(t, map[string][][]string{
		"Dashboard": {
			{"ASIN", "Sales", "Net profit"},
			{"B001", "250.50", "80.10"},
			{"B002", "300", "90"},
		},
	})

	header, rows, err := ReadXLSX(path, XLSXOptions{})
	require.NoError(t, err)

	assert.Equal(t, []string{"ASIN", "Sales", "Net profit"}, header)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"B001", "250.50", "80.10"}, rows[0])
}

func TestReadXLSXByName(t *testing.T) {
	path := writeWorkbook(t, map[string][][]string{
		"Summary": {{"X"}, {"1"}},
		"Detail":  {{"ASIN"}, {"B001"}},
	})

	header, rows, err := ReadXLSX(path, XLSXOptions{SheetName: "Detail"})
	require.NoError(t, err)
	assert.Equal(t, []string{"ASIN"}, header)
	require.Len(t, rows, 1)
	assert.Equal(t, []string{"B001"}, rows[0])

	_, _, err = ReadXLSX(path, XLSXOptions{SheetName: "Missing"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestReadXLSXSheetIndexOutOfRange(t *testing.T) {
	path := writeWorkbook(t, map[string][][]string{
		"Only": {{"A"}},
	})

	_, _, err := ReadXLSX(path, XLSXOptions{SheetIndex: 3})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")
}

func TestReadXLSXMissingFile(t *testing.T) {
	_, _, err := ReadXLSX(filepath.Join(t.TempDir(), "absent.xlsx"), XLSXOptions{})
	assert.Error(t, err)
}

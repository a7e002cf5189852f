// Package source parses per-source weekly exports into canonical
// observations. Each source kind has a fixed parse contract; there is no
// runtime column-shape sniffing. Malformed rows are skipped and counted,
// never fatal; a file missing its required column set entirely fails with
// FormatError.
package source

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sells-group/seller-metrics-cli/internal/model"
)

// FormatError reports that a file is not the expected source type: the
// required column set is entirely absent. Fatal for that source only.
type FormatError struct {
	Source model.SourceKind
	Path   string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("source %s: %s: %s", e.Source, e.Path, e.Reason)
}

// Export describes one input file for a load.
type Export struct {
	Path string

	// Companion is the secondary file for sources split across two exports
	// (SnS subscriptions come from a separate products file).
	Companion string

	Provenance model.Provenance
	Region     model.Region

	// Period is the week rows belong to when the file carries no per-row
	// week or date column.
	Period model.Period
}

// Stats counts load outcomes for the run report.
type Stats struct {
	RowsRead    int
	RowsSkipped int
}

// Loader parses one source kind's export into observations. Loaders are pure
// transforms: no network, no writes.
type Loader interface {
	Kind() model.SourceKind
	Load(ctx context.Context, exp Export) ([]model.Observation, Stats, error)
}

// Loaders builds the closed set of file-backed loaders for one region's
// products. Rank is not file-backed and is fetched separately.
func Loaders(productList []model.Product) []Loader {
	return []Loader{
		NewSellerboardLoader(productList),
		NewBusinessLoader(productList),
		NewPPCLoader(productList),
		NewSNSLoader(productList),
	}
}

// columnIndex finds a header column by exact name, case-insensitive.
func columnIndex(header []string, name string) int {
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), name) {
			return i
		}
	}
	return -1
}

// cell returns the row value at idx, or "" when the row is short.
func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

// rowPeriod resolves the ISO week a row belongs to. Historical exports carry
// a per-row "Week" (2024-W08) or "Date" (DD/MM/YYYY) column spanning several
// weeks; current exports usually carry neither and fall back to the export's
// own period.
func rowPeriod(row []string, weekIdx, dateIdx int, fallback model.Period) (model.Period, bool) {
	if weekIdx >= 0 {
		raw := strings.TrimSpace(cell(row, weekIdx))
		if raw == "" {
			return model.Period{}, false
		}
		p, err := model.ParsePeriod(raw)
		if err != nil {
			return model.Period{}, false
		}
		return p, true
	}
	if dateIdx >= 0 {
		raw := strings.TrimSpace(cell(row, dateIdx))
		if raw == "" {
			return model.Period{}, false
		}
		t, err := time.Parse("02/01/2006", raw)
		if err != nil {
			return model.Period{}, false
		}
		return model.PeriodOf(t), true
	}
	return fallback, true
}

package model

import (
	"strings"

	"github.com/rotisserie/eris"
)

// SourceKind identifies one of the closed set of metric sources. Parse logic
// is fixed per kind; there is no column-shape sniffing at runtime.
type SourceKind string

const (
	SourceSellerboard    SourceKind = "sellerboard"
	SourceBusinessReport SourceKind = "business_report"
	SourcePPC            SourceKind = "ppc"
	SourceSNS            SourceKind = "sns"
	SourceRank           SourceKind = "rank"
)

// AllSourceKinds lists every source kind in stable order.
func AllSourceKinds() []SourceKind {
	return []SourceKind{SourceSellerboard, SourceBusinessReport, SourcePPC, SourceSNS, SourceRank}
}

// ParseSourceKind converts a string into a SourceKind.
func ParseSourceKind(s string) (SourceKind, error) {
	k := SourceKind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range AllSourceKinds() {
		if k == known {
			return k, nil
		}
	}
	return "", eris.Errorf("model: unknown source kind %q", s)
}

// Provenance records which snapshot an observation came from.
type Provenance string

const (
	// ProvenanceCurrent marks data from the most recent, possibly
	// partial-week export.
	ProvenanceCurrent Provenance = "current"
	// ProvenanceHistorical marks data from a prior, presumed-complete export.
	ProvenanceHistorical Provenance = "historical"
	// ProvenanceFetched marks data retrieved from the rank-tracking service.
	ProvenanceFetched Provenance = "fetched"
)

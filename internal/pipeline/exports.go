package pipeline

import (
	"os"
	"path/filepath"

	"github.com/sells-group/seller-metrics-cli/internal/config"
	"github.com/sells-group/seller-metrics-cli/internal/model"
	"github.com/sells-group/seller-metrics-cli/internal/source"
)

// exportsFor resolves the input files for one region and source kind.
// Files live in the run directory as <region>_<name>; files that do not
// exist are silently left out, so a missing historical export just means
// nothing to backfill.
func exportsFor(cfg config.SourcesConfig, dir string, region model.Region, kind model.SourceKind, period model.Period, filter ProvenanceFilter) []source.Export {
	resolve := func(name string) string {
		if name == "" {
			return ""
		}
		path := filepath.Join(dir, string(region)+"_"+name)
		if _, err := os.Stat(path); err != nil {
			return ""
		}
		return path
	}

	var exports []source.Export
	add := func(path, companion string, prov model.Provenance) {
		if path == "" {
			return
		}
		exports = append(exports, source.Export{
			Path:       path,
			Companion:  companion,
			Provenance: prov,
			Region:     region,
			Period:     period,
		})
	}

	switch kind {
	case model.SourceSellerboard:
		if filter.Current() {
			add(resolve(cfg.SellerboardCurrent), "", model.ProvenanceCurrent)
		}
		if filter.Historical() {
			add(resolve(cfg.SellerboardHistorical), "", model.ProvenanceHistorical)
		}
	case model.SourceBusinessReport:
		if filter.Current() {
			add(resolve(cfg.BusinessCurrent), "", model.ProvenanceCurrent)
		}
		if filter.Historical() {
			add(resolve(cfg.BusinessHistorical), "", model.ProvenanceHistorical)
		}
	case model.SourcePPC:
		if filter.Current() {
			add(resolve(cfg.Campaigns), "", model.ProvenanceCurrent)
		}
	case model.SourceSNS:
		if filter.Current() {
			add(resolve(cfg.SNSPerformance), resolve(cfg.SNSProducts), model.ProvenanceCurrent)
		}
	}
	return exports
}

// ProvenanceFilter restricts a run to current or historical exports.
type ProvenanceFilter struct {
	CurrentOnly    bool
	HistoricalOnly bool
}

func (f ProvenanceFilter) Current() bool    { return !f.HistoricalOnly }
func (f ProvenanceFilter) Historical() bool { return !f.CurrentOnly }

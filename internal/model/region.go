// Package model defines the core domain types shared across the pipeline:
// regions, source kinds, weekly observations, composite records, rank
// queries, publish targets, and run reports.
package model

import (
	"strings"

	"github.com/rotisserie/eris"
)

// Region identifies an Amazon marketplace region.
type Region string

const (
	RegionUK Region = "uk"
	RegionUS Region = "us"
	RegionFR Region = "fr"
	RegionIT Region = "it"
	RegionES Region = "es"
	RegionDE Region = "de"
)

// AllRegions lists every supported region in stable order.
func AllRegions() []Region {
	return []Region{RegionUK, RegionUS, RegionFR, RegionIT, RegionES, RegionDE}
}

// ParseRegion converts a string into a Region.
func ParseRegion(s string) (Region, error) {
	r := Region(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range AllRegions() {
		if r == known {
			return r, nil
		}
	}
	return "", eris.Errorf("model: unknown region %q", s)
}

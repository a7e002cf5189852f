// Package products loads the per-region product registry from YAML.
package products

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/seller-metrics-cli/internal/model"
)

// Registry maps regions to their tracked products.
type Registry struct {
	byRegion map[model.Region][]model.Product
}

// registryFile is the on-disk shape: a top-level "products" key with one
// product list per region.
type registryFile struct {
	Products map[string][]model.Product `yaml:"products"`
}

// Load reads a product registry from a YAML file.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "products: read registry %s", path)
	}
	return Parse(data)
}

// Parse builds a Registry from raw YAML.
func Parse(data []byte) (*Registry, error) {
	var file registryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, eris.Wrap(err, "products: parse registry")
	}

	reg := &Registry{byRegion: make(map[model.Region][]model.Product)}
	for regionKey, list := range file.Products {
		region, err := model.ParseRegion(regionKey)
		if err != nil {
			return nil, eris.Wrapf(err, "products: registry region %q", regionKey)
		}

		kept := make([]model.Product, 0, len(list))
		for i, p := range list {
			p.ASIN = strings.TrimSpace(p.ASIN)
			if p.ASIN == "" {
				zap.L().Warn("products: entry without asin skipped",
					zap.String("region", string(region)),
					zap.Int("index", i),
				)
				continue
			}
			p.SheetTitle = strings.TrimSpace(p.SheetTitle)
			for j, kw := range p.Keywords {
				p.Keywords[j] = strings.ToLower(strings.TrimSpace(kw))
			}
			kept = append(kept, p)
		}
		if len(kept) == 0 {
			return nil, eris.Errorf("products: region %s has no usable products", region)
		}
		reg.byRegion[region] = kept
	}

	if len(reg.byRegion) == 0 {
		return nil, eris.New("products: registry is empty")
	}
	return reg, nil
}

// ForRegion returns the products tracked in a region, or nil.
func (r *Registry) ForRegion(region model.Region) []model.Product {
	return r.byRegion[region]
}

// Regions lists the regions present in the registry, in AllRegions order.
func (r *Registry) Regions() []model.Region {
	var out []model.Region
	for _, region := range model.AllRegions() {
		if _, ok := r.byRegion[region]; ok {
			out = append(out, region)
		}
	}
	return out
}

// Lookup finds a product by ASIN within a region.
func (r *Registry) Lookup(region model.Region, asin string) (model.Product, bool) {
	for _, p := range r.byRegion[region] {
		if p.ASIN == asin {
			return p, true
		}
	}
	return model.Product{}, false
}

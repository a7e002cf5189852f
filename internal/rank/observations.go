package rank

import (
	"strings"

	"github.com/sells-group/seller-metrics-cli/internal/model"
)

func normalizeKeyword(kw string) string {
	return strings.ToLower(strings.TrimSpace(kw))
}

// Observations converts rank results into canonical observations for the
// given period, one per product with a metric per resolved keyword. Queries
// with a null position contribute no field at all, so downstream consumers
// see missing data rather than a zero rank.
func Observations(results []model.RankResult, period model.Period) []model.Observation {
	type key struct {
		productID string
		region    model.Region
	}
	grouped := make(map[key]map[string]float64)
	order := make([]key, 0)

	for _, r := range results {
		if !r.Found() {
			continue
		}
		k := key{productID: r.Query.ProductID, region: r.Query.Region}
		if _, ok := grouped[k]; !ok {
			grouped[k] = make(map[string]float64)
			order = append(order, k)
		}
		grouped[k][normalizeKeyword(r.Query.Keyword)] = *r.Position
	}

	obs := make([]model.Observation, 0, len(order))
	for _, k := range order {
		obs = append(obs, model.Observation{
			ProductID:  k.productID,
			Region:     k.region,
			Source:     model.SourceRank,
			Period:     period,
			Provenance: model.ProvenanceFetched,
			Metrics:    grouped[k],
		})
	}
	return obs
}

// MissingCount reports how many queries resolved without a position.
func MissingCount(results []model.RankResult) int {
	missing := 0
	for _, r := range results {
		if !r.Found() {
			missing++
		}
	}
	return missing
}

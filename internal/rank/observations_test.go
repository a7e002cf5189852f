package rank

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/seller-metrics-cli/internal/model"
)

func result(asin, keyword string, pos *float64, attempts int) model.RankResult {
	return model.RankResult{
		Query:        model.RankQuery{ProductID: asin, ServiceID: 77, Keyword: keyword, Region: model.RegionUK},
		Position:     pos,
		AttemptCount: attempts,
	}
}

func pos(v float64) *float64 { return &v }

func TestObservationsGroupPerProduct(t *testing.T) {
	period := model.Period{Year: 2024, Week: 10}
	obs := Observations([]model.RankResult{
		result("SKU1", "Widget", pos(5), 1),
		result("SKU1", "gizmo", pos(12.5), 1),
		result("SKU2", "gadget", pos(3), 2),
	}, period)

	require.Len(t, obs, 2)

	first := obs[0]
	assert.Equal(t, "SKU1", first.ProductID)
	assert.Equal(t, model.SourceRank, first.Source)
	assert.Equal(t, model.ProvenanceFetched, first.Provenance)
	assert.Equal(t, period, first.Period)
	assert.Equal(t, map[string]float64{"widget": 5, "gizmo": 12.5}, first.Metrics)

	assert.Equal(t, "SKU2", obs[1].ProductID)
}

func TestObservationsSkipNullPositions(t *testing.T) {
	obs := Observations([]model.RankResult{
		result("SKU1", "widget", pos(5), 1),
		result("SKU1", "gizmo", nil, 3),
		result("SKU2", "gadget", nil, 3),
	}, model.Period{Year: 2024, Week: 10})

	// SKU2 had no resolved keyword at all, so it yields no observation.
	require.Len(t, obs, 1)
	assert.Equal(t, map[string]float64{"widget": 5}, obs[0].Metrics)

	assert.Equal(t, 2, MissingCount([]model.RankResult{
		result("SKU1", "widget", pos(5), 1),
		result("SKU1", "gizmo", nil, 3),
		result("SKU2", "gadget", nil, 3),
	}))
}

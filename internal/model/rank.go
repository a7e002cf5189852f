package model

import "fmt"

// RankQuery asks the rank-tracking service for one product/keyword position.
type RankQuery struct {
	ProductID string `json:"product_id"`
	// ServiceID is the rank service's own identifier for the product.
	ServiceID int    `json:"service_id"`
	Keyword   string `json:"keyword"`
	Region    Region `json:"region"`
}

func (q RankQuery) String() string {
	return fmt.Sprintf("%s/%s/%q", q.Region, q.ProductID, q.Keyword)
}

// RankResult is the outcome of one RankQuery. Position is nil when the
// keyword was not found or every attempt failed; AttemptCount records how
// many requests were actually issued.
type RankResult struct {
	Query        RankQuery `json:"query"`
	Position     *float64  `json:"position,omitempty"`
	AttemptCount int       `json:"attempt_count"`
}

// Found reports whether the query resolved to a position.
func (r RankResult) Found() bool {
	return r.Position != nil
}

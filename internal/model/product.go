package model

// Product is one tracked catalog item in one region.
type Product struct {
	ASIN string `yaml:"asin" json:"asin"`

	// SheetTitle is the product's own tab in the region spreadsheet. Empty
	// means the product only appears on the region summary sheet.
	SheetTitle string `yaml:"sheet" json:"sheet_title,omitempty"`

	// CampaignName matches PPC export rows by case-insensitive substring.
	CampaignName string `yaml:"campaign" json:"campaign_name,omitempty"`

	// RankServiceID is the rank-tracking service's product id (0 = not tracked).
	RankServiceID int `yaml:"rank_id" json:"rank_service_id,omitempty"`

	// Keywords are the search terms whose organic rank is tracked weekly.
	Keywords []string `yaml:"keywords" json:"keywords,omitempty"`
}

// RankQueries expands the product into one query per tracked keyword.
// Products without a service id or keywords yield none.
func (p Product) RankQueries(region Region) []RankQuery {
	if p.RankServiceID == 0 || len(p.Keywords) == 0 {
		return nil
	}
	queries := make([]RankQuery, 0, len(p.Keywords))
	for _, kw := range p.Keywords {
		queries = append(queries, RankQuery{
			ProductID: p.ASIN,
			ServiceID: p.RankServiceID,
			Keyword:   kw,
			Region:    region,
		})
	}
	return queries
}

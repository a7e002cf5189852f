package model

// PublishTarget maps a block of values onto one spreadsheet range. ProductID
// is empty for region summary-sheet targets. Within one publish run, targets
// for distinct products (or the summary) must never overlap in RangeRef.
type PublishTarget struct {
	SheetID   string     `json:"sheet_id"`
	RangeRef  string     `json:"range_ref"`
	Region    Region     `json:"region"`
	ProductID string     `json:"product_id,omitempty"`
	Values    [][]string `json:"values"`
}

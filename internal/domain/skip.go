package domain

// SkipReason explains why a listing produced no vehicle.
type SkipReason string

const (
	SkipFetchFailed SkipReason = "fetch_failed"
	SkipMissingVIN  SkipReason = "missing_vin"
	SkipParseFailed SkipReason = "parse_failed"
)

// Skip records one listing that was dropped from a scrape.
type Skip struct {
	ListingURL  string     `json:"listing_url"`
	StockNumber string     `json:"stock_number,omitempty"`
	Reason      SkipReason `json:"reason"`
	Detail      string     `json:"detail,omitempty"`
}

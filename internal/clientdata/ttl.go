package clientdata

import "time"

// TTL constants for different data types.
// These are added to time.Now() when storing to calculate expires_at.
const (
	// Market listings move constantly, keep them short-lived.
	TTLMarkets = 5 * time.Minute

	// Search results map names/symbols to coin ids, those rarely change.
	TTLSearch = 24 * time.Hour

	// Historical price charts only gain a few points per hour.
	TTLChart = time.Hour
)

// Table names for the CoinGecko response cache.
const (
	TableMarkets = "coingecko_markets"
	TableSearch  = "coingecko_search"
	TableChart   = "coingecko_chart"
)

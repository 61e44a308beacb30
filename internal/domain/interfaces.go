package domain

// MarketGateway defines the market data operations the advisor depends on.
// Implementations talk to a market data provider (CoinGecko); tests use mocks.
type MarketGateway interface {
	// ResolveIdentifier maps a user-supplied symbol or name to the provider's
	// stable coin id. Returns ErrNotFound when the search yields nothing.
	ResolveIdentifier(query string) (string, error)

	// FetchSnapshot returns the current market state for one coin.
	// Returns ErrNotFound when the provider has no data for the id.
	FetchSnapshot(id string) (*MarketSnapshot, error)

	// FetchTopByMarketCap returns the top n coins ordered by market cap.
	FetchTopByMarketCap(n int) ([]MarketSnapshot, error)

	// FetchPriceHistory returns the (timestamp, price) series for the
	// given number of days.
	FetchPriceHistory(id string, days int) ([]PricePoint, error)
}

// Oracle is the trained prediction model behind a narrow interface.
// Predict takes the fixed-order feature vector and returns the raw
// (unrounded) predicted price change percentage.
type Oracle interface {
	Predict(features FeatureVector) (float64, error)
}

// Package domain provides core domain models and types.
package domain

import "encoding/json"

// FeatureCount is the number of features the prediction model was trained on.
// The order of the features is a frozen contract with the persisted model
// artifact and must never change.
const FeatureCount = 7

// FeatureVector holds the model inputs in their fixed training order:
// current_price, total_volume, ath, atl, price_change_percentage_24h,
// ath_change_percentage, atl_change_percentage.
type FeatureVector [FeatureCount]float64

// Category represents the opportunity band a prediction falls into
type Category string

const (
	CategoryAltaOportunidad     Category = "ALTA_OPORTUNIDAD"
	CategoryModeradaOportunidad Category = "MODERADA_OPORTUNIDAD"
	CategoryBajaOportunidad     Category = "BAJA_OPORTUNIDAD"
	CategoryNoRecomendado       Category = "NO_RECOMENDADO"
)

// RiskLevel represents the volatility risk band of a coin
type RiskLevel string

const (
	RiskBajo  RiskLevel = "BAJO"
	RiskMedio RiskLevel = "MEDIO"
	RiskAlto  RiskLevel = "ALTO"
)

// ParseRiskLevel normalizes a user-supplied risk tolerance string.
// Unknown values default to MEDIO, matching the API's default behavior.
func ParseRiskLevel(s string) RiskLevel {
	switch RiskLevel(s) {
	case RiskBajo, RiskMedio, RiskAlto:
		return RiskLevel(s)
	default:
		return RiskMedio
	}
}

// MarketSnapshot is one coin's current market state as reported by the
// market data provider. Immutable once fetched.
type MarketSnapshot struct {
	ID                       string  `json:"id"`
	Symbol                   string  `json:"symbol"`
	Name                     string  `json:"name"`
	Image                    string  `json:"image"`
	CurrentPrice             float64 `json:"current_price"`
	TotalVolume              float64 `json:"total_volume"`
	MarketCap                float64 `json:"market_cap"`
	ATH                      float64 `json:"ath"`
	ATL                      float64 `json:"atl"`
	PriceChangePercentage24h float64 `json:"price_change_percentage_24h"`
	ATHChangePercentage      float64 `json:"ath_change_percentage"`
	ATLChangePercentage      float64 `json:"atl_change_percentage"`
	LastUpdated              string  `json:"last_updated"`
}

// Features derives the model feature vector from a snapshot.
// Missing optional fields are already zero-valued by JSON decoding,
// which matches the 0.0 defaults the model was trained with.
func (s MarketSnapshot) Features() FeatureVector {
	return FeatureVector{
		s.CurrentPrice,
		s.TotalVolume,
		s.ATH,
		s.ATL,
		s.PriceChangePercentage24h,
		s.ATHChangePercentage,
		s.ATLChangePercentage,
	}
}

// PredictionResult is the rounded model output plus its opportunity band
type PredictionResult struct {
	Value    float64  `json:"value"`
	Category Category `json:"category"`
}

// Analysis is one coin's full evaluation: market state, prediction and
// derived scores. Created by the scoring engine, consumed read-only by the
// recommendation pipeline and the portfolio allocator.
type Analysis struct {
	ID                   string    `json:"id"`
	Symbol               string    `json:"symbol"`
	Name                 string    `json:"name"`
	Image                string    `json:"image"`
	CurrentPrice         float64   `json:"current_price"`
	MarketCap            float64   `json:"market_cap"`
	TotalVolume          float64   `json:"total_volume"`
	PriceChange24h       float64   `json:"price_change_24h"`
	Prediction           float64   `json:"prediction"`
	Category             Category  `json:"category"`
	FinalScore           float64   `json:"final_score"`
	RiskLevel            RiskLevel `json:"risk_level"`
	RecommendationReason string    `json:"recommendation_reason"`
}

// PortfolioLine is an Analysis plus its budget allocation
type PortfolioLine struct {
	Analysis
	SuggestedAmount      float64 `json:"suggested_amount"`
	SuggestedInvestment  float64 `json:"suggested_investment"`
	AllocationPercentage float64 `json:"allocation_percentage"`
}

// PricePoint is one (timestamp, price) pair from a coin's price history.
// The timestamp is in milliseconds since epoch, as delivered by the provider.
type PricePoint struct {
	Timestamp int64
	Price     float64
}

// MarshalJSON renders the point as a [timestamp, price] pair, the shape
// charting libraries expect.
func (p PricePoint) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{float64(p.Timestamp), p.Price})
}

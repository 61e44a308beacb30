// Package scoring turns market snapshots into growth predictions, risk levels,
// and composite scores.
package scoring

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/Meza27/cryptoadvisor/internal/domain"
	"github.com/Meza27/cryptoadvisor/pkg/formulas"
)

// Service runs the prediction and scoring pipeline.
type Service struct {
	gateway domain.MarketGateway
	oracle  domain.Oracle
	log     zerolog.Logger
}

// NewService creates a new scoring service.
func NewService(gateway domain.MarketGateway, oracle domain.Oracle, log zerolog.Logger) *Service {
	return &Service{
		gateway: gateway,
		oracle:  oracle,
		log:     log.With().Str("module", "scoring").Logger(),
	}
}

// Prediction is the result of a single-coin prediction request.
type Prediction struct {
	Symbol     string          `json:"symbol"`
	CryptoID   string          `json:"crypto_id"`
	Prediction float64         `json:"prediction"`
	Category   domain.Category `json:"category"`
	Image      string          `json:"image"`
}

// PredictByIdentifier resolves a symbol or name to a coin, fetches its market
// snapshot, and runs the model on it.
func (s *Service) PredictByIdentifier(query string) (*Prediction, error) {
	id, err := s.gateway.ResolveIdentifier(query)
	if err != nil {
		return nil, err
	}

	snapshot, err := s.gateway.FetchSnapshot(id)
	if err != nil {
		return nil, err
	}

	result, err := s.Predict(snapshot.Features())
	if err != nil {
		return nil, fmt.Errorf("prediction failed for %s: %w", id, err)
	}

	return &Prediction{
		Symbol:     strings.ToLower(strings.TrimSpace(query)),
		CryptoID:   id,
		Prediction: result.Value,
		Category:   result.Category,
		Image:      snapshot.Image,
	}, nil
}

// Predict runs the model on a feature vector. The category is derived from the
// raw model output, the returned value is rounded to two decimals.
func (s *Service) Predict(features domain.FeatureVector) (*domain.PredictionResult, error) {
	raw, err := s.oracle.Predict(features)
	if err != nil {
		return nil, err
	}

	return &domain.PredictionResult{
		Value:    formulas.Round(raw, 2),
		Category: Categorize(raw),
	}, nil
}

// Categorize maps a predicted growth percentage to an opportunity category.
func Categorize(prediction float64) domain.Category {
	switch {
	case prediction > 10:
		return domain.CategoryAltaOportunidad
	case prediction > 5:
		return domain.CategoryModeradaOportunidad
	case prediction > 0:
		return domain.CategoryBajaOportunidad
	default:
		return domain.CategoryNoRecomendado
	}
}

// RiskLevelFor classifies risk from market cap and 24h price swing magnitude.
// Thresholds loosen as market cap grows, and coins below 1B can never be BAJO.
func RiskLevelFor(marketCap, priceChange24h float64) domain.RiskLevel {
	change := priceChange24h
	if change < 0 {
		change = -change
	}

	switch {
	case marketCap > 100e9:
		if change < 8 {
			return domain.RiskBajo
		} else if change < 20 {
			return domain.RiskMedio
		}
		return domain.RiskAlto
	case marketCap > 10e9:
		if change < 12 {
			return domain.RiskBajo
		} else if change < 25 {
			return domain.RiskMedio
		}
		return domain.RiskAlto
	case marketCap > 1e9:
		if change < 15 {
			return domain.RiskMedio
		}
		return domain.RiskAlto
	default:
		if change < 10 {
			return domain.RiskMedio
		}
		return domain.RiskAlto
	}
}

// FinalScore blends the rounded prediction with a technical score built from
// volume, market cap, and 24h momentum. The result is rounded to two decimals
// and deliberately not clamped.
func FinalScore(prediction, totalVolume, marketCap, priceChange24h float64) float64 {
	volumeScore := formulas.Min(totalVolume/1e9, 5)
	marketCapScore := formulas.Min(marketCap/1e10, 5)
	technicalScore := (volumeScore + marketCapScore + priceChange24h/10) / 3

	return formulas.Round((prediction+technicalScore)/2, 2)
}

// RecommendationReason builds the human readable reason string from the raw
// prediction and the snapshot's momentum and market cap.
func RecommendationReason(prediction float64, snapshot *domain.MarketSnapshot) string {
	var reasons []string

	switch {
	case prediction > 10:
		reasons = append(reasons, "Predicción de crecimiento muy alta")
	case prediction > 5:
		reasons = append(reasons, "Predicción de crecimiento positiva")
	case prediction > 0:
		reasons = append(reasons, "Predicción de crecimiento moderada")
	default:
		reasons = append(reasons, "Predicción de crecimiento negativa")
	}

	if snapshot.PriceChangePercentage24h > 5 {
		reasons = append(reasons, "momentum positivo 24h")
	} else if snapshot.PriceChangePercentage24h < -5 {
		reasons = append(reasons, "corrección reciente (oportunidad de compra)")
	}

	switch {
	case snapshot.MarketCap > 50e9:
		reasons = append(reasons, "activo establecido")
	case snapshot.MarketCap > 5e9:
		reasons = append(reasons, "capitalización media")
	default:
		reasons = append(reasons, "alto potencial de crecimiento")
	}

	return strings.Join(reasons, ", ")
}

// Analyze runs the full scoring pipeline on one market snapshot.
func (s *Service) Analyze(snapshot *domain.MarketSnapshot) (*domain.Analysis, error) {
	raw, err := s.oracle.Predict(snapshot.Features())
	if err != nil {
		return nil, fmt.Errorf("prediction failed for %s: %w", snapshot.ID, err)
	}

	prediction := formulas.Round(raw, 2)

	return &domain.Analysis{
		ID:                   snapshot.ID,
		Symbol:               snapshot.Symbol,
		Name:                 snapshot.Name,
		Image:                snapshot.Image,
		CurrentPrice:         snapshot.CurrentPrice,
		MarketCap:            snapshot.MarketCap,
		TotalVolume:          snapshot.TotalVolume,
		PriceChange24h:       snapshot.PriceChangePercentage24h,
		Prediction:           prediction,
		Category:             Categorize(raw),
		FinalScore:           FinalScore(prediction, snapshot.TotalVolume, snapshot.MarketCap, snapshot.PriceChangePercentage24h),
		RiskLevel:            RiskLevelFor(snapshot.MarketCap, snapshot.PriceChangePercentage24h),
		RecommendationReason: RecommendationReason(raw, snapshot),
	}, nil
}

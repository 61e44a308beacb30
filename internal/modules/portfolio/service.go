// Package portfolio turns ranked recommendations into a diversified investment
// allocation across opportunity tiers.
package portfolio

import (
	"github.com/rs/zerolog"

	"github.com/Meza27/cryptoadvisor/internal/domain"
	"github.com/Meza27/cryptoadvisor/internal/modules/recommendations"
	"github.com/Meza27/cryptoadvisor/pkg/formulas"
)

// recommendationPool is how many recommendations are considered for allocation.
const recommendationPool = 20

// tier describes one allocation bucket.
type tier struct {
	category domain.Category
	maxCoins int
	fraction float64
}

// Allocation order and budget split per opportunity tier. A tier with no
// qualifying coins forfeits its share, the budget is not redistributed.
var tiers = []tier{
	{domain.CategoryAltaOportunidad, 3, 0.40},
	{domain.CategoryModeradaOportunidad, 4, 0.35},
	{domain.CategoryBajaOportunidad, 3, 0.25},
}

// Service builds portfolio suggestions on top of the recommendation engine.
type Service struct {
	recommendations *recommendations.Service
	log             zerolog.Logger
}

// NewService creates a new portfolio service.
func NewService(recommendationsSvc *recommendations.Service, log zerolog.Logger) *Service {
	return &Service{
		recommendations: recommendationsSvc,
		log:             log.With().Str("module", "portfolio").Logger(),
	}
}

// Build generates a diversified portfolio for the given budget and risk
// tolerance. The budget is split 40/35/25 across the alta, moderada, and baja
// tiers, evenly within each tier.
func (s *Service) Build(budget float64, riskTolerance domain.RiskLevel) ([]domain.PortfolioLine, error) {
	recs, err := s.recommendations.Generate(riskTolerance, recommendationPool)
	if err != nil {
		return nil, err
	}

	lines := make([]domain.PortfolioLine, 0, recommendationPool)
	for _, t := range tiers {
		picked := pickByCategory(recs, t.category, t.maxCoins)
		if len(picked) == 0 {
			continue
		}

		perCoin := budget * t.fraction / float64(len(picked))
		tierPercent := t.fraction * 100

		for _, rec := range picked {
			amount := 0.0
			if rec.CurrentPrice > 0 {
				amount = perCoin / rec.CurrentPrice
			}
			lines = append(lines, domain.PortfolioLine{
				Analysis:             rec,
				SuggestedAmount:      formulas.Round(amount, 6),
				SuggestedInvestment:  formulas.Round(perCoin, 2),
				AllocationPercentage: formulas.Round(tierPercent/float64(len(picked)), 1),
			})
		}
	}

	return lines, nil
}

// pickByCategory returns the first max recommendations of a category,
// preserving rank order.
func pickByCategory(recs []domain.Analysis, category domain.Category, max int) []domain.Analysis {
	picked := make([]domain.Analysis, 0, max)
	for _, rec := range recs {
		if rec.Category != category {
			continue
		}
		picked = append(picked, rec)
		if len(picked) == max {
			break
		}
	}
	return picked
}

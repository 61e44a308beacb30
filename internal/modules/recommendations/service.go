// Package recommendations builds ranked buy recommendations from analyzed
// market data, filtered by the caller's risk tolerance.
package recommendations

import (
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/Meza27/cryptoadvisor/internal/domain"
	"github.com/Meza27/cryptoadvisor/internal/modules/scoring"
)

// topCoinCount is how many coins by market cap are analyzed per batch.
const topCoinCount = 50

// Service generates risk-filtered recommendations over a cached analysis batch.
type Service struct {
	gateway domain.MarketGateway
	scoring *scoring.Service
	cache   *batchCache
	log     zerolog.Logger
}

// NewService creates a new recommendations service. The analyzed batch is
// cached for ttl, now is the clock used for expiry checks (nil means
// time.Now).
func NewService(gateway domain.MarketGateway, scoringSvc *scoring.Service, ttl time.Duration, now func() time.Time, log zerolog.Logger) *Service {
	return &Service{
		gateway: gateway,
		scoring: scoringSvc,
		cache:   newBatchCache(ttl, now),
		log:     log.With().Str("module", "recommendations").Logger(),
	}
}

// Generate returns up to limit recommendations matching the risk tolerance,
// ordered by final score descending.
func (s *Service) Generate(riskTolerance domain.RiskLevel, limit int) ([]domain.Analysis, error) {
	analyzed, err := s.analyzedBatch()
	if err != nil {
		return nil, err
	}

	valid := make([]domain.Analysis, 0, len(analyzed))
	for _, a := range analyzed {
		if a.Category != domain.CategoryNoRecomendado {
			valid = append(valid, a)
		}
	}

	filtered := filterByRisk(valid, riskTolerance, limit)

	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].FinalScore > filtered[j].FinalScore
	})

	if len(filtered) > limit {
		filtered = filtered[:limit]
	}

	return filtered, nil
}

// RefreshBatch forces a new batch fetch and analysis, replacing the cache.
// Used by the scheduled cache warmer.
func (s *Service) RefreshBatch() error {
	batch, err := s.fetchAndAnalyze()
	if err != nil {
		return err
	}
	s.cache.Replace(batch)
	return nil
}

// analyzedBatch returns the cached batch, refreshing it when expired.
func (s *Service) analyzedBatch() ([]domain.Analysis, error) {
	if batch, ok := s.cache.Get(); ok {
		s.log.Debug().Int("count", len(batch)).Msg("Using cached analysis batch")
		return batch, nil
	}

	batch, err := s.fetchAndAnalyze()
	if err != nil {
		return nil, err
	}

	s.cache.Replace(batch)
	return batch, nil
}

func (s *Service) fetchAndAnalyze() ([]domain.Analysis, error) {
	snapshots, err := s.gateway.FetchTopByMarketCap(topCoinCount)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch top coins: %w", err)
	}

	analyzed := make([]domain.Analysis, 0, len(snapshots))
	for i := range snapshots {
		analysis, err := s.scoring.Analyze(&snapshots[i])
		if err != nil {
			// One bad coin must not sink the batch.
			s.log.Warn().Err(err).Str("coin", snapshots[i].ID).Msg("Skipping coin, analysis failed")
			continue
		}
		analyzed = append(analyzed, *analysis)
	}

	s.log.Info().
		Int("fetched", len(snapshots)).
		Int("analyzed", len(analyzed)).
		Msg("Analysis batch refreshed")

	return analyzed, nil
}

// filterByRisk applies the risk tolerance filter. BAJO and MEDIO both prefer
// low and medium risk coins and backfill with the best scoring high risk ones
// when there are not enough. ALTO accepts everything.
func filterByRisk(valid []domain.Analysis, riskTolerance domain.RiskLevel, limit int) []domain.Analysis {
	if riskTolerance == domain.RiskAlto {
		out := make([]domain.Analysis, len(valid))
		copy(out, valid)
		return out
	}

	preferred := make([]domain.Analysis, 0, len(valid))
	highRisk := make([]domain.Analysis, 0, len(valid))
	for _, a := range valid {
		if a.RiskLevel == domain.RiskAlto {
			highRisk = append(highRisk, a)
		} else {
			preferred = append(preferred, a)
		}
	}

	if len(preferred) < limit {
		sort.SliceStable(highRisk, func(i, j int) bool {
			return highRisk[i].FinalScore > highRisk[j].FinalScore
		})
		missing := limit - len(preferred)
		if missing > len(highRisk) {
			missing = len(highRisk)
		}
		preferred = append(preferred, highRisk[:missing]...)
	}

	return preferred
}

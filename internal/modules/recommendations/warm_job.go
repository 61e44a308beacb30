package recommendations

import (
	"github.com/rs/zerolog"
)

// WarmJob refreshes the analysis batch in the background so interactive
// requests rarely pay for a full fetch-and-analyze cycle.
type WarmJob struct {
	service *Service
	log     zerolog.Logger
}

// NewWarmJob creates a new cache warming job.
func NewWarmJob(service *Service, log zerolog.Logger) *WarmJob {
	return &WarmJob{
		service: service,
		log:     log.With().Str("job", "recommendations_warm").Logger(),
	}
}

// Run refreshes the cached analysis batch.
func (j *WarmJob) Run() error {
	if err := j.service.RefreshBatch(); err != nil {
		j.log.Error().Err(err).Msg("Failed to warm recommendations cache")
		return err
	}
	return nil
}

// Name returns the job name for scheduling and logging.
func (j *WarmJob) Name() string {
	return "recommendations_warm"
}

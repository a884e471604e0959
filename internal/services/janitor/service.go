// -----------------------------------------------------------------------
// Janitor Service - Scheduled pruning of stale conversion records
// -----------------------------------------------------------------------

package janitor

import (
	"context"
	"fmt"
	"time"

	"github.com/detailerhq/detailer/internal/common"
	"github.com/detailerhq/detailer/internal/interfaces"
	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
)

// Service prunes conversion records whose ConvertedAt is older than the
// configured maximum age. Pruning a record also removes its raster
// artifacts; the next request for that document re-converts.
type Service struct {
	cache  interfaces.PresentationStorage
	cron   *cron.Cron
	maxAge time.Duration
	logger arbor.ILogger

	running bool
}

// NewService creates a janitor from config. Returns an error if the
// configured max age does not parse.
func NewService(cache interfaces.PresentationStorage, config *common.JanitorConfig, logger arbor.ILogger) (*Service, error) {
	maxAge, err := time.ParseDuration(config.MaxAge)
	if err != nil {
		return nil, fmt.Errorf("invalid janitor max_age %q: %w", config.MaxAge, err)
	}

	return &Service{
		cache:  cache,
		cron:   cron.New(),
		maxAge: maxAge,
		logger: logger,
	}, nil
}

// Start schedules the sweep with the given cron expression.
func (s *Service) Start(schedule string) error {
	if s.running {
		return fmt.Errorf("janitor already running")
	}

	if _, err := s.cron.AddFunc(schedule, func() {
		if _, err := s.Sweep(context.Background()); err != nil {
			s.logger.Warn().Err(err).Msg("Janitor sweep failed")
		}
	}); err != nil {
		return fmt.Errorf("failed to schedule janitor: %w", err)
	}

	s.cron.Start()
	s.running = true

	s.logger.Info().
		Str("schedule", schedule).
		Str("max_age", s.maxAge.String()).
		Msg("Janitor started")

	return nil
}

// Stop halts the schedule. In-flight sweeps run to completion.
func (s *Service) Stop() {
	if !s.running {
		return
	}
	s.cron.Stop()
	s.running = false
}

// Sweep deletes every conversion record older than the maximum age and
// returns the number pruned.
func (s *Service) Sweep(ctx context.Context) (int, error) {
	records, err := s.cache.ListAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list conversions for sweep: %w", err)
	}

	cutoff := time.Now().Add(-s.maxAge)
	pruned := 0
	for _, record := range records {
		if record.ConvertedAt.After(cutoff) {
			continue
		}
		if err := s.cache.Delete(ctx, record.ID); err != nil {
			s.logger.Warn().Err(err).Str("document_id", record.ID).Msg("Failed to prune conversion record")
			continue
		}
		pruned++
	}

	if pruned > 0 {
		s.logger.Info().
			Int("pruned", pruned).
			Int("scanned", len(records)).
			Msg("Pruned stale conversion records")
	}

	return pruned, nil
}

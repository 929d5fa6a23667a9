package sweepers

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Pruner removes cached results older than a cutoff
type Pruner interface {
	PruneSniffResults(ctx context.Context, cutoff time.Time) (int64, error)
}

// ResultSweeper periodically evicts cached sniff results that have not been
// refreshed within the TTL
type ResultSweeper struct {
	store    Pruner
	logger   *zerolog.Logger
	interval time.Duration
	ttl      time.Duration
	now      func() time.Time
	stopChan chan struct{}
}

// NewResultSweeper creates a new sweeper for the result cache
func NewResultSweeper(store Pruner, logger *zerolog.Logger, interval, ttl time.Duration) *ResultSweeper {
	return &ResultSweeper{
		store:    store,
		logger:   logger,
		interval: interval,
		ttl:      ttl,
		now:      time.Now,
		stopChan: make(chan struct{}),
	}
}

// Start begins the periodic sweep
func (s *ResultSweeper) Start(ctx context.Context) {
	s.logger.Info().
		Dur("interval", s.interval).
		Dur("ttl", s.ttl).
		Msg("Starting result cache sweeper")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("Result cache sweeper stopping (context cancelled)")
			return
		case <-s.stopChan:
			s.logger.Info().Msg("Result cache sweeper stopping (stop signal)")
			return
		case <-ticker.C:
			if _, err := s.Sweep(ctx); err != nil {
				s.logger.Error().Err(err).Msg("Failed to prune result cache")
			}
		}
	}
}

// Stop signals the sweeper to stop
func (s *ResultSweeper) Stop() {
	close(s.stopChan)
}

// Sweep prunes once and returns the number of evicted results
func (s *ResultSweeper) Sweep(ctx context.Context) (int64, error) {
	cutoff := s.now().Add(-s.ttl)
	s.logger.Debug().Time("cutoff", cutoff).Msg("Pruning result cache")

	removed, err := s.store.PruneSniffResults(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		s.logger.Info().Int64("removed", removed).Msg("Pruned stale sniff results")
	}
	return removed, nil
}

package cart

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// DefaultPollInterval bounds how long two views of a cart may disagree.
const DefaultPollInterval = time.Second

// Syncer keeps the open stores of a Registry converged with storage. It runs
// two independent triggers over the same Load path: change notifications from
// a Feed, and a fixed-interval reconciliation poll that catches writes no
// notification reported.
type Syncer struct {
	registry *Registry
	feed     Feed
	interval time.Duration
	log      zerolog.Logger
}

func NewSyncer(registry *Registry, feed Feed, interval time.Duration, logger zerolog.Logger) *Syncer {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Syncer{
		registry: registry,
		feed:     feed,
		interval: interval,
		log:      logger,
	}
}

// Run blocks until ctx is done. A feed that cannot start or that closes early
// leaves the poll running on its own.
func (s *Syncer) Run(ctx context.Context) error {
	var changes <-chan string
	if s.feed != nil {
		ch, err := s.feed.Changes(ctx)
		if err != nil {
			s.log.Warn().Err(err).Msg("cart change feed unavailable, polling only")
		} else {
			changes = ch
		}
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.Info().Dur("interval", s.interval).Bool("feed", changes != nil).Msg("cart sync started")
	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("cart sync stopped")
			return nil
		case key, ok := <-changes:
			if !ok {
				if ctx.Err() == nil {
					s.log.Warn().Msg("cart change feed closed, polling only")
				}
				changes = nil
				continue
			}
			if s.registry.Invalidate(ctx, key) {
				s.log.Debug().Str("cart_key", key).Msg("cart invalidated by change notification")
			}
		case <-ticker.C:
			s.registry.Reconcile(ctx)
		}
	}
}

package sweeper

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/quotelink/quotelink/internal/auth"
	"github.com/quotelink/quotelink/internal/linktoken"
	"github.com/quotelink/quotelink/internal/ratelimit"
)

// Schedule is the cron spec for the cleanup pass.
const Schedule = "@every 10m"

const sweepTimeout = 30 * time.Second

// Sweeper periodically purges expired link tokens from the database and
// trims expired entries from the in-process counter stores.
type Sweeper struct {
	cron     *cron.Cron
	tokens   linktoken.Repository
	attempts *auth.MemoryAttemptStore
	rates    *ratelimit.MemoryStore
}

// New creates a Sweeper. attempts and rates may be nil when the
// corresponding store needs no local cleanup.
func New(tokens linktoken.Repository, attempts *auth.MemoryAttemptStore, rates *ratelimit.MemoryStore) *Sweeper {
	return &Sweeper{
		cron:     cron.New(),
		tokens:   tokens,
		attempts: attempts,
		rates:    rates,
	}
}

// Start registers the sweep job and starts the scheduler.
func (s *Sweeper) Start() error {
	if _, err := s.cron.AddFunc(Schedule, s.sweep); err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for an in-flight sweep to finish.
func (s *Sweeper) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Sweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	purged, err := s.tokens.PurgeExpired(ctx)
	if err != nil {
		slog.Error("failed to purge expired link tokens", "error", err)
	} else if purged > 0 {
		slog.Info("purged expired link tokens", "count", purged)
	}

	if s.attempts != nil {
		s.attempts.Sweep(time.Now())
	}
	if s.rates != nil {
		s.rates.Sweep()
	}
}

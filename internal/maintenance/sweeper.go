// Package maintenance runs the periodic housekeeping jobs of the service.
package maintenance

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/serroba/linkpulse/internal/shortener"
	"go.uber.org/zap"
)

// DefaultSchedule runs the sweep at the top of every hour.
const DefaultSchedule = "0 * * * *"

// Expirer removes links whose expiry is before a cutoff.
type Expirer interface {
	DeleteExpired(ctx context.Context, now time.Time) ([]*shortener.ShortLink, error)
}

// Pruner drops idle in-process state, such as rate-limit windows.
type Pruner interface {
	Sweep() int
}

// Scheduler deletes links that expired more than retention ago. The grace
// period keeps expiration fallbacks resolvable for a while after expiry.
type Scheduler struct {
	cron      *cron.Cron
	schedule  string
	links     Expirer
	pruners   []Pruner
	retention time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

// NewScheduler creates a scheduler over a standard five-field cron schedule.
func NewScheduler(
	schedule string, retention time.Duration, links Expirer, logger *zap.Logger, pruners ...Pruner,
) *Scheduler {
	return &Scheduler{
		cron:      cron.New(cron.WithParser(cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow))),
		schedule:  schedule,
		links:     links,
		pruners:   pruners,
		retention: retention,
		logger:    logger,
		now:       time.Now,
	}
}

// Start registers the sweep and starts the cron runner.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.schedule, func() { s.Run(ctx) }); err != nil {
		return fmt.Errorf("schedule sweep %q: %w", s.schedule, err)
	}

	s.cron.Start()
	s.logger.Info("maintenance scheduler started",
		zap.String("schedule", s.schedule),
		zap.Duration("retention", s.retention),
	)

	return nil
}

// Run performs one sweep.
func (s *Scheduler) Run(ctx context.Context) {
	cutoff := s.now().Add(-s.retention)

	removed, err := s.links.DeleteExpired(ctx, cutoff)
	if err != nil {
		s.logger.Error("expired link sweep failed", zap.Time("cutoff", cutoff), zap.Error(err))
	}

	for _, link := range removed {
		s.logger.Info("expired link removed",
			zap.String("id", link.ID),
			zap.String("code", string(link.Code)),
		)
	}

	for _, p := range s.pruners {
		if n := p.Sweep(); n > 0 {
			s.logger.Debug("idle state pruned", zap.Int("keys", n))
		}
	}
}

// Shutdown stops the runner and waits for a sweep in progress.
func (s *Scheduler) Shutdown() error {
	<-s.cron.Stop().Done()

	s.logger.Info("maintenance scheduler stopped")

	return nil
}

package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"inkognito/internal/observability/metrics"

	"github.com/go-co-op/gocron"
)

const purgeTag = "purge expired verification codes"

// VerificationPurger deletes verification codes that expired before now.
type VerificationPurger interface {
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

type Scheduler struct {
	cron    *gocron.Scheduler
	purger  VerificationPurger
	log     *slog.Logger
	timeout time.Duration
	now     func() time.Time
}

func NewScheduler(purger VerificationPurger, log *slog.Logger) *Scheduler {
	if log == nil {
		log = slog.Default()
	}
	return &Scheduler{
		cron:    gocron.NewScheduler(time.UTC),
		purger:  purger,
		log:     log.With("component", "jobs"),
		timeout: 30 * time.Second,
		now:     time.Now,
	}
}

// Start registers the purge job at the given interval and runs the
// scheduler in the background.
func (s *Scheduler) Start(interval time.Duration) error {
	minutes := int(interval / time.Minute)
	if minutes < 1 {
		return fmt.Errorf("purge interval %s is below one minute", interval)
	}
	if _, err := s.cron.Every(minutes).Minutes().Tag(purgeTag).Do(s.PurgeOnce); err != nil {
		return fmt.Errorf("schedule purge: %w", err)
	}
	s.cron.StartAsync()
	s.log.Info("maintenance scheduler started", "job", purgeTag, "every", interval)
	return nil
}

func (s *Scheduler) Stop() {
	s.cron.Stop()
}

// PurgeOnce runs a single purge pass.
func (s *Scheduler) PurgeOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	n, err := s.purger.PurgeExpired(ctx, s.now().UTC())
	if err != nil {
		metrics.PurgeRunsTotal.WithLabelValues("failure").Inc()
		s.log.Error("purge expired verification codes", "error", err)
		return
	}
	metrics.PurgeRunsTotal.WithLabelValues("success").Inc()
	if n > 0 {
		s.log.Info("purged expired verification codes", "count", n)
	}
}

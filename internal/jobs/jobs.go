// Package jobs runs periodic maintenance on a cron schedule.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const jobTimeout = time.Minute

// Expirer cancels bookings that were never answered before they started.
type Expirer interface {
	ExpireStalePending(ctx context.Context) (int64, error)
}

type Scheduler struct {
	cron *cron.Cron
	log  *zap.Logger
}

func NewScheduler(log *zap.Logger) *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithChain(cron.Recover(cron.DiscardLogger))),
		log:  log,
	}
}

// AddExpireStalePending registers the expiry job under spec, e.g. "@every 15m".
func (s *Scheduler) AddExpireStalePending(spec string, expirer Expirer) error {
	_, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		RunExpire(ctx, expirer, s.log)
	})
	if err != nil {
		return fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	return nil
}

// RunExpire is one run of the expiry job.
func RunExpire(ctx context.Context, expirer Expirer, log *zap.Logger) {
	log.Debug("Cron job: expiring stale pending bookings")
	n, err := expirer.ExpireStalePending(ctx)
	if err != nil {
		log.Error("Cron job failed", zap.String("job", "expire_stale_pending"), zap.Error(err))
		return
	}
	log.Info("Cron job finished", zap.String("job", "expire_stale_pending"), zap.Int64("expired", n))
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop waits for running jobs or until ctx ends.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}

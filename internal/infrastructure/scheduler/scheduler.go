package scheduler

import (
	"context"
	"time"

	"carbonprice-service/internal/application"

	"go.uber.org/zap"
)

var _ application.Worker = (*Scheduler)(nil)

// Scheduler drives the periodic price refresh. Every tick runs the fallback
// chain for the primary instrument independently of the HTTP cache window
// and persists the result. Ticks are independent: a failure is logged and
// the next tick proceeds on schedule.
type Scheduler struct {
	Service     *application.PriceService
	Every       time.Duration
	TickTimeout time.Duration
	Log         *zap.Logger
}

func (s *Scheduler) Start(ctx context.Context) {
	log := s.Log
	if log == nil {
		log = zap.NewNop()
	}
	if s.Every <= 0 {
		s.Every = time.Minute
	}
	if s.TickTimeout <= 0 {
		s.TickTimeout = 45 * time.Second
	}

	t := time.NewTicker(s.Every)
	defer t.Stop()

	log.Info("scheduler_started", zap.Duration("every", s.Every))
	for {
		select {
		case <-ctx.Done():
			log.Info("scheduler_stopped")
			return
		case <-t.C:
			s.tick(ctx, log)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context, log *zap.Logger) {
	tctx, cancel := context.WithTimeout(ctx, s.TickTimeout)
	defer cancel()
	if err := s.Service.ScheduledRefresh(tctx); err != nil {
		log.Warn("scheduled_refresh_failed", zap.Error(err))
		return
	}
	log.Info("scheduled_refresh_done")
}

// Package scheduler owns the periodic accrual trigger. The cron facility
// only fires the trigger; all idempotency and overlap protection lives in
// the accrual service (per-period run lock, per-investment period gate), so
// a duplicate or late firing is harmless.
package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/blackcnote/invest-api/internal/domain"
	"github.com/blackcnote/invest-api/internal/service"
)

// Scheduler drives the AccrualService on a cron spec.
type Scheduler struct {
	cron    *cron.Cron
	accrual *service.AccrualService
	logger  *zap.Logger
}

// New creates a scheduler. Cron times are interpreted in UTC to match the
// UTC-day accrual period.
func New(accrual *service.AccrualService, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		cron:    cron.New(cron.WithLocation(time.UTC)),
		accrual: accrual,
		logger:  logger,
	}
}

// Start registers the accrual job under spec and starts the cron loop.
func (s *Scheduler) Start(spec string) error {
	_, err := s.cron.AddFunc(spec, func() {
		s.logger.Info("accrual trigger fired")
		run, err := s.accrual.Run(context.Background(), time.Now())
		if err != nil {
			var locked *domain.ErrRunLocked
			if errors.As(err, &locked) {
				// Another node or a slow previous run holds the period.
				return
			}
			s.logger.Error("accrual run failed", zap.Error(err))
			return
		}
		if !run.Complete {
			s.logger.Warn("accrual run hit its budget, remaining investments resume next trigger",
				zap.String("period", run.Period),
				zap.Int("processed", run.Processed),
			)
		}
	})
	if err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

// Stop halts the cron loop and waits for a running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

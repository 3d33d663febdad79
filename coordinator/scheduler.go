package coordinator

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/absmach/federator/pkg/cron"
)

const DefRoundInterval = 30 * time.Second

// Scheduler periodically asks the service to start a round.
type Scheduler interface {
	Start(ctx context.Context) error
	Stop()
}

type SchedulerConfig struct {
	// Interval between ticks. Ignored when Schedule is set.
	Interval time.Duration
	// Schedule is an optional cron expression.
	Schedule string
	Timezone string
	// TriggerOnStart fires one tick as soon as Start runs.
	TriggerOnStart bool
}

type scheduler struct {
	svc      Service
	cfg      SchedulerConfig
	schedule *cron.Schedule
	logger   *slog.Logger

	stopOnce sync.Once
	stopChan chan struct{}
}

func NewScheduler(svc Service, cfg SchedulerConfig, logger *slog.Logger) (Scheduler, error) {
	s := &scheduler{
		svc:      svc,
		cfg:      cfg,
		logger:   logger,
		stopChan: make(chan struct{}),
	}
	if cfg.Schedule != "" {
		schedule, err := cron.Parse(cfg.Schedule, cfg.Timezone)
		if err != nil {
			return nil, err
		}
		s.schedule = schedule
	}
	if s.schedule == nil && s.cfg.Interval <= 0 {
		s.cfg.Interval = DefRoundInterval
	}

	return s, nil
}

func (s *scheduler) Start(ctx context.Context) error {
	s.logger.Info("round scheduler started",
		slog.String("interval", s.cfg.Interval.String()),
		slog.String("schedule", s.schedule.String()),
	)

	if s.cfg.TriggerOnStart {
		s.tick(ctx)
	}

	for {
		timer := time.NewTimer(s.wait(time.Now()))
		select {
		case <-ctx.Done():
			timer.Stop()
			s.logger.Info("round scheduler stopping")

			return ctx.Err()
		case <-s.stopChan:
			timer.Stop()
			s.logger.Info("round scheduler stopped")

			return nil
		case <-timer.C:
			s.tick(ctx)
		}
	}
}

func (s *scheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
	})
}

func (s *scheduler) wait(now time.Time) time.Duration {
	if s.schedule == nil {
		return s.cfg.Interval
	}
	d := s.schedule.Next(now).Sub(now)
	if d < 0 {
		return 0
	}

	return d
}

// tick starts a round if none is in flight. A busy coordinator skips the
// tick.
func (s *scheduler) tick(ctx context.Context) {
	r, err := s.svc.TriggerRound(ctx)
	switch {
	case errors.Is(err, ErrRoundInFlight):
		s.logger.Debug("scheduler tick skipped", slog.Uint64("round_id", r.ID), slog.String("state", r.State.String()))
	case err != nil:
		s.logger.Error("scheduler tick failed", slog.String("error", err.Error()))
	default:
		s.logger.Info("scheduler started round", slog.Uint64("round_id", r.ID))
	}
}

package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler runs RefreshAll on a cron schedule.
type Scheduler struct {
	cron    *cron.Cron
	service *Service
	ctx     context.Context
	cancel  context.CancelFunc
	logger  *slog.Logger
}

// NewScheduler registers the refresh job under spec, a standard 5-field cron
// expression. A run has no overall deadline; each location is bounded by the
// service's FetchTimeout, and Stop cancels a run that outlives shutdown.
func NewScheduler(svc *Service, spec string, logger *slog.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		cron:    cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		service: svc,
		ctx:     ctx,
		cancel:  cancel,
		logger:  logger.With("component", "weather-refresh"),
	}
	if _, err := s.cron.AddFunc(spec, s.runOnce); err != nil {
		cancel()
		return nil, fmt.Errorf("schedule weather refresh %q: %w", spec, err)
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("weather refresh scheduled", "next", s.Next())
}

// Stop stops scheduling and waits for a running refresh to finish. When ctx
// ends first the running refresh is cancelled.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.logger.Warn("weather refresh still running at shutdown, cancelling")
	}
	s.cancel()
}

// Next is the time of the next scheduled run, zero before Start.
func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

func (s *Scheduler) runOnce() {
	if _, err := s.service.RefreshAll(s.ctx); err != nil {
		s.logger.Warn("scheduled weather refresh had failures", "error", err)
	}
}

package scheduler

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/elonfeng/nicheradar/pkg/trend"
)

// Runner executes one aggregation pass.
type Runner interface {
	Run(ctx context.Context) (*trend.Result, error)
}

// Scheduler re-runs the pipeline on a fixed interval.
type Scheduler struct {
	runner   Runner
	interval time.Duration
	log      *log.Logger
}

// New creates a new scheduler. A non-positive interval defaults to 6h.
func New(runner Runner, interval time.Duration, logger *log.Logger) *Scheduler {
	if interval <= 0 {
		interval = 6 * time.Hour
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Scheduler{
		runner:   runner,
		interval: interval,
		log:      logger,
	}
}

// Run starts the scheduler loop. Blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// Run immediately on start.
	s.log.Info("scheduler: initial run")
	s.runOnce(ctx)

	s.log.Info("scheduler: running", "every", s.interval)

	for {
		select {
		case <-ctx.Done():
			s.log.Info("scheduler: stopped")
			return ctx.Err()
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	start := time.Now()
	res, err := s.runner.Run(ctx)
	if err != nil {
		if ctx.Err() == nil {
			s.log.Error("scheduled run failed", "err", err)
		}
		return
	}
	s.log.Info("scheduled run done", "run", res.RunID, "items", len(res.Items), "took", time.Since(start).Round(time.Millisecond))
}

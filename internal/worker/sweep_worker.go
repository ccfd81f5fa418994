package worker

import (
	"fmt"
	"strconv"
	"time"

	"github.com/dustin/movie-recommender/config"
	"github.com/dustin/movie-recommender/pkg/logger"
	"github.com/robfig/cron/v3"
)

// Sweeper removes stale entries and reports how many it dropped
type Sweeper interface {
	Sweep() int
}

// SweepFunc adapts a plain function to Sweeper
type SweepFunc func() int

func (f SweepFunc) Sweep() int { return f() }

// SweepWorker periodically evicts expired feed windows and idle rate limiters
type SweepWorker struct {
	cron     *cron.Cron
	sweepers map[string]Sweeper
	interval time.Duration
	logger   *logger.Logger
	entryID  cron.EntryID
}

// NewSweepWorker creates a cron-scheduled worker with validation and defaults
func NewSweepWorker(cfg *config.WorkerConfig, sweepers map[string]Sweeper, log *logger.Logger) (*SweepWorker, error) {
	interval := 5 * time.Minute
	if cfg != nil && cfg.CacheSweepInterval != "" {
		duration, err := time.ParseDuration(cfg.CacheSweepInterval)
		if err != nil {
			return nil, fmt.Errorf("invalid cache sweep interval '%s': %v", cfg.CacheSweepInterval, err)
		}
		if duration < time.Second {
			return nil, fmt.Errorf("cache sweep interval must be at least 1s, got %v", duration)
		}
		interval = duration
	}

	return &SweepWorker{
		cron:     cron.New(),
		sweepers: sweepers,
		interval: interval,
		logger:   log.WithComponent("sweep-worker"),
	}, nil
}

// Start schedules the sweep and begins the cron loop
func (w *SweepWorker) Start() error {
	expr := w.schedule()
	w.logger.Info(fmt.Sprintf("Starting sweep worker (every %v)", w.interval))

	entryID, err := w.cron.AddFunc(expr, func() { w.RunOnce() })
	if err != nil {
		w.logger.Error("Failed to schedule sweep worker: " + err.Error())
		return err
	}

	w.entryID = entryID
	w.cron.Start()
	return nil
}

// RunOnce runs every sweeper and returns the total number of removed entries
func (w *SweepWorker) RunOnce() int {
	fields := logger.Fields{}
	total := 0
	for name, s := range w.sweepers {
		removed := s.Sweep()
		fields[name] = removed
		total += removed
	}

	if total > 0 {
		w.logger.InfoFields("Sweep removed "+strconv.Itoa(total)+" entries", fields)
	} else {
		w.logger.Debug("Sweep found nothing to remove")
	}
	return total
}

// Stop gracefully shuts down the worker, waiting for a running sweep
func (w *SweepWorker) Stop() error {
	w.logger.Info("Stopping sweep worker")

	if w.entryID > 0 {
		w.cron.Remove(w.entryID)
	}

	ctx := w.cron.Stop()
	<-ctx.Done()

	w.logger.Info("Sweep worker stopped")
	return nil
}

// IsRunning checks if the worker has active cron entries
func (w *SweepWorker) IsRunning() bool {
	return len(w.cron.Entries()) > 0
}

// schedule converts the interval to a cron expression, using @every when it does not
// divide an hour or a day evenly
func (w *SweepWorker) schedule() string {
	minutes := int(w.interval.Minutes())
	hours := int(w.interval.Hours())

	if w.interval%time.Minute == 0 {
		if hours > 0 && minutes%60 == 0 && 24%hours == 0 {
			return fmt.Sprintf("0 */%d * * *", hours)
		}
		if minutes > 0 && minutes < 60 && 60%minutes == 0 {
			return fmt.Sprintf("*/%d * * * *", minutes)
		}
	}
	return "@every " + w.interval.String()
}

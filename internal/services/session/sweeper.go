package session

import (
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog"
)

// Sweeper runs purge jobs on a fixed interval.
type Sweeper struct {
	interval time.Duration
	cron     *gocron.Scheduler
	log      zerolog.Logger
}

// NewSweeper returns a stopped Sweeper.
func NewSweeper(interval time.Duration, log zerolog.Logger) *Sweeper {
	cron := gocron.NewScheduler(time.UTC)
	cron.SingletonModeAll()
	return &Sweeper{interval: interval, cron: cron, log: log}
}

// Register schedules fn under name. fn returns how many entries it purged.
func (s *Sweeper) Register(name string, fn func() int) error {
	if s.interval <= 0 {
		return fmt.Errorf("sweeper %s: interval must be positive, got %s", name, s.interval)
	}
	_, err := s.cron.Every(s.interval).Do(func() {
		if n := fn(); n > 0 {
			s.log.Info().Str("job", name).Int("purged", n).Msg("sweep")
		}
	})
	if err != nil {
		return fmt.Errorf("sweeper %s: %w", name, err)
	}
	return nil
}

// Start runs the scheduler in the background.
func (s *Sweeper) Start() { s.cron.StartAsync() }

// Stop halts the scheduler. Running jobs are not interrupted.
func (s *Sweeper) Stop() { s.cron.Stop() }

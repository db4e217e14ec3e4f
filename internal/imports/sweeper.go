package imports

import (
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
)

// Sweeper periodically evicts log buffers of tasks that have no live worker
// and have not been written to within the retention window
type Sweeper struct {
	buffer    *LogBuffer
	isLive    func(taskID string) bool
	retention time.Duration
	schedule  string
	cron      *cron.Cron
	logger    arbor.ILogger
}

// NewSweeper creates a sweeper for the given cron schedule
func NewSweeper(buffer *LogBuffer, isLive func(taskID string) bool, retention time.Duration, schedule string, logger arbor.ILogger) *Sweeper {
	return &Sweeper{
		buffer:    buffer,
		isLive:    isLive,
		retention: retention,
		schedule:  schedule,
		cron:      cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger))),
		logger:    logger,
	}
}

// Start registers the sweep and starts the scheduler
func (s *Sweeper) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, func() {
		s.Sweep()
	}); err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info().
		Str("schedule", s.schedule).
		Dur("retention", s.retention).
		Msg("Log buffer sweeper started")

	return nil
}

// Stop stops the scheduler and waits for a running sweep
func (s *Sweeper) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info().Msg("Log buffer sweeper stopped")
}

// Sweep runs one eviction pass and returns the evicted task ids
func (s *Sweeper) Sweep() []string {
	evicted := s.buffer.Evict(s.retention, s.isLive)
	if len(evicted) > 0 {
		s.logger.Info().
			Int("evicted", len(evicted)).
			Strs("task_ids", evicted).
			Msg("Evicted idle log buffers")
	}
	return evicted
}

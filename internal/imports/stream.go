package imports

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/adimport/internal/interfaces"
	"github.com/ternarybob/adimport/internal/models"
	"github.com/ternarybob/arbor"
)

// Sink receives rendered log lines for one stream connection
type Sink interface {
	Send(line string) error
}

// SinkFunc adapts a function to Sink
type SinkFunc func(line string) error

func (f SinkFunc) Send(line string) error {
	return f(line)
}

// Streamer drains a task's log buffer to a sink at a fixed tick until the
// task reaches a terminal entry or its cancellation signal is seen.
// A task that never terminates and is never cancelled streams until the
// client goes away.
type Streamer struct {
	buffer  *LogBuffer
	signals interfaces.CancellationStore
	isLive  func(taskID string) bool
	tick    time.Duration
	logger  arbor.ILogger
}

// NewStreamer creates a streamer. isLive reports whether a worker for the
// task is still running in this process; such a worker clears its own signal.
func NewStreamer(buffer *LogBuffer, signals interfaces.CancellationStore, isLive func(taskID string) bool, tick time.Duration, logger arbor.ILogger) *Streamer {
	if isLive == nil {
		isLive = func(string) bool { return false }
	}
	return &Streamer{
		buffer:  buffer,
		signals: signals,
		isLive:  isLive,
		tick:    tick,
		logger:  logger,
	}
}

// Tick returns the drain interval
func (s *Streamer) Tick() time.Duration {
	return s.tick
}

// Stream runs the drain loop. It returns nil after sending the stream
// finished line, ctx's error when the client disconnects, or the sink's error.
func (s *Streamer) Stream(ctx context.Context, taskID string, sink Sink) error {
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	started := time.Now()
	cursor := 0
	sent := 0

	for {
		if err := ctx.Err(); err != nil {
			s.logDisconnect(taskID, sent, started, err)
			return err
		}

		finished := false
		for _, entry := range s.buffer.Since(taskID, cursor) {
			if err := sink.Send(entry.String()); err != nil {
				return fmt.Errorf("failed to send log line: %w", err)
			}
			cursor++
			sent++
			if entry.Status.IsTerminal() {
				finished = true
			}
		}

		cancelled := s.cancellationRequested(ctx, taskID)
		if finished || cancelled {
			if cancelled {
				if err := sink.Send(models.NewLogEntry("🛑 Import cancelled by user", models.TaskStatusCancelled).String()); err != nil {
					return fmt.Errorf("failed to send log line: %w", err)
				}
				s.release(ctx, taskID)
			}
			break
		}

		select {
		case <-ctx.Done():
			s.logDisconnect(taskID, sent, started, ctx.Err())
			return ctx.Err()
		case <-ticker.C:
		}
	}

	if err := sink.Send(models.NewLogEntry("📴 Log stream finished", models.TaskStatusRunning).String()); err != nil {
		return fmt.Errorf("failed to send log line: %w", err)
	}

	s.logger.Debug().
		Str("task_id", taskID).
		Int("lines", sent).
		Dur("duration", time.Since(started)).
		Msg("Log stream finished")

	return nil
}

// cancellationRequested fails open: a read error is logged and treated as not cancelled
func (s *Streamer) cancellationRequested(ctx context.Context, taskID string) bool {
	set, err := s.signals.IsSet(ctx, taskID)
	if err != nil {
		s.logger.Warn().Err(err).Str("task_id", taskID).Msg("Failed to read cancellation signal, stream continues")
		return false
	}
	return set
}

// release clears the buffer and, when no local worker will do it, the signal
func (s *Streamer) release(ctx context.Context, taskID string) {
	s.buffer.Clear(taskID)

	if s.isLive(taskID) {
		return
	}
	if err := s.signals.Clear(ctx, taskID); err != nil {
		s.logger.Warn().Err(err).Str("task_id", taskID).Msg("Failed to clear cancellation signal")
	}
}

func (s *Streamer) logDisconnect(taskID string, sent int, started time.Time, err error) {
	s.logger.Debug().
		Str("task_id", taskID).
		Int("lines", sent).
		Dur("duration", time.Since(started)).
		Str("reason", err.Error()).
		Msg("Log stream client disconnected")
}

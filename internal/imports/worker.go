package imports

import (
	"context"
	"fmt"

	"github.com/ternarybob/adimport/internal/interfaces"
	"github.com/ternarybob/adimport/internal/models"
	"github.com/ternarybob/arbor"
)

// Worker processes one task's items sequentially and reports progress as
// messages on its channel. It never returns an error to its launcher: faults
// become an error message, and the channel is closed when Run returns.
type Worker struct {
	task      models.ImportTask
	processor ItemProcessor
	signals   interfaces.CancellationStore
	out       chan<- models.WorkerMessage
	logger    arbor.ILogger
}

// NewWorker creates a worker bound to a task
func NewWorker(task models.ImportTask, processor ItemProcessor, signals interfaces.CancellationStore, out chan<- models.WorkerMessage, logger arbor.ILogger) *Worker {
	return &Worker{
		task:      task,
		processor: processor,
		signals:   signals,
		out:       out,
		logger:    logger,
	}
}

// Run executes the import loop
func (w *Worker) Run(ctx context.Context) {
	defer close(w.out)
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error().
				Str("panic", fmt.Sprintf("%v", r)).
				Msg("Import worker panic recovered")
			w.out <- models.WorkerMessage{
				Kind: models.WorkerMessageError,
				Err:  fmt.Errorf("worker panic: %v", r),
			}
		}
	}()

	total := len(w.task.Items)

	w.emit(fmt.Sprintf("🚀 Worker started for business %s (task %s)", w.task.BusinessID, w.task.TaskID), models.TaskStatusRunning)
	if w.task.MaxAds != nil {
		w.emit(fmt.Sprintf("📦 Total items: %d (max ads: %d)", total, *w.task.MaxAds), models.TaskStatusRunning)
	} else {
		w.emit(fmt.Sprintf("📦 Total items: %d", total), models.TaskStatusRunning)
	}

	saved, failed := 0, 0
	cancelled := false

	for i, item := range w.task.Items {
		position := i + 1

		if w.cancellationRequested(ctx) {
			w.emit(fmt.Sprintf("🛑 Cancellation requested, stopped at item %d of %d", position, total), models.TaskStatusRunning)
			if err := w.signals.Clear(ctx, w.task.TaskID); err != nil {
				w.logger.Warn().Err(err).Msg("Failed to clear cancellation signal")
			}
			cancelled = true
			break
		}

		if err := ctx.Err(); err != nil {
			w.fail(fmt.Errorf("interrupted before item %d of %d: %w", position, total, err))
			return
		}

		w.emit(fmt.Sprintf("⏳ Processing item %d of %d", position, total), models.TaskStatusRunning)

		if err := w.processor.Process(ctx, w.task, i, item); err != nil {
			failed++
			w.logger.Debug().Err(err).Int("item", position).Msg("Import item failed")
			w.emit(fmt.Sprintf("⚠️ Item %d failed: %v", position, err), models.TaskStatusRunning)
			continue
		}

		saved++
		w.emit(fmt.Sprintf("✔️ Finished item %d", position), models.TaskStatusRunning)
	}

	outcome := models.TaskStatusCancelled
	if !cancelled {
		outcome = models.TaskStatusCompleted
		w.emit(fmt.Sprintf("✅ Import complete for business %s: %d items processed (%d saved, %d failed)",
			w.task.BusinessID, total, saved, failed), models.TaskStatusRunning)
	}

	w.logger.Info().
		Str("outcome", string(outcome)).
		Int("saved", saved).
		Int("failed", failed).
		Msg("Import worker finished")

	w.emit("👋 Worker shutting down", outcome)
	w.out <- models.WorkerMessage{Kind: models.WorkerMessageDone}
}

// cancellationRequested checks the signal; a read failure counts as not cancelled
func (w *Worker) cancellationRequested(ctx context.Context) bool {
	set, err := w.signals.IsSet(ctx, w.task.TaskID)
	if err != nil {
		w.logger.Warn().Err(err).Msg("Failed to read cancellation signal, continuing")
		return false
	}
	return set
}

func (w *Worker) emit(text string, status models.TaskStatus) {
	w.out <- models.WorkerMessage{
		Kind:  models.WorkerMessageLog,
		Entry: models.NewLogEntry(text, status),
	}
}

func (w *Worker) fail(err error) {
	w.out <- models.WorkerMessage{
		Kind: models.WorkerMessageError,
		Err:  err,
	}
}

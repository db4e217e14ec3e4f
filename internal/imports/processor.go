package imports

import (
	"context"
	"time"

	"github.com/ternarybob/adimport/internal/models"
)

// ItemProcessor performs the per-item work of an import.
// An item's work is never interrupted by a cancellation request; the worker
// only checks the signal between items.
type ItemProcessor interface {
	Process(ctx context.Context, task models.ImportTask, index int, item models.ImportItem) error
}

// ProcessorFunc adapts a function to ItemProcessor
type ProcessorFunc func(ctx context.Context, task models.ImportTask, index int, item models.ImportItem) error

func (f ProcessorFunc) Process(ctx context.Context, task models.ImportTask, index int, item models.ImportItem) error {
	return f(ctx, task, index, item)
}

// DelayProcessor simulates a fixed per-item workload
type DelayProcessor struct {
	Delay time.Duration
}

// Process waits for the configured delay, returning early only if ctx ends
func (p DelayProcessor) Process(ctx context.Context, task models.ImportTask, index int, item models.ImportItem) error {
	if p.Delay <= 0 {
		return nil
	}

	timer := time.NewTimer(p.Delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

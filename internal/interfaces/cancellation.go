package interfaces

import "context"

// CancellationStore holds the durable per-task cancellation flag.
// Implementations must make a Request visible to a worker running in another
// execution context, and every operation must be safe for ids with no record.
type CancellationStore interface {
	// Request sets the signal for taskID. Setting an already-set signal is a no-op.
	Request(ctx context.Context, taskID string) error

	// IsSet reports whether a cancellation was requested for taskID
	IsSet(ctx context.Context, taskID string) (bool, error)

	// Clear removes the signal. Clearing an absent signal is a no-op.
	Clear(ctx context.Context, taskID string) error

	// Pending lists task ids whose signal is currently set
	Pending(ctx context.Context) ([]string, error)
}

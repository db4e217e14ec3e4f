package badger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/adimport/internal/interfaces"
	"github.com/ternarybob/arbor"
)

// cancelKeyPrefix namespaces cancellation signals inside the KV store
const cancelKeyPrefix = "cancel:"

// CancelStorage implements CancellationStore on top of the Badger KV storage.
// Signals survive restarts and are visible to every goroutine of this process.
// Badger holds an exclusive directory lock, so a second OS process cannot
// open the same store: use the filesystem backend for that deployment shape.
type CancelStorage struct {
	kv     interfaces.KeyValueStorage
	logger arbor.ILogger
}

// NewCancelStorage creates a KV-backed cancellation store
func NewCancelStorage(kv interfaces.KeyValueStorage, logger arbor.ILogger) interfaces.CancellationStore {
	return &CancelStorage{
		kv:     kv,
		logger: logger,
	}
}

func cancelKey(taskID string) string {
	return cancelKeyPrefix + taskID
}

// Request sets the cancellation signal
func (s *CancelStorage) Request(ctx context.Context, taskID string) error {
	if err := s.kv.Set(ctx, cancelKey(taskID), time.Now().Format(time.RFC3339Nano), "import cancellation requested"); err != nil {
		return fmt.Errorf("failed to set cancellation signal for %s: %w", taskID, err)
	}
	return nil
}

// IsSet reports whether the signal is present
func (s *CancelStorage) IsSet(ctx context.Context, taskID string) (bool, error) {
	_, err := s.kv.Get(ctx, cancelKey(taskID))
	if errors.Is(err, interfaces.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read cancellation signal for %s: %w", taskID, err)
	}
	return true, nil
}

// Clear removes the signal; absent signals are not an error
func (s *CancelStorage) Clear(ctx context.Context, taskID string) error {
	err := s.kv.Delete(ctx, cancelKey(taskID))
	if err != nil && !errors.Is(err, interfaces.ErrKeyNotFound) {
		return fmt.Errorf("failed to clear cancellation signal for %s: %w", taskID, err)
	}
	return nil
}

// Pending lists task ids with a set signal
func (s *CancelStorage) Pending(ctx context.Context) ([]string, error) {
	pairs, err := s.kv.ListByPrefix(ctx, cancelKeyPrefix)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(pairs))
	for _, pair := range pairs {
		ids = append(ids, strings.TrimPrefix(pair.Key, cancelKeyPrefix))
	}
	return ids, nil
}

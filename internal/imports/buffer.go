package imports

import (
	"sync"
	"time"

	"github.com/ternarybob/adimport/internal/models"
)

// taskLog is the entry sequence of one task plus its last write time
type taskLog struct {
	entries   []models.LogEntry
	updatedAt time.Time
}

// LogBuffer maps task ids to their ordered, append-only progress entries.
// It is process-local: the worker that writes a task's entries and the
// stream that reads them must live in the same process.
type LogBuffer struct {
	mu    sync.RWMutex
	tasks map[string]*taskLog
}

// NewLogBuffer creates an empty buffer
func NewLogBuffer() *LogBuffer {
	return &LogBuffer{
		tasks: make(map[string]*taskLog),
	}
}

// Append adds an entry, creating the task's sequence on first write
func (b *LogBuffer) Append(taskID string, entry models.LogEntry) {
	b.mu.Lock()
	defer b.mu.Unlock()

	log, ok := b.tasks[taskID]
	if !ok {
		log = &taskLog{}
		b.tasks[taskID] = log
	}
	log.entries = append(log.entries, entry)
	log.updatedAt = time.Now()
}

// Since returns a copy of the entries from cursor to the current end.
// Unknown tasks and cursors at or past the end yield nil.
func (b *LogBuffer) Since(taskID string, cursor int) []models.LogEntry {
	b.mu.RLock()
	defer b.mu.RUnlock()

	log, ok := b.tasks[taskID]
	if !ok || cursor >= len(log.entries) {
		return nil
	}
	if cursor < 0 {
		cursor = 0
	}

	out := make([]models.LogEntry, len(log.entries)-cursor)
	copy(out, log.entries[cursor:])
	return out
}

// Len returns the number of entries held for a task
func (b *LogBuffer) Len(taskID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if log, ok := b.tasks[taskID]; ok {
		return len(log.entries)
	}
	return 0
}

// Clear drops a task's entries. Clearing an unknown task is a no-op.
func (b *LogBuffer) Clear(taskID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.tasks, taskID)
}

// Tasks returns the ids of every task with buffered entries
func (b *LogBuffer) Tasks() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	ids := make([]string, 0, len(b.tasks))
	for id := range b.tasks {
		ids = append(ids, id)
	}
	return ids
}

// Evict drops tasks whose last write is older than olderThan, skipping those
// for which keep returns true. Returns the evicted ids.
func (b *LogBuffer) Evict(olderThan time.Duration, keep func(taskID string) bool) []string {
	cutoff := time.Now().Add(-olderThan)

	b.mu.Lock()
	defer b.mu.Unlock()

	var evicted []string
	for id, log := range b.tasks {
		if !log.updatedAt.Before(cutoff) {
			continue
		}
		if keep != nil && keep(id) {
			continue
		}
		delete(b.tasks, id)
		evicted = append(evicted, id)
	}
	return evicted
}

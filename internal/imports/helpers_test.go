package imports

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/ternarybob/adimport/internal/models"
)

// memorySignals is an in-process CancellationStore for tests
type memorySignals struct {
	mu  sync.Mutex
	set map[string]bool
}

func newMemorySignals() *memorySignals {
	return &memorySignals{set: make(map[string]bool)}
}

func (m *memorySignals) Request(ctx context.Context, taskID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.set[taskID] = true
	return nil
}

func (m *memorySignals) IsSet(ctx context.Context, taskID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.set[taskID], nil
}

func (m *memorySignals) Clear(ctx context.Context, taskID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.set, taskID)
	return nil
}

func (m *memorySignals) Pending(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.set))
	for id := range m.set {
		ids = append(ids, id)
	}
	return ids, nil
}

// mockSignals is a testify mock of CancellationStore
type mockSignals struct {
	mock.Mock
}

func (m *mockSignals) Request(ctx context.Context, taskID string) error {
	return m.Called(ctx, taskID).Error(0)
}

func (m *mockSignals) IsSet(ctx context.Context, taskID string) (bool, error) {
	args := m.Called(ctx, taskID)
	return args.Bool(0), args.Error(1)
}

func (m *mockSignals) Clear(ctx context.Context, taskID string) error {
	return m.Called(ctx, taskID).Error(0)
}

func (m *mockSignals) Pending(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	return args.Get(0).([]string), args.Error(1)
}

// lineRecorder is a concurrency-safe Sink
type lineRecorder struct {
	mu    sync.Mutex
	lines []string
}

func (r *lineRecorder) Send(line string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = append(r.lines, line)
	return nil
}

// texts returns the recorded lines without their "[HH:MM:SS] " prefix
func (r *lineRecorder) texts() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return stripTimestamps(r.lines)
}

func stripTimestamps(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if idx := strings.Index(line, "] "); idx >= 0 {
			line = line[idx+2:]
		}
		out = append(out, line)
	}
	return out
}

// drain collects every message until the worker closes its channel
func drain(t *testing.T, messages <-chan models.WorkerMessage) []models.WorkerMessage {
	t.Helper()
	var out []models.WorkerMessage
	for msg := range messages {
		out = append(out, msg)
	}
	return out
}

func logTexts(messages []models.WorkerMessage) []string {
	var out []string
	for _, msg := range messages {
		if msg.Kind == models.WorkerMessageLog {
			out = append(out, msg.Entry.Text)
		}
	}
	return out
}

func items(n int) []models.ImportItem {
	out := make([]models.ImportItem, n)
	for i := range out {
		out[i] = models.ImportItem(`{}`)
	}
	return out
}

func countContaining(lines []string, substr string) int {
	n := 0
	for _, line := range lines {
		if strings.Contains(line, substr) {
			n++
		}
	}
	return n
}

func entryTexts(entries []models.LogEntry) []string {
	out := make([]string, 0, len(entries))
	for _, entry := range entries {
		out = append(out, entry.Text)
	}
	return out
}

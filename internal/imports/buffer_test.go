package imports

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/adimport/internal/models"
)

func TestLogBuffer_UnknownTaskIsEmpty(t *testing.T) {
	buffer := NewLogBuffer()

	assert.Empty(t, buffer.Since("never-submitted", 0))
	assert.Zero(t, buffer.Len("never-submitted"))
	buffer.Clear("never-submitted")
}

func TestLogBuffer_CursorReads(t *testing.T) {
	buffer := NewLogBuffer()
	for _, text := range []string{"a", "b", "c"} {
		buffer.Append("t1", models.NewLogEntry(text, models.TaskStatusRunning))
	}

	all := buffer.Since("t1", 0)
	require.Len(t, all, 3)
	assert.Equal(t, "a", all[0].Text)
	assert.Equal(t, "c", all[2].Text)

	tail := buffer.Since("t1", 2)
	require.Len(t, tail, 1)
	assert.Equal(t, "c", tail[0].Text)

	assert.Empty(t, buffer.Since("t1", 3))
	assert.Len(t, buffer.Since("t1", -1), 3)

	// Reads are non-destructive copies
	tail[0].Text = "mutated"
	assert.Equal(t, "c", buffer.Since("t1", 2)[0].Text)

	buffer.Clear("t1")
	assert.Zero(t, buffer.Len("t1"))
}

func TestLogBuffer_ConcurrentWriterAndReader(t *testing.T) {
	buffer := NewLogBuffer()
	const total = 500

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < total; i++ {
			buffer.Append("t1", models.NewLogEntry("line", models.TaskStatusRunning))
		}
	}()

	cursor := 0
	for cursor < total {
		cursor += len(buffer.Since("t1", cursor))
	}
	wg.Wait()

	assert.Equal(t, total, buffer.Len("t1"))
}

func TestLogBuffer_Evict(t *testing.T) {
	buffer := NewLogBuffer()
	buffer.Append("idle", models.NewLogEntry("x", models.TaskStatusCompleted))
	buffer.Append("live", models.NewLogEntry("x", models.TaskStatusRunning))

	evicted := buffer.Evict(time.Hour, nil)
	assert.Empty(t, evicted)

	time.Sleep(2 * time.Millisecond)

	evicted = buffer.Evict(time.Millisecond, func(taskID string) bool { return taskID == "live" })
	assert.Equal(t, []string{"idle"}, evicted)
	assert.Zero(t, buffer.Len("idle"))
	assert.Equal(t, 1, buffer.Len("live"))
	assert.ElementsMatch(t, []string{"live"}, buffer.Tasks())
}

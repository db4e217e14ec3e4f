package imports

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/adimport/internal/models"
	"github.com/ternarybob/arbor"
)

const testTick = 10 * time.Millisecond

func TestStream_CompletedImport(t *testing.T) {
	launcher, buffer, signals := newTestLauncher(t, DelayProcessor{})
	streamer := NewStreamer(buffer, signals, launcher.IsLive, testTick, arbor.NewLogger())

	_, err := launcher.Submit(context.Background(), &models.ImportRequest{TaskID: "t1", BusinessID: "b1", Items: items(2)})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sink := &lineRecorder{}
	require.NoError(t, streamer.Stream(ctx, "t1", sink))

	assert.Equal(t, []string{
		"🚀 Worker started for business b1 (task t1)",
		"📦 Total items: 2",
		"⏳ Processing item 1 of 2",
		"✔️ Finished item 1",
		"⏳ Processing item 2 of 2",
		"✔️ Finished item 2",
		"✅ Import complete for business b1: 2 items processed (2 saved, 0 failed)",
		"👋 Worker shutting down",
		"📴 Log stream finished",
	}, sink.texts())

	for _, line := range sink.lines {
		assert.Regexp(t, `^\[\d{2}:\d{2}:\d{2}\] `, line)
	}
}

func TestStream_CancelledWhileItemRuns(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	processor := ProcessorFunc(func(ctx context.Context, task models.ImportTask, index int, item models.ImportItem) error {
		if index == 0 {
			close(started)
			<-release
		}
		return nil
	})
	launcher, buffer, signals := newTestLauncher(t, processor)
	streamer := NewStreamer(buffer, signals, launcher.IsLive, testTick, arbor.NewLogger())

	_, err := launcher.Submit(context.Background(), &models.ImportRequest{TaskID: "t2", BusinessID: "b1", Items: items(3)})
	require.NoError(t, err)
	<-started
	require.Eventually(t, func() bool { return buffer.Len("t2") == 3 }, 2*time.Second, time.Millisecond)

	_, err = launcher.Cancel(context.Background(), &models.CancelRequest{TaskID: "t2"})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sink := &lineRecorder{}
	require.NoError(t, streamer.Stream(ctx, "t2", sink))

	assert.Equal(t, []string{
		"🚀 Worker started for business b1 (task t2)",
		"📦 Total items: 3",
		"⏳ Processing item 1 of 3",
		"🛑 Import cancelled by user",
		"📴 Log stream finished",
	}, sink.texts())

	// The live worker keeps the signal and acknowledges it at its next boundary
	close(release)
	require.Eventually(t, func() bool { return !launcher.IsLive("t2") }, 2*time.Second, 5*time.Millisecond)

	set, err := signals.IsSet(context.Background(), "t2")
	require.NoError(t, err)
	assert.False(t, set)

	var texts []string
	for _, entry := range buffer.Since("t2", 0) {
		texts = append(texts, entry.Text)
	}
	assert.Contains(t, texts, "🛑 Cancellation requested, stopped at item 2 of 3")
	assert.Zero(t, countContaining(texts, "✅"))
}

func TestStream_OrphanedSignalIsCleared(t *testing.T) {
	buffer := NewLogBuffer()
	signals := newMemorySignals()
	streamer := NewStreamer(buffer, signals, nil, testTick, arbor.NewLogger())

	buffer.Append("t-orphan", models.NewLogEntry("⏳ Processing item 1 of 2", models.TaskStatusRunning))
	require.NoError(t, signals.Request(context.Background(), "t-orphan"))

	sink := &lineRecorder{}
	require.NoError(t, streamer.Stream(context.Background(), "t-orphan", sink))

	assert.Equal(t, []string{
		"⏳ Processing item 1 of 2",
		"🛑 Import cancelled by user",
		"📴 Log stream finished",
	}, sink.texts())
	assert.Zero(t, buffer.Len("t-orphan"))

	set, err := signals.IsSet(context.Background(), "t-orphan")
	require.NoError(t, err)
	assert.False(t, set)
}

func TestStream_UnknownTaskRunsUntilClientLeaves(t *testing.T) {
	streamer := NewStreamer(NewLogBuffer(), newMemorySignals(), nil, testTick, arbor.NewLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()

	sink := &lineRecorder{}
	err := streamer.Stream(ctx, "never-submitted", sink)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Empty(t, sink.texts())
}

func TestStream_SignalReadErrorFailsOpen(t *testing.T) {
	buffer := NewLogBuffer()
	signals := &mockSignals{}
	signals.On("IsSet", mock.Anything, "t-err").Return(false, errors.New("store unavailable"))
	streamer := NewStreamer(buffer, signals, nil, testTick, arbor.NewLogger())

	buffer.Append("t-err", models.NewLogEntry("⏳ Processing item 1 of 1", models.TaskStatusRunning))
	go func() {
		time.Sleep(5 * testTick)
		buffer.Append("t-err", models.NewLogEntry("👋 Worker shutting down", models.TaskStatusCompleted))
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sink := &lineRecorder{}
	require.NoError(t, streamer.Stream(ctx, "t-err", sink))

	assert.Equal(t, []string{
		"⏳ Processing item 1 of 1",
		"👋 Worker shutting down",
		"📴 Log stream finished",
	}, sink.texts())
	signals.AssertNotCalled(t, "Clear", mock.Anything, mock.Anything)
}

func TestStream_FailedWorkerEndsStream(t *testing.T) {
	buffer := NewLogBuffer()
	streamer := NewStreamer(buffer, newMemorySignals(), nil, testTick, arbor.NewLogger())

	buffer.Append("t-fail", models.NewLogEntry("❌ Worker error: worker panic: boom", models.TaskStatusFailed))

	sink := &lineRecorder{}
	require.NoError(t, streamer.Stream(context.Background(), "t-fail", sink))
	assert.Equal(t, []string{"❌ Worker error: worker panic: boom", "📴 Log stream finished"}, sink.texts())
}

func TestStream_SinkErrorStopsStream(t *testing.T) {
	buffer := NewLogBuffer()
	streamer := NewStreamer(buffer, newMemorySignals(), nil, testTick, arbor.NewLogger())
	buffer.Append("t1", models.NewLogEntry("line", models.TaskStatusRunning))

	broken := errors.New("broken pipe")
	err := streamer.Stream(context.Background(), "t1", SinkFunc(func(string) error { return broken }))
	assert.ErrorIs(t, err, broken)
}

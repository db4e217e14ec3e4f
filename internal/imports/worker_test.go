package imports

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/adimport/internal/models"
	"github.com/ternarybob/arbor"
)

func runWorker(t *testing.T, ctx context.Context, task models.ImportTask, processor ItemProcessor, signals *memorySignals) []models.WorkerMessage {
	t.Helper()
	messages := make(chan models.WorkerMessage, 4)
	worker := NewWorker(task, processor, signals, messages, arbor.NewLogger())
	go worker.Run(ctx)
	return drain(t, messages)
}

func TestWorker_CompletesInOrder(t *testing.T) {
	task := models.ImportTask{TaskID: "t1", BusinessID: "b1", Items: items(2)}
	messages := runWorker(t, context.Background(), task, DelayProcessor{}, newMemorySignals())

	assert.Equal(t, []string{
		"🚀 Worker started for business b1 (task t1)",
		"📦 Total items: 2",
		"⏳ Processing item 1 of 2",
		"✔️ Finished item 1",
		"⏳ Processing item 2 of 2",
		"✔️ Finished item 2",
		"✅ Import complete for business b1: 2 items processed (2 saved, 0 failed)",
		"👋 Worker shutting down",
	}, logTexts(messages))

	require.Len(t, messages, 9)
	last := messages[len(messages)-1]
	assert.Equal(t, models.WorkerMessageDone, last.Kind)

	shutdown := messages[len(messages)-2].Entry
	assert.Equal(t, models.TaskStatusCompleted, shutdown.Status)
	for _, msg := range messages[:len(messages)-2] {
		assert.Equal(t, models.TaskStatusRunning, msg.Entry.Status)
	}
}

func TestWorker_ReportsMaxAds(t *testing.T) {
	maxAds := 5
	task := models.ImportTask{TaskID: "t1", BusinessID: "b1", MaxAds: &maxAds, Items: items(1)}
	texts := logTexts(runWorker(t, context.Background(), task, DelayProcessor{}, newMemorySignals()))

	assert.Contains(t, texts, "📦 Total items: 1 (max ads: 5)")
}

func TestWorker_CancelledBeforeFirstItem(t *testing.T) {
	signals := newMemorySignals()
	require.NoError(t, signals.Request(context.Background(), "t2"))

	task := models.ImportTask{TaskID: "t2", BusinessID: "b1", Items: items(3)}
	messages := runWorker(t, context.Background(), task, DelayProcessor{}, signals)
	texts := logTexts(messages)

	assert.Equal(t, []string{
		"🚀 Worker started for business b1 (task t2)",
		"📦 Total items: 3",
		"🛑 Cancellation requested, stopped at item 1 of 3",
		"👋 Worker shutting down",
	}, texts)
	assert.Equal(t, models.TaskStatusCancelled, messages[len(messages)-2].Entry.Status)

	set, _ := signals.IsSet(context.Background(), "t2")
	assert.False(t, set, "worker clears the signal it acknowledged")
}

func TestWorker_CancellationDuringItemLetsItFinish(t *testing.T) {
	signals := newMemorySignals()
	processor := ProcessorFunc(func(ctx context.Context, task models.ImportTask, index int, item models.ImportItem) error {
		if index == 1 {
			return signals.Request(ctx, task.TaskID)
		}
		return nil
	})

	task := models.ImportTask{TaskID: "t2", BusinessID: "b1", Items: items(4)}
	texts := logTexts(runWorker(t, context.Background(), task, processor, signals))

	assert.Contains(t, texts, "✔️ Finished item 1")
	assert.Contains(t, texts, "✔️ Finished item 2")
	assert.NotContains(t, texts, "⏳ Processing item 3 of 4")
	assert.Equal(t, 1, countContaining(texts, "🛑"))
	assert.Contains(t, texts, "🛑 Cancellation requested, stopped at item 3 of 4")
	assert.Zero(t, countContaining(texts, "✅"))
}

func TestWorker_ItemErrorContinues(t *testing.T) {
	processor := ProcessorFunc(func(ctx context.Context, task models.ImportTask, index int, item models.ImportItem) error {
		if index == 0 {
			return errors.New("bad record")
		}
		return nil
	})

	task := models.ImportTask{TaskID: "t3", BusinessID: "b1", Items: items(2)}
	texts := logTexts(runWorker(t, context.Background(), task, processor, newMemorySignals()))

	assert.Contains(t, texts, "⚠️ Item 1 failed: bad record")
	assert.Contains(t, texts, "✔️ Finished item 2")
	assert.Contains(t, texts, "✅ Import complete for business b1: 2 items processed (1 saved, 1 failed)")
}

func TestWorker_PanicBecomesErrorMessage(t *testing.T) {
	processor := ProcessorFunc(func(ctx context.Context, task models.ImportTask, index int, item models.ImportItem) error {
		panic("boom")
	})

	task := models.ImportTask{TaskID: "t4", BusinessID: "b1", Items: items(2)}
	messages := runWorker(t, context.Background(), task, processor, newMemorySignals())

	last := messages[len(messages)-1]
	require.Equal(t, models.WorkerMessageError, last.Kind)
	assert.Contains(t, last.Err.Error(), "boom")
	assert.NotContains(t, logTexts(messages), "👋 Worker shutting down")
}

func TestWorker_ContextCancelledStopsAtBoundary(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	processor := ProcessorFunc(func(ctx context.Context, task models.ImportTask, index int, item models.ImportItem) error {
		cancel()
		return nil
	})

	task := models.ImportTask{TaskID: "t5", BusinessID: "b1", Items: items(3)}
	messages := runWorker(t, ctx, task, processor, newMemorySignals())

	last := messages[len(messages)-1]
	require.Equal(t, models.WorkerMessageError, last.Kind)
	assert.ErrorIs(t, last.Err, context.Canceled)
	assert.NotContains(t, logTexts(messages), "⏳ Processing item 2 of 3")
}

func TestWorker_SignalReadErrorIsNotCancellation(t *testing.T) {
	signals := &mockSignals{}
	signals.On("IsSet", mock.Anything, "t6").Return(false, errors.New("store unavailable"))

	messages := make(chan models.WorkerMessage, 4)
	task := models.ImportTask{TaskID: "t6", BusinessID: "b1", Items: items(2)}
	go NewWorker(task, DelayProcessor{}, signals, messages, arbor.NewLogger()).Run(context.Background())

	texts := logTexts(drain(t, messages))
	assert.Contains(t, texts, "✅ Import complete for business b1: 2 items processed (2 saved, 0 failed)")
	signals.AssertNumberOfCalls(t, "IsSet", 2)
}

package imports

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/adimport/internal/interfaces"
	"github.com/ternarybob/adimport/internal/models"
	"github.com/ternarybob/arbor"
)

// Launcher validates submissions, spawns one worker per task and wires each
// worker's messages into the log buffer. Submit never waits for the worker.
// There is no queue and no cap on concurrently running workers.
type Launcher struct {
	buffer        *LogBuffer
	registry      *registry
	signals       interfaces.CancellationStore
	processor     ItemProcessor
	validate      *validator.Validate
	logger        arbor.ILogger
	channelBuffer int

	mu     sync.Mutex
	closed bool
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewLauncher creates a launcher. channelBuffer is the capacity of each worker's message channel.
func NewLauncher(buffer *LogBuffer, signals interfaces.CancellationStore, processor ItemProcessor, channelBuffer int, logger arbor.ILogger) *Launcher {
	if channelBuffer <= 0 {
		channelBuffer = 64
	}

	validate := validator.New()
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})

	ctx, cancel := context.WithCancel(context.Background())

	return &Launcher{
		buffer:        buffer,
		registry:      newRegistry(),
		signals:       signals,
		processor:     processor,
		validate:      validate,
		logger:        logger,
		channelBuffer: channelBuffer,
		ctx:           ctx,
		cancel:        cancel,
	}
}

// Submit validates the request and launches its worker
func (l *Launcher) Submit(ctx context.Context, req *models.ImportRequest) (*models.ImportAck, error) {
	if err := l.validateRequest(req); err != nil {
		return nil, err
	}

	task := models.NewImportTask(req)
	handle := models.WorkerHandle{
		TaskID:     task.TaskID,
		BusinessID: task.BusinessID,
		Items:      len(task.Items),
		StartedAt:  time.Now(),
	}

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil, &WorkerLaunchError{TaskID: task.TaskID, Err: ErrLauncherClosed}
	}
	if !l.registry.register(handle) {
		l.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrTaskInFlight, task.TaskID)
	}
	l.wg.Add(2)
	l.mu.Unlock()

	// A reused task id starts from an empty log
	if l.buffer.Len(task.TaskID) > 0 {
		l.logger.Debug().Str("task_id", task.TaskID).Msg("Discarding log buffer of previous run")
		l.buffer.Clear(task.TaskID)
	}

	taskLogger := l.logger.WithCorrelationId(task.TaskID)
	messages := make(chan models.WorkerMessage, l.channelBuffer)
	worker := NewWorker(task, l.processor, l.signals, messages, taskLogger)

	go func() {
		defer l.wg.Done()
		worker.Run(l.ctx)
	}()
	go l.coordinate(task.TaskID, messages)

	l.logger.Info().
		Str("task_id", task.TaskID).
		Str("business_id", task.BusinessID).
		Int("items", len(task.Items)).
		Msg("Import worker launched")

	return &models.ImportAck{TaskID: task.TaskID}, nil
}

// Cancel requests cancellation of a task. It does not wait for the worker to stop.
func (l *Launcher) Cancel(ctx context.Context, req *models.CancelRequest) (*models.CancelAck, error) {
	if req == nil {
		return nil, &ValidationError{Field: "taskId", Message: "is required"}
	}
	if err := l.validate.Struct(req); err != nil {
		return nil, toValidationError(err)
	}

	if err := l.signals.Request(ctx, req.TaskID); err != nil {
		return nil, err
	}

	l.logger.Info().
		Str("task_id", req.TaskID).
		Bool("live", l.registry.has(req.TaskID)).
		Msg("Import cancellation requested")

	return &models.CancelAck{
		Message: "Cancellation requested",
		TaskID:  req.TaskID,
	}, nil
}

// Active returns the live worker handles, oldest first
func (l *Launcher) Active() []models.WorkerHandle {
	return l.registry.list()
}

// IsLive reports whether this process has a running worker for taskID
func (l *Launcher) IsLive(taskID string) bool {
	return l.registry.has(taskID)
}

// Close rejects new submissions, interrupts running workers and waits for them to exit
func (l *Launcher) Close(ctx context.Context) error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	l.mu.Unlock()

	running := len(l.registry.list())
	l.cancel()

	done := make(chan struct{})
	go func() {
		l.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		l.logger.Info().Int("interrupted", running).Msg("Import launcher stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("timed out waiting for %d import workers: %w", running, ctx.Err())
	}
}

// coordinate drains a worker's channel until it closes
func (l *Launcher) coordinate(taskID string, messages <-chan models.WorkerMessage) {
	defer l.wg.Done()

	terminated := false
	for msg := range messages {
		if l.observe(taskID, msg) {
			terminated = true
		}
	}

	if !terminated {
		l.buffer.Append(taskID, models.NewLogEntry("❌ Worker exited without completing", models.TaskStatusFailed))
		l.release(taskID, "exit")
	}
}

// observe applies one worker message to the buffer and registry. Returns true for terminal messages.
func (l *Launcher) observe(taskID string, msg models.WorkerMessage) bool {
	switch msg.Kind {
	case models.WorkerMessageLog:
		l.buffer.Append(taskID, msg.Entry)
		return false
	case models.WorkerMessageError:
		l.buffer.Append(taskID, models.NewLogEntry(fmt.Sprintf("❌ Worker error: %v", msg.Err), models.TaskStatusFailed))
		l.logger.Error().Err(msg.Err).Str("task_id", taskID).Msg("Import worker failed")
		l.release(taskID, "error")
		return true
	case models.WorkerMessageDone:
		l.release(taskID, "done")
		return true
	default:
		l.logger.Warn().Str("task_id", taskID).Str("kind", string(msg.Kind)).Msg("Ignoring unknown worker message")
		return false
	}
}

// release drops the task's handle. A signal still set at this point arrived
// after the worker's last boundary check; it is cleared before the handle goes
// away so a later run of the same id starts clean.
func (l *Launcher) release(taskID, reason string) {
	ctx := context.Background()
	if set, err := l.signals.IsSet(ctx, taskID); err != nil {
		l.logger.Warn().Err(err).Str("task_id", taskID).Msg("Failed to read cancellation signal on release")
	} else if set {
		if err := l.signals.Clear(ctx, taskID); err != nil {
			l.logger.Warn().Err(err).Str("task_id", taskID).Msg("Failed to clear cancellation signal on release")
		} else {
			l.logger.Info().Str("task_id", taskID).Msg("Cleared cancellation signal received after last item")
		}
	}

	if l.registry.deregister(taskID) {
		l.logger.Debug().Str("task_id", taskID).Str("reason", reason).Msg("Import worker deregistered")
	}
}

func (l *Launcher) validateRequest(req *models.ImportRequest) error {
	if req == nil {
		return &ValidationError{Field: "items", Message: "is required"}
	}
	if err := l.validate.Struct(req); err != nil {
		return toValidationError(err)
	}
	return nil
}

// toValidationError reports the first failing field
func toValidationError(err error) error {
	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) || len(fieldErrors) == 0 {
		return &ValidationError{Message: err.Error()}
	}

	fe := fieldErrors[0]
	switch fe.Tag() {
	case "required":
		return &ValidationError{Field: fe.Field(), Message: "is required"}
	case "min":
		return &ValidationError{Field: fe.Field(), Message: "must not be empty"}
	default:
		return &ValidationError{Field: fe.Field(), Message: fmt.Sprintf("failed %s validation", fe.Tag())}
	}
}

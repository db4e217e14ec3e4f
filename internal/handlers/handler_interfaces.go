package handlers

import (
	"context"
	"time"

	"github.com/ternarybob/adimport/internal/imports"
	"github.com/ternarybob/adimport/internal/models"
)

// ImportLauncher submits, cancels and lists import tasks
type ImportLauncher interface {
	Submit(ctx context.Context, req *models.ImportRequest) (*models.ImportAck, error)
	Cancel(ctx context.Context, req *models.CancelRequest) (*models.CancelAck, error)
	Active() []models.WorkerHandle
}

// LogStreamer drains a task's progress lines into a sink until the stream finishes
type LogStreamer interface {
	Stream(ctx context.Context, taskID string, sink imports.Sink) error
	Tick() time.Duration
}

package models

import (
	"encoding/json"
	"time"
)

// ImportItem is one opaque import record as submitted by the client
type ImportItem = json.RawMessage

// ImportRequest is the body of a bulk import submission
type ImportRequest struct {
	Items      []ImportItem `json:"items" validate:"required,min=1"`
	BusinessID string       `json:"businessId"`
	MaxAds     *int         `json:"maxAds,omitempty"` // Passed through to the worker, not enforced
	TaskID     string       `json:"taskId" validate:"required"`
}

// CancelRequest is the body of a cancellation request
type CancelRequest struct {
	TaskID string `json:"taskId" validate:"required"`
}

// ImportTask is the initial context handed to an import worker
type ImportTask struct {
	TaskID     string
	BusinessID string
	MaxAds     *int
	Items      []ImportItem
}

// NewImportTask builds the worker context from a validated request
func NewImportTask(req *ImportRequest) ImportTask {
	return ImportTask{
		TaskID:     req.TaskID,
		BusinessID: req.BusinessID,
		MaxAds:     req.MaxAds,
		Items:      req.Items,
	}
}

// ImportAck acknowledges a launched import. The counters are always zero:
// the job is not awaited.
type ImportAck struct {
	TaskID string `json:"taskId"`
	Saved  int    `json:"saved"`
	Errors int    `json:"errors"`
}

// CancelAck acknowledges a cancellation request
type CancelAck struct {
	Message string `json:"message"`
	TaskID  string `json:"taskId"`
}

// WorkerHandle describes a live worker owned by this process
type WorkerHandle struct {
	TaskID     string    `json:"taskId"`
	BusinessID string    `json:"businessId"`
	Items      int       `json:"items"`
	StartedAt  time.Time `json:"startedAt"`
}

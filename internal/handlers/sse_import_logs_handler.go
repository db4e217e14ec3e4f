package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ternarybob/adimport/internal/imports"
	"github.com/ternarybob/arbor"
)

// SSEImportLogsHandler streams a task's progress lines as Server-Sent Events
type SSEImportLogsHandler struct {
	streamer LogStreamer
	logger   arbor.ILogger
}

// NewSSEImportLogsHandler creates a new SSE import logs handler
func NewSSEImportLogsHandler(streamer LogStreamer, logger arbor.ILogger) *SSEImportLogsHandler {
	return &SSEImportLogsHandler{
		streamer: streamer,
		logger:   logger,
	}
}

// StreamImportLogs handles GET /api/import/logs/{taskId}
func (h *SSEImportLogsHandler) StreamImportLogs(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	taskID := PathParam(r, "/api/import/logs/")
	if taskID == "" {
		WriteError(w, http.StatusBadRequest, "taskId is required")
		return
	}

	// Set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	// The stream outlives the server's write timeout
	if err := http.NewResponseController(w).SetWriteDeadline(time.Time{}); err != nil && !errors.Is(err, http.ErrNotSupported) {
		h.logger.Debug().Err(err).Msg("Failed to clear write deadline for SSE stream")
	}

	// Flush headers immediately to trigger browser's EventSource.onopen
	flusher.Flush()

	h.logger.Debug().Str("task_id", taskID).Msg("SSE import log stream opened")

	sink := imports.SinkFunc(func(line string) error {
		if err := writeSSEData(w, line); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	})

	err := h.streamer.Stream(r.Context(), taskID, sink)
	switch {
	case err == nil:
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
	default:
		h.logger.Warn().Err(err).Str("task_id", taskID).Msg("SSE import log stream ended with error")
	}
}

// writeSSEData frames one line as a data event. Embedded newlines become
// continuation data fields so one line is always one event.
func writeSSEData(w http.ResponseWriter, line string) error {
	var b strings.Builder
	for _, part := range strings.Split(line, "\n") {
		b.WriteString("data: ")
		b.WriteString(strings.TrimSuffix(part, "\r"))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if _, err := fmt.Fprint(w, b.String()); err != nil {
		return err
	}
	return nil
}

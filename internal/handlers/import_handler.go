package handlers

import (
	"errors"
	"net/http"

	"github.com/ternarybob/adimport/internal/imports"
	"github.com/ternarybob/adimport/internal/models"
	"github.com/ternarybob/arbor"
)

// ImportHandler serves import submission, cancellation and task listing
type ImportHandler struct {
	launcher ImportLauncher
	logger   arbor.ILogger
}

// NewImportHandler creates a new import handler
func NewImportHandler(launcher ImportLauncher, logger arbor.ILogger) *ImportHandler {
	return &ImportHandler{
		launcher: launcher,
		logger:   logger,
	}
}

// SubmitHandler launches a background import and returns without waiting for it
func (h *ImportHandler) SubmitHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	var req models.ImportRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	ack, err := h.launcher.Submit(r.Context(), &req)
	if err != nil {
		h.writeImportError(w, req.TaskID, err)
		return
	}

	WriteJSON(w, http.StatusOK, ack)
}

// CancelHandler requests cancellation of a task. It does not wait for the worker to stop.
func (h *ImportHandler) CancelHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	var req models.CancelRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	ack, err := h.launcher.Cancel(r.Context(), &req)
	if err != nil {
		h.writeImportError(w, req.TaskID, err)
		return
	}

	WriteJSON(w, http.StatusOK, ack)
}

// TasksHandler lists the workers running in this process
func (h *ImportHandler) TasksHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	tasks := h.launcher.Active()
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"tasks": tasks,
		"count": len(tasks),
	})
}

func (h *ImportHandler) writeImportError(w http.ResponseWriter, taskID string, err error) {
	var validationErr *imports.ValidationError
	var launchErr *imports.WorkerLaunchError

	switch {
	case errors.As(err, &validationErr):
		WriteError(w, http.StatusBadRequest, validationErr.Error())
	case errors.Is(err, imports.ErrTaskInFlight):
		WriteError(w, http.StatusConflict, err.Error())
	case errors.As(err, &launchErr):
		h.logger.Error().Err(err).Str("task_id", taskID).Msg("Failed to launch import worker")
		WriteError(w, http.StatusInternalServerError, "Failed to launch import")
	default:
		h.logger.Error().Err(err).Str("task_id", taskID).Msg("Import request failed")
		WriteError(w, http.StatusInternalServerError, err.Error())
	}
}

package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/ternarybob/adimport/internal/common"
	"github.com/ternarybob/adimport/internal/interfaces"
	"github.com/ternarybob/arbor"
)

// healthProbeTimeout bounds the cancellation store read made by the health check
const healthProbeTimeout = 2 * time.Second

type APIHandler struct {
	signals       interfaces.CancellationStore
	cancelBackend string
	launcher      ImportLauncher
	logger        arbor.ILogger
}

func NewAPIHandler(signals interfaces.CancellationStore, cancelBackend string, launcher ImportLauncher, logger arbor.ILogger) *APIHandler {
	return &APIHandler{
		signals:       signals,
		cancelBackend: cancelBackend,
		launcher:      launcher,
		logger:        logger,
	}
}

// VersionHandler returns version information
func (h *APIHandler) VersionHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{
		"version":    common.GetVersion(),
		"build":      common.GetBuild(),
		"git_commit": common.GetGitCommit(),
	})
}

// HealthHandler reports cancellation store reachability and the live worker count.
// An unreadable store is 503.
func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), healthProbeTimeout)
	defer cancel()

	pending, err := h.signals.Pending(ctx)
	if err != nil {
		h.logger.Warn().Err(err).Str("cancel_backend", h.cancelBackend).Msg("Health check: cancellation store unreadable")
		WriteJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":         "degraded",
			"cancel_backend": h.cancelBackend,
			"error":          err.Error(),
		})
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":                "ok",
		"cancel_backend":        h.cancelBackend,
		"pending_cancellations": len(pending),
		"active_workers":        len(h.launcher.Active()),
	})
}

// NotFoundHandler handles 404 errors with JSON response
func (h *APIHandler) NotFoundHandler(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusNotFound, map[string]interface{}{
		"error":   "Not Found",
		"path":    r.URL.Path,
		"message": "The requested endpoint does not exist",
	})
}

package server

import (
	"net/http"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// API routes - Import tasks
	mux.HandleFunc("/api/import", s.app.ImportHandler.SubmitHandler)                 // POST - launch a background import
	mux.HandleFunc("/api/import/cancel", s.app.ImportHandler.CancelHandler)          // POST - request cancellation
	mux.HandleFunc("/api/import/tasks", s.app.ImportHandler.TasksHandler)            // GET - live workers in this process
	mux.HandleFunc("/api/import/logs/", s.app.SSEImportLogsHandler.StreamImportLogs) // GET /{taskId} - SSE progress stream
	mux.HandleFunc("/api/import/ws/", s.app.WSImportLogsHandler.StreamImportLogs)    // GET /{taskId} - WebSocket progress stream

	// API routes - Ads
	mux.HandleFunc("/api/ads", s.app.AdHandler.ListHandler)

	// API routes - System
	mux.HandleFunc("/api/version", s.app.APIHandler.VersionHandler)
	mux.HandleFunc("/api/health", s.app.APIHandler.HealthHandler)

	// 404 handler for unmatched API routes
	mux.HandleFunc("/", s.app.APIHandler.NotFoundHandler)

	return mux
}

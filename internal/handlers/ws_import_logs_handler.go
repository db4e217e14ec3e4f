package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/ternarybob/adimport/internal/imports"
	"github.com/ternarybob/arbor"
)

const wsWriteTimeout = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// WSImportLogsHandler streams a task's progress lines over a WebSocket, one text frame per line
type WSImportLogsHandler struct {
	streamer LogStreamer
	logger   arbor.ILogger
}

// NewWSImportLogsHandler creates a new WebSocket import logs handler
func NewWSImportLogsHandler(streamer LogStreamer, logger arbor.ILogger) *WSImportLogsHandler {
	return &WSImportLogsHandler{
		streamer: streamer,
		logger:   logger,
	}
}

// StreamImportLogs handles GET /api/import/ws/{taskId}
func (h *WSImportLogsHandler) StreamImportLogs(w http.ResponseWriter, r *http.Request) {
	taskID := PathParam(r, "/api/import/ws/")
	if taskID == "" {
		WriteError(w, http.StatusBadRequest, "taskId is required")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// The client only ever sends close frames; a read error means it went away
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
					h.logger.Warn().Err(err).Str("task_id", taskID).Msg("WebSocket error")
				}
				return
			}
		}
	}()

	h.logger.Debug().Str("task_id", taskID).Msg("WebSocket import log stream opened")

	err = h.streamer.Stream(ctx, taskID, wsLineSink(conn))
	if err != nil {
		if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			h.logger.Warn().Err(err).Str("task_id", taskID).Msg("WebSocket import log stream ended with error")
		}
		return
	}

	deadline := time.Now().Add(wsWriteTimeout)
	closeMsg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "log stream finished")
	if err := conn.WriteControl(websocket.CloseMessage, closeMsg, deadline); err != nil {
		h.logger.Debug().Err(err).Str("task_id", taskID).Msg("Failed to send WebSocket close frame")
	}
}

// wsFrameWriter is the part of *websocket.Conn the line sink writes through
type wsFrameWriter interface {
	SetWriteDeadline(t time.Time) error
	WriteMessage(messageType int, data []byte) error
}

// wsLineSink sends each line as one text frame under a per-write deadline
func wsLineSink(conn wsFrameWriter) imports.Sink {
	return imports.SinkFunc(func(line string) error {
		if err := conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout)); err != nil {
			return fmt.Errorf("failed to set write deadline: %w", err)
		}
		return conn.WriteMessage(websocket.TextMessage, []byte(line))
	})
}

package models

import (
	"fmt"
	"time"
)

// TaskStatus tags every log entry with the state of its task when the entry was emitted
type TaskStatus string

const (
	TaskStatusRunning   TaskStatus = "running"
	TaskStatusCompleted TaskStatus = "completed"
	TaskStatusFailed    TaskStatus = "failed"
	TaskStatusCancelled TaskStatus = "cancelled"
)

// IsTerminal reports whether no further entries are expected after this status
func (s TaskStatus) IsTerminal() bool {
	switch s {
	case TaskStatusCompleted, TaskStatusFailed, TaskStatusCancelled:
		return true
	default:
		return false
	}
}

// LogTimeFormat is the 24-hour, zero-padded prefix of every rendered log line
const LogTimeFormat = "15:04:05"

// LogEntry is one line of import progress
type LogEntry struct {
	Time   time.Time  `json:"time"`
	Text   string     `json:"text"`
	Status TaskStatus `json:"status"`
}

// NewLogEntry stamps a message with the current local time
func NewLogEntry(text string, status TaskStatus) LogEntry {
	return LogEntry{
		Time:   time.Now(),
		Text:   text,
		Status: status,
	}
}

// String renders the entry as "[HH:MM:SS] text" in local time
func (e LogEntry) String() string {
	return fmt.Sprintf("[%s] %s", e.Time.Local().Format(LogTimeFormat), e.Text)
}

// WorkerMessageKind discriminates messages a worker sends to its coordinator
type WorkerMessageKind string

const (
	WorkerMessageLog   WorkerMessageKind = "log"
	WorkerMessageDone  WorkerMessageKind = "done"
	WorkerMessageError WorkerMessageKind = "error"
)

// WorkerMessage travels over the bounded channel between a worker and its coordinator
type WorkerMessage struct {
	Kind  WorkerMessageKind
	Entry LogEntry // Set for log messages
	Err   error    // Set for error messages
}

package types

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type LogType string

const (
	LogAction      LogType = "action"
	LogInteraction LogType = "interaction"
	LogSubmission  LogType = "submission"
	LogAIRequest   LogType = "ai_request"
	LogAIResponse  LogType = "ai_response"
	LogSystem      LogType = "system"
	LogError       LogType = "error"
)

func IsLogType(t LogType) bool {
	switch t {
	case LogAction, LogInteraction, LogSubmission, LogAIRequest, LogAIResponse, LogSystem, LogError:
		return true
	}
	return false
}

type LogSeverity string

const (
	SeverityDebug LogSeverity = "debug"
	SeverityInfo  LogSeverity = "info"
	SeverityWarn  LogSeverity = "warn"
	SeverityError LogSeverity = "error"
)

// LogMetadata carries the session context of an interaction.
type LogMetadata struct {
	SessionID       string   `json:"session_id,omitempty"`
	DurationSeconds int      `json:"duration_seconds,omitempty"`
	Tags            []string `json:"tags,omitempty"`
}

// LogEntry is an append-only, timestamped record of a single interaction
// inside a Task. Entries are never mutated or reordered after creation;
// they are the source of truth for conversational history and are replayed
// to reconstruct Task state. Seq is assigned by the repository at append
// time and is strictly increasing per process.
type LogEntry struct {
	ID        uuid.UUID       `json:"id"`
	UserID    string          `json:"user_id"`
	ProgramID uuid.UUID       `json:"program_id"`
	TaskID    uuid.UUID       `json:"task_id"`
	Type      LogType         `json:"type"`
	Severity  LogSeverity     `json:"severity,omitempty"`
	Message   string          `json:"message,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Metadata  LogMetadata     `json:"metadata,omitempty"`
	Seq       uint64          `json:"seq"`
	Timestamp time.Time       `json:"timestamp"`
}

// Before reports whether e was created before other. Timestamp orders
// entries across processes; Seq breaks same-timestamp ties, which is total
// within one process even when the clock stalls.
func (e *LogEntry) Before(other *LogEntry) bool {
	if other == nil {
		return true
	}
	if !e.Timestamp.Equal(other.Timestamp) {
		return e.Timestamp.Before(other.Timestamp)
	}
	return e.Seq < other.Seq
}

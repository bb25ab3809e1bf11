// Package audit emits structured log events for every decision that touches
// the approval gate or the database, so operators can reconstruct who allowed
// what.
package audit

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type EventType string

const (
	EventApprovalCreated  EventType = "approval_created"
	EventApprovalApproved EventType = "approval_approved"
	EventApprovalDenied   EventType = "approval_denied"
	EventApprovalExpired  EventType = "approval_expired"
	EventStatementRun     EventType = "statement_executed"
	EventStatementFailed  EventType = "statement_failed"
	EventSessionStopped   EventType = "session_stopped"
	EventThreadCleared    EventType = "thread_cleared"
	EventThreadDeleted    EventType = "thread_deleted"
)

type Event struct {
	Type       EventType
	ApprovalID string
	ThreadID   string
	SessionID  string
	Actor      string
	IP         string
	Details    map[string]interface{}
}

func Log(event Event) {
	logger := log.With().
		Str("audit", "dbagent").
		Str("event_type", string(event.Type)).
		Time("timestamp", time.Now()).
		Logger()

	if event.ApprovalID != "" {
		logger = logger.With().Str("approval_id", event.ApprovalID).Logger()
	}
	if event.ThreadID != "" {
		logger = logger.With().Str("thread_id", event.ThreadID).Logger()
	}
	if event.SessionID != "" {
		logger = logger.With().Str("session_id", event.SessionID).Logger()
	}
	if event.Actor != "" {
		logger = logger.With().Str("actor", event.Actor).Logger()
	}
	if event.IP != "" {
		logger = logger.With().Str("ip", event.IP).Logger()
	}

	logEvent := logger.Info()
	for k, v := range event.Details {
		logEvent = addField(logEvent, k, v)
	}
	logEvent.Msg("audit event")
}

func addField(e *zerolog.Event, key string, value interface{}) *zerolog.Event {
	switch v := value.(type) {
	case string:
		return e.Str(key, v)
	case int:
		return e.Int(key, v)
	case int64:
		return e.Int64(key, v)
	case bool:
		return e.Bool(key, v)
	default:
		return e.Interface(key, v)
	}
}

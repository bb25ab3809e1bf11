// Package delivery tracks streaming response sessions and lets callers stop
// an in-flight stream from another request.
package delivery

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	apperrors "github.com/openclaw/dbagent-server-go/internal/errors"
	"github.com/openclaw/dbagent-server-go/internal/model"
)

// Registry holds live delivery sessions. Stop is a courtesy cancellation of
// output delivery only; it never touches work already sent to the database.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*model.DeliverySession
	now      func() time.Time
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*model.DeliverySession),
		now:      time.Now,
	}
}

// Open registers a new active session for a thread and returns its id.
func (r *Registry) Open(threadID string) string {
	id := uuid.NewString()

	r.mu.Lock()
	r.sessions[id] = &model.DeliverySession{
		ID:        id,
		ThreadID:  threadID,
		Active:    true,
		CreatedAt: r.now(),
	}
	r.mu.Unlock()

	return id
}

// Push records one delivered chunk. It reports false as soon as the session
// has been stopped or closed, so the producer can halt after the chunk in
// flight. The active check and the counter update share the mutex; a Stop
// landing between two pushes is observed by the next Push.
func (r *Registry) Push(sessionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.sessions[sessionID]
	if !ok || !sess.Active {
		return false
	}
	sess.ChunksDelivered++
	return true
}

// Active reports whether the session exists and has not been stopped.
func (r *Registry) Active(sessionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.sessions[sessionID]
	return ok && sess.Active
}

// Stop marks a session inactive. Stopping a session that is unknown or
// already inactive is SESSION_NOT_ACTIVE; the caller learns their stop had
// no effect.
func (r *Registry) Stop(sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.sessions[sessionID]
	if !ok || !sess.Active {
		return apperrors.SessionNotActive()
	}
	sess.Active = false

	log.Info().
		Str("sessionId", sessionID).
		Str("threadId", sess.ThreadID).
		Int("chunksDelivered", sess.ChunksDelivered).
		Msg("delivery session stopped")
	return nil
}

// Close removes a session at the natural end of a stream, whether it ran to
// completion or was stopped partway. Closing an unknown session is a no-op.
func (r *Registry) Close(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, sessionID)
}

// Get returns a snapshot of a session.
func (r *Registry) Get(sessionID string) (*model.DeliverySession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.sessions[sessionID]
	if !ok {
		return nil, apperrors.NotFound("Delivery session")
	}
	out := *sess
	return &out, nil
}

// List returns snapshots of all tracked sessions, active and finished.
func (r *Registry) List() []model.DeliverySession {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]model.DeliverySession, 0, len(r.sessions))
	for _, sess := range r.sessions {
		out = append(out, *sess)
	}
	return out
}

// Reap drops inactive sessions older than maxAge and returns the number
// removed. Active sessions are never reaped.
func (r *Registry) Reap(maxAge time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-maxAge)
	removed := 0
	for id, sess := range r.sessions {
		if !sess.Active && sess.CreatedAt.Before(cutoff) {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed
}

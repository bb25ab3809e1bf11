// Package thread keeps per-conversation state: the message transcript and
// the optional pending-approval gate parked on the thread.
package thread

import (
	"sort"
	"sync"
	"time"

	apperrors "github.com/openclaw/dbagent-server-go/internal/errors"
	"github.com/openclaw/dbagent-server-go/internal/model"
)

// Store is an in-memory map of conversation threads keyed by caller-chosen
// thread id. Reads hand out copies so callers can never mutate shared state
// behind the lock's back.
type Store struct {
	mu      sync.RWMutex
	threads map[string]*model.ConversationThread
	now     func() time.Time
}

func NewStore() *Store {
	return &Store{
		threads: make(map[string]*model.ConversationThread),
		now:     time.Now,
	}
}

// GetOrCreate returns the thread for an id, creating an empty one on first
// use. A thread id is a namespace the caller owns; there is no registration
// step.
func (s *Store) GetOrCreate(threadID string) *model.ConversationThread {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyThread(s.getOrCreateLocked(threadID))
}

// Append adds a message to a thread's transcript and bumps LastActivity.
func (s *Store) Append(threadID string, role model.MessageRole, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	th := s.getOrCreateLocked(threadID)
	now := s.now()
	th.Messages = append(th.Messages, model.Message{
		Role:      role,
		Content:   content,
		CreatedAt: now,
	})
	th.LastActivity = now
}

// History returns a copy of the thread's transcript, oldest first. An
// unknown thread id yields an empty history, not an error.
func (s *Store) History(threadID string) []model.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	th, ok := s.threads[threadID]
	if !ok {
		return []model.Message{}
	}
	out := make([]model.Message, len(th.Messages))
	copy(out, th.Messages)
	return out
}

// AllHistory returns every thread's transcript, oldest thread first.
func (s *Store) AllHistory() []model.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	threads := make([]*model.ConversationThread, 0, len(s.threads))
	for _, th := range s.threads {
		threads = append(threads, th)
	}
	sort.Slice(threads, func(i, j int) bool {
		return threads[i].CreatedAt.Before(threads[j].CreatedAt)
	})

	out := make([]model.Message, 0)
	for _, th := range threads {
		out = append(out, th.Messages...)
	}
	return out
}

// SetGate parks a pending dangerous statement on the thread. At most one
// gate exists per thread; a new gate replaces any previous one.
func (s *Store) SetGate(threadID string, gate model.PendingGate) {
	s.mu.Lock()
	defer s.mu.Unlock()

	th := s.getOrCreateLocked(threadID)
	g := gate
	th.Gate = &g
	th.LastActivity = s.now()
}

// Gate returns a copy of the thread's pending gate, or nil when none is set.
func (s *Store) Gate(threadID string) *model.PendingGate {
	s.mu.RLock()
	defer s.mu.RUnlock()

	th, ok := s.threads[threadID]
	if !ok || th.Gate == nil {
		return nil
	}
	g := *th.Gate
	return &g
}

// ClearGate removes the pending gate and reports whether one was present.
// The caller that observes true owns the gated statement; this is the
// take-once step that keeps execution exactly-once.
func (s *Store) ClearGate(threadID string) (model.PendingGate, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	th, ok := s.threads[threadID]
	if !ok || th.Gate == nil {
		return model.PendingGate{}, false
	}
	g := *th.Gate
	th.Gate = nil
	th.LastActivity = s.now()
	return g, true
}

// Snapshot returns a copy of the full thread, or NOT_FOUND for an id that
// was never used.
func (s *Store) Snapshot(threadID string) (*model.ConversationThread, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	th, ok := s.threads[threadID]
	if !ok {
		return nil, apperrors.NotFound("Thread")
	}
	return copyThread(th), nil
}

// Clear wipes a thread's transcript and gate but keeps the id usable.
func (s *Store) Clear(threadID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	th, ok := s.threads[threadID]
	if !ok {
		return apperrors.NotFound("Thread")
	}
	th.Messages = nil
	th.Gate = nil
	th.LastActivity = s.now()
	return nil
}

// ClearAll wipes every thread's transcript and gate, keeping the ids usable.
// It returns the number of threads touched.
func (s *Store) ClearAll() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for _, th := range s.threads {
		th.Messages = nil
		th.Gate = nil
		th.LastActivity = now
	}
	return len(s.threads)
}

// Delete removes a thread entirely.
func (s *Store) Delete(threadID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.threads[threadID]; !ok {
		return apperrors.NotFound("Thread")
	}
	delete(s.threads, threadID)
	return nil
}

// List returns summaries of all threads, most recently active first.
func (s *Store) List() []model.ThreadInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	infos := make([]model.ThreadInfo, 0, len(s.threads))
	for _, th := range s.threads {
		infos = append(infos, model.ThreadInfo{
			ThreadID:     th.ID,
			MessageCount: len(th.Messages),
			HasPending:   th.Gate != nil,
			CreatedAt:    th.CreatedAt,
			LastActivity: th.LastActivity,
		})
	}
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].LastActivity.After(infos[j].LastActivity)
	})
	return infos
}

func (s *Store) getOrCreateLocked(threadID string) *model.ConversationThread {
	th, ok := s.threads[threadID]
	if !ok {
		now := s.now()
		th = &model.ConversationThread{
			ID:           threadID,
			CreatedAt:    now,
			LastActivity: now,
		}
		s.threads[threadID] = th
	}
	return th
}

func copyThread(th *model.ConversationThread) *model.ConversationThread {
	out := *th
	out.Messages = make([]model.Message, len(th.Messages))
	copy(out.Messages, th.Messages)
	if th.Gate != nil {
		g := *th.Gate
		out.Gate = &g
	}
	return &out
}

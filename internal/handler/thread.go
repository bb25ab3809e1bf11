package handler

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/openclaw/dbagent-server-go/internal/audit"
	"github.com/openclaw/dbagent-server-go/internal/model"
	"github.com/openclaw/dbagent-server-go/internal/thread"
)

type ThreadHandler struct {
	threads *thread.Store
}

func NewThreadHandler(threads *thread.Store) *ThreadHandler {
	return &ThreadHandler{threads: threads}
}

func (h *ThreadHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Post("/new", h.Create)
	r.Get("/{threadID}", h.Info)
	r.Delete("/{threadID}", h.Delete)
	r.Get("/{threadID}/history", h.History)
	r.Delete("/{threadID}/history", h.Clear)
	return r
}

func (h *ThreadHandler) List(w http.ResponseWriter, r *http.Request) {
	threads := h.threads.List()
	writeJSON(w, http.StatusOK, map[string]any{
		"threads":       threads,
		"total_threads": len(threads),
	})
}

func (h *ThreadHandler) Create(w http.ResponseWriter, r *http.Request) {
	threadID := uuid.NewString()
	h.threads.GetOrCreate(threadID)

	writeJSON(w, http.StatusOK, map[string]any{
		"thread_id": threadID,
		"message":   "New thread created",
		"timestamp": nowISO(),
	})
}

func (h *ThreadHandler) Info(w http.ResponseWriter, r *http.Request) {
	snap, err := h.threads.Snapshot(chi.URLParam(r, "threadID"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"thread_id":            snap.ID,
		"message_count":        len(snap.Messages),
		"has_pending_approval": snap.Gate != nil,
		"created_at":           snap.CreatedAt,
		"last_activity":        snap.LastActivity,
	})
}

func (h *ThreadHandler) History(w http.ResponseWriter, r *http.Request) {
	threadID := chi.URLParam(r, "threadID")
	history := h.threads.History(threadID)

	writeJSON(w, http.StatusOK, map[string]any{
		"history":        history,
		"total_messages": len(history),
		"thread_id":      threadID,
		"timestamp":      nowISO(),
	})
}

func (h *ThreadHandler) Clear(w http.ResponseWriter, r *http.Request) {
	threadID := chi.URLParam(r, "threadID")
	if err := h.threads.Clear(threadID); err != nil {
		writeError(w, err)
		return
	}

	audit.Log(audit.Event{Type: audit.EventThreadCleared, ThreadID: threadID, IP: r.RemoteAddr})
	writeJSON(w, http.StatusOK, map[string]any{
		"message":   "Conversation history cleared",
		"thread_id": threadID,
		"timestamp": nowISO(),
	})
}

// ConversationHistory serves the cross-thread history view. With a thread_id
// query parameter it narrows to that thread; without one it spans all threads.
func (h *ThreadHandler) ConversationHistory(w http.ResponseWriter, r *http.Request) {
	threadID := r.URL.Query().Get("thread_id")

	var history []model.Message
	if threadID == "" {
		history = h.threads.AllHistory()
	} else {
		history = h.threads.History(threadID)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"history":        history,
		"total_messages": len(history),
		"thread_id":      nullableID(threadID),
		"timestamp":      nowISO(),
	})
}

// ClearConversationHistory clears one thread's transcript, or every thread's
// when no thread_id is given.
func (h *ThreadHandler) ClearConversationHistory(w http.ResponseWriter, r *http.Request) {
	threadID := r.URL.Query().Get("thread_id")

	message := "Conversation history cleared for all threads"
	if threadID == "" {
		h.threads.ClearAll()
	} else {
		if err := h.threads.Clear(threadID); err != nil {
			writeError(w, err)
			return
		}
		message = fmt.Sprintf("Conversation history cleared for thread %s", threadID)
	}

	audit.Log(audit.Event{Type: audit.EventThreadCleared, ThreadID: threadID, IP: r.RemoteAddr})
	writeJSON(w, http.StatusOK, map[string]any{
		"message":   message,
		"thread_id": nullableID(threadID),
		"timestamp": nowISO(),
	})
}

func nullableID(id string) any {
	if id == "" {
		return nil
	}
	return id
}

func (h *ThreadHandler) Delete(w http.ResponseWriter, r *http.Request) {
	threadID := chi.URLParam(r, "threadID")
	if err := h.threads.Delete(threadID); err != nil {
		writeError(w, err)
		return
	}

	audit.Log(audit.Event{Type: audit.EventThreadDeleted, ThreadID: threadID, IP: r.RemoteAddr})
	writeJSON(w, http.StatusOK, map[string]any{
		"message":   "Thread deleted",
		"thread_id": threadID,
		"timestamp": nowISO(),
	})
}

package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/openclaw/dbagent-server-go/internal/audit"
	"github.com/openclaw/dbagent-server-go/internal/delivery"
	apperrors "github.com/openclaw/dbagent-server-go/internal/errors"
	"github.com/openclaw/dbagent-server-go/internal/model"
	"github.com/openclaw/dbagent-server-go/internal/thread"
	"github.com/openclaw/dbagent-server-go/internal/workflow"
)

type ChatHandler struct {
	workflow    *workflow.Workflow
	threads     *thread.Store
	sessions    *delivery.Registry
	streamDelay time.Duration
}

func NewChatHandler(wf *workflow.Workflow, threads *thread.Store, sessions *delivery.Registry, streamDelay time.Duration) *ChatHandler {
	return &ChatHandler{
		workflow:    wf,
		threads:     threads,
		sessions:    sessions,
		streamDelay: streamDelay,
	}
}

type chatRequest struct {
	Query    string `json:"query"`
	ThreadID string `json:"thread_id"`
}

type chatResponse struct {
	Response              string `json:"response"`
	ThreadID              string `json:"thread_id"`
	Timestamp             string `json:"timestamp"`
	OperationType         string `json:"operation_type,omitempty"`
	HumanApprovalRequired bool   `json:"human_approval_required"`
}

func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.ValidationError("Invalid request body"))
		return
	}
	if req.Query == "" {
		writeError(w, apperrors.MissingRequired("query"))
		return
	}

	threadID := req.ThreadID
	if threadID == "" {
		threadID = uuid.NewString()
	}

	reply, err := h.workflow.Step(r.Context(), threadID, req.Query)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := chatResponse{
		Response:  reply,
		ThreadID:  threadID,
		Timestamp: nowISO(),
	}
	if gate := h.threads.Gate(threadID); gate != nil {
		resp.HumanApprovalRequired = true
		resp.OperationType = string(gate.Kind)
	}

	writeJSON(w, http.StatusOK, resp)
}

// streamFrame is one SSE data payload.
type streamFrame struct {
	Chunk            string `json:"chunk"`
	ChunkType        string `json:"chunk_type"`
	IsFinal          bool   `json:"is_final"`
	ThreadID         string `json:"thread_id"`
	SessionID        string `json:"session_id"`
	RequiresApproval bool   `json:"requires_approval,omitempty"`
	Timestamp        string `json:"timestamp"`
}

// Stream runs one turn and delivers the reply as SSE chunks of a few words.
// The session id travels in the X-Session-ID header so the client can stop
// delivery mid-stream.
func (h *ChatHandler) Stream(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.ValidationError("Invalid request body"))
		return
	}
	if req.Query == "" {
		writeError(w, apperrors.MissingRequired("query"))
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Streaming not supported"})
		return
	}

	threadID := req.ThreadID
	if threadID == "" {
		threadID = uuid.NewString()
	}
	sessionID := h.sessions.Open(threadID)
	defer h.sessions.Close(sessionID)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.Header().Set("X-Session-ID", sessionID)
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	reply, err := h.workflow.Step(r.Context(), threadID, req.Query)
	if err != nil {
		h.sendFrame(w, flusher, streamFrame{
			Chunk:     fmt.Sprintf("Error: %s", err),
			ChunkType: "error",
			IsFinal:   true,
			ThreadID:  threadID,
			SessionID: sessionID,
		})
		return
	}

	// Approval prompts go out whole. Chunking a prompt the client must turn
	// into a dialog would be noise.
	if h.threads.Gate(threadID) != nil {
		h.sendFrame(w, flusher, streamFrame{
			Chunk:            reply,
			ChunkType:        "human_approval",
			IsFinal:          true,
			ThreadID:         threadID,
			SessionID:        sessionID,
			RequiresApproval: true,
		})
		return
	}

	chunks := delivery.Chunks(reply)
	for i, chunk := range chunks {
		if !h.sessions.Push(sessionID) {
			h.sendStopped(w, flusher, threadID, sessionID)
			return
		}

		h.sendFrame(w, flusher, streamFrame{
			Chunk:     chunk,
			ChunkType: "text",
			IsFinal:   i == len(chunks)-1,
			ThreadID:  threadID,
			SessionID: sessionID,
		})

		if !h.sessions.Active(sessionID) {
			h.sendStopped(w, flusher, threadID, sessionID)
			return
		}

		select {
		case <-r.Context().Done():
			return
		case <-time.After(h.streamDelay):
		}
	}
}

func (h *ChatHandler) sendStopped(w http.ResponseWriter, flusher http.Flusher, threadID, sessionID string) {
	h.sendFrame(w, flusher, streamFrame{
		ChunkType: "stopped",
		IsFinal:   true,
		ThreadID:  threadID,
		SessionID: sessionID,
	})
}

func (h *ChatHandler) sendFrame(w http.ResponseWriter, flusher http.Flusher, frame streamFrame) {
	frame.Timestamp = nowISO()
	payload, err := json.Marshal(frame)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal stream frame")
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", payload)
	flusher.Flush()
}

type stopRequest struct {
	SessionID string `json:"session_id"`
}

func (h *ChatHandler) Stop(w http.ResponseWriter, r *http.Request) {
	var req stopRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.ValidationError("Invalid request body"))
		return
	}
	if req.SessionID == "" {
		writeError(w, apperrors.MissingRequired("session_id"))
		return
	}

	if err := h.sessions.Stop(req.SessionID); err != nil {
		writeError(w, err)
		return
	}

	audit.Log(audit.Event{
		Type:      audit.EventSessionStopped,
		SessionID: req.SessionID,
		IP:        r.RemoteAddr,
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"message":    "Generation stopped successfully",
		"session_id": req.SessionID,
		"timestamp":  nowISO(),
	})
}

func (h *ChatHandler) Sessions(w http.ResponseWriter, r *http.Request) {
	active := make([]model.DeliverySession, 0)
	for _, sess := range h.sessions.List() {
		if sess.Active {
			active = append(active, sess)
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"sessions":     active,
		"total_active": len(active),
		"timestamp":    nowISO(),
	})
}

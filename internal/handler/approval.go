package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/openclaw/dbagent-server-go/internal/approval"
	"github.com/openclaw/dbagent-server-go/internal/audit"
	"github.com/openclaw/dbagent-server-go/internal/classifier"
	apperrors "github.com/openclaw/dbagent-server-go/internal/errors"
	"github.com/openclaw/dbagent-server-go/internal/model"
	"github.com/openclaw/dbagent-server-go/internal/util"
)

type ApprovalHandler struct {
	ledger *approval.Ledger
}

func NewApprovalHandler(ledger *approval.Ledger) *ApprovalHandler {
	return &ApprovalHandler{ledger: ledger}
}

func (h *ApprovalHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/request", h.Create)
	r.Get("/pending", h.Pending)
	r.Post("/cleanup", h.Cleanup)
	r.Get("/{approvalID}", h.Get)
	r.Post("/{approvalID}/approve", h.Approve)
	r.Post("/{approvalID}/deny", h.Deny)
	return r
}

type createApprovalRequest struct {
	SQLQuery string `json:"sql_query"`
}

// Create registers an approval request for a statement. Safe statements get
// requires_approval false and no ledger entry.
func (h *ApprovalHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createApprovalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.ValidationError("Invalid request body"))
		return
	}
	if req.SQLQuery == "" {
		writeError(w, apperrors.MissingRequired("sql_query"))
		return
	}

	if c := classifier.Classify(req.SQLQuery); !c.Dangerous {
		writeJSON(w, http.StatusOK, map[string]any{
			"approval_id":       "",
			"requires_approval": false,
		})
		return
	}

	created := h.ledger.Create(req.SQLQuery)
	audit.Log(audit.Event{
		Type:       audit.EventApprovalCreated,
		ApprovalID: created.ID,
		IP:         r.RemoteAddr,
		Details:    map[string]interface{}{"operation_kind": string(created.Kind)},
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"approval_id":       created.ID,
		"requires_approval": true,
		"approval_request":  created,
	})
}

func (h *ApprovalHandler) Get(w http.ResponseWriter, r *http.Request) {
	approvalID := chi.URLParam(r, "approvalID")
	if !util.IsValidUUID(approvalID) {
		writeError(w, apperrors.InvalidInput("approval id", approvalID))
		return
	}

	req, err := h.ledger.Get(approvalID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (h *ApprovalHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, model.DecisionApprove)
}

func (h *ApprovalHandler) Deny(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, model.DecisionDeny)
}

func (h *ApprovalHandler) decide(w http.ResponseWriter, r *http.Request, decision model.Decision) {
	approvalID := chi.URLParam(r, "approvalID")
	if !util.IsValidUUID(approvalID) {
		writeError(w, apperrors.InvalidInput("approval id", approvalID))
		return
	}

	actor := r.URL.Query().Get("approved_by")
	if actor == "" {
		actor = r.URL.Query().Get("denied_by")
	}
	if actor == "" {
		actor = "user"
	}

	decided, err := h.ledger.Decide(approvalID, decision, actor)
	if err != nil {
		writeError(w, err)
		return
	}

	eventType := audit.EventApprovalApproved
	if decision == model.DecisionDeny {
		eventType = audit.EventApprovalDenied
	}
	audit.Log(audit.Event{
		Type:       eventType,
		ApprovalID: approvalID,
		Actor:      actor,
		IP:         r.RemoteAddr,
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"success":          true,
		"approval_request": decided,
		"timestamp":        nowISO(),
	})
}

func (h *ApprovalHandler) Pending(w http.ResponseWriter, r *http.Request) {
	pending := h.ledger.ListPending()
	writeJSON(w, http.StatusOK, map[string]any{
		"pending_approvals": pending,
		"total_pending":     len(pending),
		"timestamp":         nowISO(),
	})
}

func (h *ApprovalHandler) Cleanup(w http.ResponseWriter, r *http.Request) {
	count := h.ledger.Sweep()
	writeJSON(w, http.StatusOK, map[string]any{
		"message":       "Expired approvals cleaned up",
		"cleaned_count": count,
		"timestamp":     nowISO(),
	})
}

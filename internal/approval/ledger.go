// Package approval owns the lifecycle of human approval requests for
// dangerous database operations: create, decide, lazy expiry, sweep.
package approval

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/openclaw/dbagent-server-go/internal/audit"
	"github.com/openclaw/dbagent-server-go/internal/classifier"
	apperrors "github.com/openclaw/dbagent-server-go/internal/errors"
	"github.com/openclaw/dbagent-server-go/internal/model"
)

const DefaultTTL = 300 * time.Second

// Ledger is an in-memory store of approval requests. All read-modify-write
// sequences run under a single mutex so that Decide and the lazy-expiry path
// in Get cannot interleave: concurrent decisions on one id yield exactly one
// success.
//
// Entries are not durable across restarts; a restart voids all pending
// approvals, which is the safe direction to fail.
type Ledger struct {
	mu       sync.Mutex
	requests map[string]*model.ApprovalRequest
	ttl      time.Duration
	now      func() time.Time
}

func NewLedger(ttl time.Duration) *Ledger {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Ledger{
		requests: make(map[string]*model.ApprovalRequest),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Create registers a new pending approval request for a statement. The
// operation kind and target are derived once, here, and never change.
func (l *Ledger) Create(statement string) *model.ApprovalRequest {
	c := classifier.Classify(statement)
	now := l.now()

	req := &model.ApprovalRequest{
		ID:          uuid.NewString(),
		Statement:   statement,
		Kind:        c.Kind,
		TargetName:  c.Target,
		Description: model.Describe(c.Kind, c.Target),
		Status:      model.ApprovalStatusPending,
		CreatedAt:   now,
		ExpiresAt:   now.Add(l.ttl),
	}

	l.mu.Lock()
	l.requests[req.ID] = req
	l.mu.Unlock()

	log.Info().
		Str("approvalId", req.ID).
		Str("operationKind", string(req.Kind)).
		Time("expiresAt", req.ExpiresAt).
		Msg("approval request created")

	return copyRequest(req)
}

// Get returns a snapshot of a request, applying the lazy expiry check first:
// a pending request whose TTL has passed transitions to expired before it is
// returned. Unknown ids (never created, or already swept) yield NOT_FOUND.
func (l *Ledger) Get(id string) (*model.ApprovalRequest, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	req, ok := l.requests[id]
	if !ok {
		return nil, apperrors.NotFound("Approval request")
	}

	l.expireLocked(req)
	return copyRequest(req), nil
}

// Decide applies a terminal approve/deny transition. It fails with
// ALREADY_DECIDED if the request is no longer pending, and with
// APPROVAL_EXPIRED if the TTL passed before the decision landed. Exactly one
// concurrent Decide per id can succeed.
func (l *Ledger) Decide(id string, decision model.Decision, actor string) (*model.ApprovalRequest, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	req, ok := l.requests[id]
	if !ok {
		return nil, apperrors.NotFound("Approval request")
	}

	if l.expireLocked(req) {
		return nil, apperrors.ApprovalExpired()
	}

	if req.Status.Terminal() {
		return nil, apperrors.AlreadyDecided(string(req.Status))
	}

	var target model.ApprovalStatus
	switch decision {
	case model.DecisionApprove:
		target = model.ApprovalStatusApproved
	case model.DecisionDeny:
		target = model.ApprovalStatusDenied
	default:
		return nil, apperrors.InvalidInput("decision", string(decision))
	}

	decidedAt := l.now()
	req.Status = target
	req.DecidedAt = &decidedAt
	req.DecidedBy = &actor

	log.Info().
		Str("approvalId", id).
		Str("status", string(req.Status)).
		Str("actor", actor).
		Msg("approval request decided")

	return copyRequest(req), nil
}

// ListPending returns snapshots of all requests still awaiting a decision.
// Requests found expired along the way are transitioned, not listed.
func (l *Ledger) ListPending() []model.ApprovalRequest {
	l.mu.Lock()
	defer l.mu.Unlock()

	pending := make([]model.ApprovalRequest, 0)
	for _, req := range l.requests {
		if l.expireLocked(req) {
			continue
		}
		if req.Status == model.ApprovalStatusPending {
			pending = append(pending, *copyRequest(req))
		}
	}
	return pending
}

// Sweep removes every entry whose TTL has passed, regardless of status, and
// returns the number removed. Correctness never depends on Sweep running;
// it only bounds memory.
func (l *Ledger) Sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	removed := 0
	for id, req := range l.requests {
		if req.ExpiredAt(now) {
			delete(l.requests, id)
			removed++
		}
	}
	return removed
}

// Len reports the number of tracked requests, including decided ones that
// have not been swept yet.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.requests)
}

// expireLocked transitions a pending request past its TTL to expired.
// Caller must hold l.mu. Reports whether the request is expired.
func (l *Ledger) expireLocked(req *model.ApprovalRequest) bool {
	if req.Status == model.ApprovalStatusExpired {
		return true
	}
	if req.Status == model.ApprovalStatusPending && req.ExpiredAt(l.now()) {
		req.Status = model.ApprovalStatusExpired
		log.Debug().Str("approvalId", req.ID).Msg("approval request lazily expired")
		audit.Log(audit.Event{Type: audit.EventApprovalExpired, ApprovalID: req.ID})
		return true
	}
	return false
}

func copyRequest(req *model.ApprovalRequest) *model.ApprovalRequest {
	out := *req
	return &out
}

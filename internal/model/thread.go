package model

import (
	"time"
)

type Message struct {
	Role      MessageRole `json:"role"`
	Content   string      `json:"content"`
	CreatedAt time.Time   `json:"createdAt"`
}

// PendingGate carries a dangerous statement parked for human sign-off.
// ApprovalID is set when the gate registers the statement with the ledger;
// a gate is consumed (cleared) exactly once, before the statement executes.
type PendingGate struct {
	Statement  string        `json:"statement"`
	ApprovalID string        `json:"approvalId"`
	Kind       OperationKind `json:"operationKind"`
	Target     *string       `json:"target,omitempty"`
}

type ConversationThread struct {
	ID           string    `json:"threadId"`
	Messages     []Message `json:"messages"`
	Gate         *PendingGate
	CreatedAt    time.Time `json:"createdAt"`
	LastActivity time.Time `json:"lastActivity"`
}

// ThreadInfo is the listing view of a thread, without message bodies.
type ThreadInfo struct {
	ThreadID     string    `json:"threadId"`
	MessageCount int       `json:"messageCount"`
	HasPending   bool      `json:"hasPendingApproval"`
	CreatedAt    time.Time `json:"createdAt"`
	LastActivity time.Time `json:"lastActivity"`
}

package model

import (
	"fmt"
	"time"
)

type ApprovalRequest struct {
	ID          string         `json:"id"`
	Statement   string         `json:"statement"`
	Kind        OperationKind  `json:"operationKind"`
	TargetName  *string        `json:"targetName,omitempty"`
	Description string         `json:"description"`
	Status      ApprovalStatus `json:"status"`
	CreatedAt   time.Time      `json:"createdAt"`
	ExpiresAt   time.Time      `json:"expiresAt"`
	DecidedAt   *time.Time     `json:"decidedAt,omitempty"`
	DecidedBy   *string        `json:"decidedBy,omitempty"`
}

// ExpiredAt reports whether the request's TTL has passed at the given instant.
func (r *ApprovalRequest) ExpiredAt(now time.Time) bool {
	return now.After(r.ExpiresAt)
}

// Describe builds the human-readable operation summary shown in approval
// prompts and audit entries.
func Describe(kind OperationKind, target *string) string {
	if target != nil && *target != "" {
		return fmt.Sprintf("%s operation on table '%s'", kind, *target)
	}
	return fmt.Sprintf("%s operation", kind)
}

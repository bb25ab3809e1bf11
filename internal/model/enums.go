package model

type ApprovalStatus string

const (
	ApprovalStatusPending  ApprovalStatus = "pending"
	ApprovalStatusApproved ApprovalStatus = "approved"
	ApprovalStatusDenied   ApprovalStatus = "denied"
	ApprovalStatusExpired  ApprovalStatus = "expired"
)

// Terminal reports whether the status can no longer change.
func (s ApprovalStatus) Terminal() bool {
	return s != ApprovalStatusPending
}

type OperationKind string

const (
	OperationDrop       OperationKind = "DROP"
	OperationDelete     OperationKind = "DELETE"
	OperationAlter      OperationKind = "ALTER"
	OperationTruncate   OperationKind = "TRUNCATE"
	OperationMassUpdate OperationKind = "MASS_UPDATE"
	OperationUnknown    OperationKind = "UNKNOWN"
)

type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionDeny    Decision = "deny"
)

type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

package model

// ExecutionResult is the outcome of running one SQL statement against the
// target database. Failures are carried as data; callers never retry.
type ExecutionResult struct {
	Success   bool             `json:"success"`
	QueryType string           `json:"queryType"`
	Message   string           `json:"message,omitempty"`
	Error     string           `json:"error,omitempty"`
	Columns   []string         `json:"columns,omitempty"`
	Rows      []map[string]any `json:"data,omitempty"`
	RowCount  int64            `json:"rowCount"`
}

// Package executor runs SQL statements against the target database and
// reports outcomes as data rather than errors, so a failed statement becomes
// part of the conversation instead of aborting it.
package executor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/openclaw/dbagent-server-go/internal/audit"
	"github.com/openclaw/dbagent-server-go/internal/database"
	"github.com/openclaw/dbagent-server-go/internal/model"
)

// maxRows caps result sets handed back to the model and the client.
const maxRows = 500

type SQLExecutor struct {
	db *database.DB
}

func NewSQLExecutor(db *database.DB) *SQLExecutor {
	return &SQLExecutor{db: db}
}

// Execute runs one statement. Row-returning statements come back with columns
// and rows; everything else reports rows affected. Database errors are folded
// into the result, never returned, so the caller can narrate the failure.
func (e *SQLExecutor) Execute(ctx context.Context, statement string) *model.ExecutionResult {
	start := time.Now()

	var result *model.ExecutionResult
	if returnsRows(statement) {
		result = e.query(ctx, statement)
	} else {
		result = e.exec(ctx, statement)
	}

	evt := log.Info()
	if !result.Success {
		evt = log.Warn()
	}
	evt.
		Str("queryType", result.QueryType).
		Bool("success", result.Success).
		Int64("rowCount", result.RowCount).
		Dur("elapsed", time.Since(start)).
		Msg("statement executed")

	eventType := audit.EventStatementRun
	details := map[string]interface{}{
		"query_type": result.QueryType,
		"row_count":  result.RowCount,
	}
	if !result.Success {
		eventType = audit.EventStatementFailed
		details["error"] = result.Error
	}
	audit.Log(audit.Event{Type: eventType, Details: details})

	return result
}

func (e *SQLExecutor) query(ctx context.Context, statement string) *model.ExecutionResult {
	rows, err := e.db.QueryxContext(ctx, statement)
	if err != nil {
		return failure("query", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return failure("query", err)
	}

	data := make([]map[string]any, 0)
	truncated := false
	for rows.Next() {
		if len(data) >= maxRows {
			truncated = true
			break
		}
		row := make(map[string]any)
		if err := rows.MapScan(row); err != nil {
			return failure("query", err)
		}
		for k, v := range row {
			if b, ok := v.([]byte); ok {
				row[k] = string(b)
			}
		}
		data = append(data, row)
	}
	if err := rows.Err(); err != nil {
		return failure("query", err)
	}

	message := fmt.Sprintf("Query returned %d row(s)", len(data))
	if truncated {
		message = fmt.Sprintf("Query returned more than %d rows, showing the first %d", maxRows, maxRows)
	}

	return &model.ExecutionResult{
		Success:   true,
		QueryType: "query",
		Message:   message,
		Columns:   columns,
		Rows:      data,
		RowCount:  int64(len(data)),
	}
}

func (e *SQLExecutor) exec(ctx context.Context, statement string) *model.ExecutionResult {
	res, err := e.db.ExecContext(ctx, statement)
	if err != nil {
		return failure("exec", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		// Statements like CREATE TABLE have no affected-row count on some
		// drivers; the execution itself still succeeded.
		affected = 0
	}

	return &model.ExecutionResult{
		Success:   true,
		QueryType: "exec",
		Message:   fmt.Sprintf("Statement executed, %d row(s) affected", affected),
		RowCount:  affected,
	}
}

func failure(queryType string, err error) *model.ExecutionResult {
	return &model.ExecutionResult{
		Success:   false,
		QueryType: queryType,
		Error:     err.Error(),
	}
}

// returnsRows distinguishes row-producing statements from ones that only
// report an affected count.
func returnsRows(statement string) bool {
	head := strings.ToUpper(strings.TrimSpace(statement))
	for _, prefix := range []string{"SELECT", "SHOW", "DESCRIBE", "EXPLAIN", "WITH"} {
		if strings.HasPrefix(head, prefix) {
			return true
		}
	}
	return false
}

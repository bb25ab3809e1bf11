package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/openclaw/dbagent-server-go/internal/errors"
	"github.com/openclaw/dbagent-server-go/internal/model"
	"github.com/openclaw/dbagent-server-go/internal/schemainfo"
	"github.com/openclaw/dbagent-server-go/internal/util"
)

const (
	defaultTableLimit = 10
	maxTableLimit     = 100
)

// StatementRunner is the slice of the executor the data endpoints need.
type StatementRunner interface {
	Execute(ctx context.Context, statement string) *model.ExecutionResult
}

// SchemaDescriber is the slice of the schema inspector the data endpoints need.
type SchemaDescriber interface {
	Describe(ctx context.Context) (*schemainfo.DatabaseInfo, error)
}

// DataHandler serves direct table reads and schema info without going
// through the conversational workflow.
type DataHandler struct {
	inspector SchemaDescriber
	runner    StatementRunner
}

func NewDataHandler(inspector SchemaDescriber, runner StatementRunner) *DataHandler {
	return &DataHandler{inspector: inspector, runner: runner}
}

func (h *DataHandler) TableData(w http.ResponseWriter, r *http.Request) {
	tableName := chi.URLParam(r, "tableName")
	if !util.IsValidIdentifier(tableName) {
		writeError(w, apperrors.InvalidInput("table name", tableName))
		return
	}

	limit := defaultTableLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeError(w, apperrors.ValidationError("limit must be a positive integer"))
			return
		}
		if parsed > maxTableLimit {
			parsed = maxTableLimit
		}
		limit = parsed
	}

	// tableName passed the identifier check above; the limit is an integer.
	result := h.runner.Execute(r.Context(), fmt.Sprintf("SELECT * FROM %s LIMIT %d", tableName, limit))

	if !result.Success {
		writeJSON(w, http.StatusOK, map[string]any{
			"success":    false,
			"error":      result.Error,
			"data":       []any{},
			"table_name": tableName,
			"timestamp":  nowISO(),
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"data":       result.Rows,
		"columns":    result.Columns,
		"row_count":  result.RowCount,
		"table_name": tableName,
		"limit":      limit,
		"timestamp":  nowISO(),
	})
}

func (h *DataHandler) DatabaseInfo(w http.ResponseWriter, r *http.Request) {
	info, err := h.inspector.Describe(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	names := make([]string, 0, len(info.Tables))
	tables := make(map[string]any, len(info.Tables))
	for _, table := range info.Tables {
		names = append(names, table.Name)
		tables[table.Name] = table.Columns
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"total_tables": len(info.Tables),
		"table_names":  names,
		"tables":       tables,
	})
}

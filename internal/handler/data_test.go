package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openclaw/dbagent-server-go/internal/model"
	"github.com/openclaw/dbagent-server-go/internal/schemainfo"
)

type recordingRunner struct {
	statement string
	result    *model.ExecutionResult
}

func (r *recordingRunner) Execute(ctx context.Context, statement string) *model.ExecutionResult {
	r.statement = statement
	return r.result
}

type stubDescriber struct {
	info *schemainfo.DatabaseInfo
	err  error
}

func (s stubDescriber) Describe(ctx context.Context) (*schemainfo.DatabaseInfo, error) {
	return s.info, s.err
}

func newDataServer(runner StatementRunner, describer SchemaDescriber) http.Handler {
	h := NewDataHandler(describer, runner)
	r := chi.NewRouter()
	r.Get("/table-data/{tableName}", h.TableData)
	r.Get("/database-info", h.DatabaseInfo)
	return r
}

func TestTableData(t *testing.T) {
	t.Run("returns rows", func(t *testing.T) {
		runner := &recordingRunner{result: &model.ExecutionResult{
			Success:   true,
			QueryType: "query",
			Columns:   []string{"id", "name"},
			Rows:      []map[string]any{{"id": float64(1), "name": "a"}},
			RowCount:  1,
		}}
		h := newDataServer(runner, stubDescriber{})

		req := httptest.NewRequest(http.MethodGet, "/table-data/users?limit=5", nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		assert.Equal(t, "SELECT * FROM users LIMIT 5", runner.statement)

		var resp struct {
			Success  bool             `json:"success"`
			RowCount int64            `json:"row_count"`
			Columns  []string         `json:"columns"`
			Data     []map[string]any `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		assert.Equal(t, int64(1), resp.RowCount)
	})

	t.Run("default and capped limit", func(t *testing.T) {
		runner := &recordingRunner{result: &model.ExecutionResult{Success: true}}
		h := newDataServer(runner, stubDescriber{})

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/table-data/users", nil))
		assert.Equal(t, "SELECT * FROM users LIMIT 10", runner.statement)

		rec = httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/table-data/users?limit=5000", nil))
		assert.Equal(t, "SELECT * FROM users LIMIT 100", runner.statement)
	})

	t.Run("rejects invalid table names", func(t *testing.T) {
		runner := &recordingRunner{result: &model.ExecutionResult{Success: true}}
		h := newDataServer(runner, stubDescriber{})

		for _, name := range []string{"users%3B%20DROP%20TABLE%20users", "1users", "a-b"} {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/table-data/"+name, nil))
			assert.Equal(t, http.StatusBadRequest, rec.Code, name)
		}
		assert.Empty(t, runner.statement)
	})

	t.Run("rejects invalid limit", func(t *testing.T) {
		runner := &recordingRunner{result: &model.ExecutionResult{Success: true}}
		h := newDataServer(runner, stubDescriber{})

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/table-data/users?limit=abc", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("execution failure is reported as data", func(t *testing.T) {
		runner := &recordingRunner{result: &model.ExecutionResult{
			Success: false,
			Error:   `relation "users" does not exist`,
		}}
		h := newDataServer(runner, stubDescriber{})

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/table-data/users", nil))
		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Success bool   `json:"success"`
			Error   string `json:"error"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.False(t, resp.Success)
		assert.Contains(t, resp.Error, "does not exist")
	})
}

func TestDatabaseInfo(t *testing.T) {
	t.Run("lists tables", func(t *testing.T) {
		describer := stubDescriber{info: &schemainfo.DatabaseInfo{Tables: []schemainfo.Table{
			{Name: "users", Columns: []schemainfo.Column{{Name: "id", DataType: "integer"}}},
			{Name: "orders"},
		}}}
		h := newDataServer(&recordingRunner{}, describer)

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/database-info", nil))
		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			TotalTables int      `json:"total_tables"`
			TableNames  []string `json:"table_names"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, 2, resp.TotalTables)
		assert.Equal(t, []string{"users", "orders"}, resp.TableNames)
	})

	t.Run("database failure is 500", func(t *testing.T) {
		h := newDataServer(&recordingRunner{}, stubDescriber{err: assert.AnError})

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/database-info", nil))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

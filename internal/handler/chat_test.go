package handler

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openclaw/dbagent-server-go/internal/approval"
	"github.com/openclaw/dbagent-server-go/internal/delivery"
	apperrors "github.com/openclaw/dbagent-server-go/internal/errors"
	"github.com/openclaw/dbagent-server-go/internal/model"
	"github.com/openclaw/dbagent-server-go/internal/thread"
	"github.com/openclaw/dbagent-server-go/internal/workflow"
)

// Stub collaborators route every message to a database operation, generate a
// fixed statement, and echo execution context back as the reply.

type stubRouter struct{ intent workflow.Intent }

func (s stubRouter) Route(ctx context.Context, message string, history []model.Message) (workflow.Intent, error) {
	return s.intent, nil
}

type stubGenerator struct{ statement string }

func (s stubGenerator) Generate(ctx context.Context, message string, history []model.Message) (string, error) {
	return s.statement, nil
}

type stubResponder struct{ reply string }

func (s stubResponder) Respond(ctx context.Context, message string, contextInfo string, history []model.Message) (string, error) {
	return s.reply, nil
}

type stubExecutor struct {
	result *model.ExecutionResult
	calls  int
}

func (s *stubExecutor) Execute(ctx context.Context, statement string) *model.ExecutionResult {
	s.calls++
	return s.result
}

type chatFixture struct {
	handler  *ChatHandler
	threads  *thread.Store
	ledger   *approval.Ledger
	sessions *delivery.Registry
	executor *stubExecutor
}

func newChatFixture(t *testing.T, statement string, reply string) *chatFixture {
	t.Helper()

	threads := thread.NewStore()
	ledger := approval.NewLedger(300 * time.Second)
	sessions := delivery.NewRegistry()
	exec := &stubExecutor{result: &model.ExecutionResult{Success: true, QueryType: "query", RowCount: 1}}

	wf := workflow.New(
		threads, ledger,
		stubRouter{intent: workflow.IntentOperate},
		stubGenerator{statement: statement},
		stubResponder{reply: reply},
		exec,
	)

	return &chatFixture{
		handler:  NewChatHandler(wf, threads, sessions, 0),
		threads:  threads,
		ledger:   ledger,
		sessions: sessions,
		executor: exec,
	}
}

func postJSON(t *testing.T, handler http.HandlerFunc, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestChat(t *testing.T) {
	t.Run("safe statement responds with reply", func(t *testing.T) {
		f := newChatFixture(t, "SELECT * FROM users", "1 row found")

		rec := postJSON(t, f.handler.Chat, "/chat", map[string]string{
			"query": "show users", "thread_id": "t1",
		})
		require.Equal(t, http.StatusOK, rec.Code)

		var resp chatResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "1 row found", resp.Response)
		assert.Equal(t, "t1", resp.ThreadID)
		assert.False(t, resp.HumanApprovalRequired)
		assert.Equal(t, 1, f.executor.calls)
	})

	t.Run("dangerous statement flags approval", func(t *testing.T) {
		f := newChatFixture(t, "DROP TABLE users", "unused")

		rec := postJSON(t, f.handler.Chat, "/chat", map[string]string{
			"query": "drop users", "thread_id": "t1",
		})
		require.Equal(t, http.StatusOK, rec.Code)

		var resp chatResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.True(t, resp.HumanApprovalRequired)
		assert.Equal(t, "DROP", resp.OperationType)
		assert.Contains(t, resp.Response, "DANGEROUS OPERATION DETECTED")
		assert.Equal(t, 0, f.executor.calls)
	})

	t.Run("missing thread id creates one", func(t *testing.T) {
		f := newChatFixture(t, "SELECT 1", "done")

		rec := postJSON(t, f.handler.Chat, "/chat", map[string]string{"query": "anything"})
		require.Equal(t, http.StatusOK, rec.Code)

		var resp chatResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.NotEmpty(t, resp.ThreadID)
	})

	t.Run("missing query is rejected", func(t *testing.T) {
		f := newChatFixture(t, "SELECT 1", "done")

		rec := postJSON(t, f.handler.Chat, "/chat", map[string]string{"thread_id": "t1"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("malformed body is rejected", func(t *testing.T) {
		f := newChatFixture(t, "SELECT 1", "done")

		req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader("{not json"))
		rec := httptest.NewRecorder()
		f.handler.Chat(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func decodeFrames(t *testing.T, body *bytes.Buffer) []streamFrame {
	t.Helper()
	var frames []streamFrame
	scanner := bufio.NewScanner(body)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var frame streamFrame
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &frame))
		frames = append(frames, frame)
	}
	return frames
}

func TestStream(t *testing.T) {
	t.Run("chunks reply two words at a time", func(t *testing.T) {
		f := newChatFixture(t, "SELECT 1", "one two three four five")

		rec := postJSON(t, f.handler.Stream, "/chat/stream", map[string]string{
			"query": "count", "thread_id": "t1",
		})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
		assert.NotEmpty(t, rec.Header().Get("X-Session-ID"))

		frames := decodeFrames(t, rec.Body)
		require.Len(t, frames, 3)

		var full strings.Builder
		for i, frame := range frames {
			assert.Equal(t, "text", frame.ChunkType)
			assert.Equal(t, "t1", frame.ThreadID)
			assert.Equal(t, i == len(frames)-1, frame.IsFinal)
			full.WriteString(frame.Chunk)
		}
		assert.Equal(t, "one two three four five", full.String())
	})

	t.Run("approval prompt is sent unchunked", func(t *testing.T) {
		f := newChatFixture(t, "DROP TABLE users", "unused")

		rec := postJSON(t, f.handler.Stream, "/chat/stream", map[string]string{
			"query": "drop users", "thread_id": "t1",
		})
		require.Equal(t, http.StatusOK, rec.Code)

		frames := decodeFrames(t, rec.Body)
		require.Len(t, frames, 1)
		assert.Equal(t, "human_approval", frames[0].ChunkType)
		assert.True(t, frames[0].IsFinal)
		assert.True(t, frames[0].RequiresApproval)
		assert.Contains(t, frames[0].Chunk, "DANGEROUS OPERATION DETECTED")
	})

	t.Run("session is closed at end of stream", func(t *testing.T) {
		f := newChatFixture(t, "SELECT 1", "short reply")

		rec := postJSON(t, f.handler.Stream, "/chat/stream", map[string]string{
			"query": "count", "thread_id": "t1",
		})
		sessionID := rec.Header().Get("X-Session-ID")
		require.NotEmpty(t, sessionID)
		assert.False(t, f.sessions.Active(sessionID))

		// Finished sessions are removed, not parked.
		_, err := f.sessions.Get(sessionID)
		assert.Equal(t, apperrors.ErrCodeNotFound, apperrors.GetCode(err))
	})
}

func TestStop(t *testing.T) {
	t.Run("stops an active session", func(t *testing.T) {
		f := newChatFixture(t, "SELECT 1", "reply")
		sessionID := f.sessions.Open("t1")

		rec := postJSON(t, f.handler.Stop, "/stop", map[string]string{"session_id": sessionID})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.False(t, f.sessions.Active(sessionID))
	})

	t.Run("unknown session is 404", func(t *testing.T) {
		f := newChatFixture(t, "SELECT 1", "reply")

		rec := postJSON(t, f.handler.Stop, "/stop", map[string]string{"session_id": "nope"})
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("missing session id is rejected", func(t *testing.T) {
		f := newChatFixture(t, "SELECT 1", "reply")

		rec := postJSON(t, f.handler.Stop, "/stop", map[string]string{})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestSessions(t *testing.T) {
	f := newChatFixture(t, "SELECT 1", "reply")
	active := f.sessions.Open("t1")
	stopped := f.sessions.Open("t2")
	require.NoError(t, f.sessions.Stop(stopped))

	req := httptest.NewRequest(http.MethodGet, "/sessions", nil)
	rec := httptest.NewRecorder()
	f.handler.Sessions(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Sessions    []model.DeliverySession `json:"sessions"`
		TotalActive int                     `json:"total_active"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.TotalActive)
	assert.Equal(t, active, resp.Sessions[0].ID)
}

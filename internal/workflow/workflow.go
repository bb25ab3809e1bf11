// Package workflow drives one conversation turn: route the user's intent,
// generate and classify SQL, park dangerous statements behind a human
// approval gate, and narrate outcomes.
package workflow

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/openclaw/dbagent-server-go/internal/approval"
	"github.com/openclaw/dbagent-server-go/internal/classifier"
	"github.com/openclaw/dbagent-server-go/internal/model"
	"github.com/openclaw/dbagent-server-go/internal/thread"
)

// Intent is the router's verdict on what a user turn asks for.
type Intent string

const (
	IntentOperate Intent = "database_operation"
	IntentRespond Intent = "response"
	IntentEnd     Intent = "end"
)

// Sentinel inputs the client sends to resume a turn parked on an approval
// gate. They are control signals, not conversation, and never reach the
// router.
const (
	SentinelApproved = "__APPROVED__"
	SentinelDenied   = "__DENIED__"
)

// IntentRouter decides what a user message asks for.
type IntentRouter interface {
	Route(ctx context.Context, message string, history []model.Message) (Intent, error)
}

// StatementGenerator turns a natural-language request into one SQL statement.
// An empty statement means the request needs no SQL.
type StatementGenerator interface {
	Generate(ctx context.Context, message string, history []model.Message) (string, error)
}

// Responder produces the final conversational text for a turn.
type Responder interface {
	Respond(ctx context.Context, message string, contextInfo string, history []model.Message) (string, error)
}

// Executor runs a SQL statement. Failures arrive as data in the result.
type Executor interface {
	Execute(ctx context.Context, statement string) *model.ExecutionResult
}

type Workflow struct {
	threads   *thread.Store
	ledger    *approval.Ledger
	router    IntentRouter
	generator StatementGenerator
	responder Responder
	executor  Executor
}

func New(threads *thread.Store, ledger *approval.Ledger, router IntentRouter, generator StatementGenerator, responder Responder, executor Executor) *Workflow {
	return &Workflow{
		threads:   threads,
		ledger:    ledger,
		router:    router,
		generator: generator,
		responder: responder,
		executor:  executor,
	}
}

// Step processes one user turn for a thread and returns the assistant's
// reply. A thread with a pending gate handles the turn as an approval poll;
// otherwise the turn is routed, and dangerous statements are parked instead
// of executed.
func (w *Workflow) Step(ctx context.Context, threadID string, input string) (string, error) {
	if input != SentinelApproved && input != SentinelDenied {
		w.threads.Append(threadID, model.RoleUser, input)
	}

	reply := w.step(ctx, threadID, input)
	w.threads.Append(threadID, model.RoleAssistant, reply)
	return reply, nil
}

func (w *Workflow) step(ctx context.Context, threadID string, input string) string {
	if gate := w.threads.Gate(threadID); gate != nil {
		return w.resolveGate(ctx, threadID, *gate)
	}

	if input == SentinelApproved || input == SentinelDenied {
		return "No pending approval found for this conversation."
	}

	history := w.threads.History(threadID)

	intent, err := w.router.Route(ctx, input, history)
	if err != nil {
		log.Warn().Err(err).Str("threadId", threadID).Msg("intent routing failed, falling back to response")
		intent = IntentRespond
	}

	switch intent {
	case IntentOperate:
		return w.operate(ctx, threadID, input, history)
	case IntentEnd:
		return "Goodbye. Start a new message anytime to continue working with the database."
	default:
		return w.respond(ctx, threadID, input, "")
	}
}

func (w *Workflow) operate(ctx context.Context, threadID string, input string, history []model.Message) string {
	statement, err := w.generator.Generate(ctx, input, history)
	if err != nil {
		log.Warn().Err(err).Str("threadId", threadID).Msg("statement generation failed")
		return w.respond(ctx, threadID, input, "The SQL for this request could not be generated.")
	}
	if statement == "" {
		return w.respond(ctx, threadID, input, "")
	}

	c := classifier.Classify(statement)
	if c.Dangerous {
		req := w.ledger.Create(statement)
		w.threads.SetGate(threadID, model.PendingGate{
			Statement:  statement,
			ApprovalID: req.ID,
			Kind:       req.Kind,
			Target:     req.TargetName,
		})
		log.Info().
			Str("threadId", threadID).
			Str("approvalId", req.ID).
			Str("operationKind", string(req.Kind)).
			Msg("dangerous statement parked for approval")
		return approvalPrompt(req)
	}

	result := w.executor.Execute(ctx, statement)
	return w.respond(ctx, threadID, input, executionContext(statement, result))
}

// resolveGate polls the ledger for the gate's verdict. The gate is cleared
// before an approved statement runs, so a crash mid-execution can never
// replay it.
func (w *Workflow) resolveGate(ctx context.Context, threadID string, gate model.PendingGate) string {
	req, err := w.ledger.Get(gate.ApprovalID)
	if err != nil {
		w.threads.ClearGate(threadID)
		return "The approval request for the pending operation no longer exists. The operation was cancelled and nothing was executed."
	}

	switch req.Status {
	case model.ApprovalStatusApproved:
		taken, ok := w.threads.ClearGate(threadID)
		if !ok {
			return "No pending approval found for this conversation."
		}
		result := w.executor.Execute(ctx, taken.Statement)
		if result.Success {
			return fmt.Sprintf("Approved operation executed successfully.\n```sql\n%s\n```\n%s", taken.Statement, result.Message)
		}
		return fmt.Sprintf("Approved operation failed.\n```sql\n%s\n```\nError: %s", taken.Statement, result.Error)

	case model.ApprovalStatusDenied:
		w.threads.ClearGate(threadID)
		return "Operation cancelled. No changes were made to the database."

	case model.ApprovalStatusExpired:
		w.threads.ClearGate(threadID)
		return "The approval request expired before a decision was made. The operation was cancelled and nothing was executed."

	default:
		return approvalPrompt(req)
	}
}

func (w *Workflow) respond(ctx context.Context, threadID string, input string, contextInfo string) string {
	text, err := w.responder.Respond(ctx, input, contextInfo, w.threads.History(threadID))
	if err != nil {
		log.Warn().Err(err).Str("threadId", threadID).Msg("response generation failed")
		if contextInfo != "" {
			return contextInfo
		}
		return "I'm sorry, I couldn't process your request. Please try again."
	}
	return text
}

// approvalPrompt renders the message a client turns into an approval dialog.
// Re-polling a still-pending gate renders the same prompt again.
func approvalPrompt(req *model.ApprovalRequest) string {
	target := "Unknown"
	if req.TargetName != nil && *req.TargetName != "" {
		target = *req.TargetName
	}
	return fmt.Sprintf(`⚠️ **DANGEROUS OPERATION DETECTED** ⚠️

I need your approval to execute this potentially dangerous database operation:

**Operation Type:** %s
**Table:** %s
**SQL Query:**
`+"```sql\n%s\n```"+`

This operation could modify or delete data in your database. Please review the query above and confirm your decision.

**Approval ID:** %s`, req.Kind, target, req.Statement, req.ID)
}

func executionContext(statement string, result *model.ExecutionResult) string {
	if !result.Success {
		return fmt.Sprintf("The statement %q failed: %s", statement, result.Error)
	}
	if result.QueryType == "query" {
		return fmt.Sprintf("The statement returned %d row(s). Columns: %v. Data: %v", result.RowCount, result.Columns, result.Rows)
	}
	return fmt.Sprintf("The statement succeeded: %s", result.Message)
}

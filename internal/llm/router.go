package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"

	"github.com/openclaw/dbagent-server-go/internal/model"
	"github.com/openclaw/dbagent-server-go/internal/workflow"
)

// Router classifies a user turn into one of the workflow intents.
type Router struct {
	client *Client
}

func NewRouter(client *Client) *Router {
	return &Router{client: client}
}

func (r *Router) Route(ctx context.Context, message string, history []model.Message) (workflow.Intent, error) {
	prompt := fmt.Sprintf(routerPromptTemplate, message, renderHistory(history, 6))

	raw, err := r.client.Complete(ctx,
		openai.SystemMessage(systemPrompt),
		openai.UserMessage(prompt),
	)
	if err != nil {
		return "", err
	}

	// Models occasionally wrap the action name in prose or quotes; match on
	// containment rather than equality.
	verdict := strings.ToLower(raw)
	switch {
	case strings.Contains(verdict, string(workflow.IntentOperate)):
		return workflow.IntentOperate, nil
	case strings.Contains(verdict, string(workflow.IntentEnd)):
		return workflow.IntentEnd, nil
	default:
		return workflow.IntentRespond, nil
	}
}

// renderHistory formats the tail of a transcript for inclusion in a prompt.
func renderHistory(history []model.Message, max int) string {
	if len(history) == 0 {
		return "(no prior messages)"
	}
	if len(history) > max {
		history = history[len(history)-max:]
	}
	lines := make([]string, 0, len(history))
	for _, msg := range history {
		lines = append(lines, fmt.Sprintf("%s: %s", msg.Role, msg.Content))
	}
	return strings.Join(lines, "\n")
}

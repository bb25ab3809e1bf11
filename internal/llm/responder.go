package llm

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"

	"github.com/openclaw/dbagent-server-go/internal/model"
)

// Responder drafts the final conversational reply for a turn.
type Responder struct {
	client *Client
}

func NewResponder(client *Client) *Responder {
	return &Responder{client: client}
}

func (r *Responder) Respond(ctx context.Context, message string, contextInfo string, history []model.Message) (string, error) {
	if contextInfo == "" {
		contextInfo = "(no operation was performed this turn)"
	}
	prompt := fmt.Sprintf(responderPromptTemplate, contextInfo, message)

	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(systemPrompt),
	}
	for _, msg := range tail(history, 6) {
		switch msg.Role {
		case model.RoleAssistant:
			messages = append(messages, openai.AssistantMessage(msg.Content))
		default:
			messages = append(messages, openai.UserMessage(msg.Content))
		}
	}
	messages = append(messages, openai.UserMessage(prompt))

	return r.client.Complete(ctx, messages...)
}

func tail(history []model.Message, max int) []model.Message {
	if len(history) > max {
		return history[len(history)-max:]
	}
	return history
}

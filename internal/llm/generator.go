package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/rs/zerolog/log"

	"github.com/openclaw/dbagent-server-go/internal/model"
	"github.com/openclaw/dbagent-server-go/internal/schemainfo"
)

// SchemaSource supplies the schema text given to the generation prompt.
type SchemaSource interface {
	Describe(ctx context.Context) (*schemainfo.DatabaseInfo, error)
}

// Generator turns natural-language requests into single SQL statements,
// grounded on the live schema.
type Generator struct {
	client *Client
	schema SchemaSource
}

func NewGenerator(client *Client, schema SchemaSource) *Generator {
	return &Generator{client: client, schema: schema}
}

// Generate returns the SQL for a request, or "" when the request needs none.
func (g *Generator) Generate(ctx context.Context, message string, history []model.Message) (string, error) {
	schemaText := "Schema unavailable."
	if info, err := g.schema.Describe(ctx); err != nil {
		// Generation still works without the schema, just less grounded.
		log.Warn().Err(err).Msg("schema lookup failed, generating without it")
	} else {
		schemaText = schemainfo.FormatForPrompt(info)
	}

	prompt := fmt.Sprintf(generatorPromptTemplate, schemaText, renderHistory(history, 6), message)

	raw, err := g.client.Complete(ctx,
		openai.SystemMessage(systemPrompt),
		openai.UserMessage(prompt),
	)
	if err != nil {
		return "", err
	}

	if strings.EqualFold(strings.TrimSpace(raw), "INFO") {
		return "", nil
	}
	return ExtractSQL(raw), nil
}

// Package prompts renders the assistant's behavioral policy and the request
// messages sent to the model.
package prompts

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/beexo-community/beexy/internal/agent/model"
)

//go:embed template/system_prompt.txt
var systemPrompt string

const (
	historyKey  = "history"
	questionKey = "question"
)

// Builder renders the system policy, the stored history and the new user turn
// into the model request.
type Builder struct {
	config model.PromptConfig
	tpl    prompt.ChatTemplate
}

func NewBuilder(config model.PromptConfig) *Builder {
	return &Builder{
		config: config,
		tpl: prompt.FromMessages(
			schema.GoTemplate,
			schema.SystemMessage(systemPrompt),
			schema.MessagesPlaceholder(historyKey, false),
			schema.UserMessage("{{."+questionKey+"}}"),
		),
	}
}

// Build renders the request. history must be chronological and must not
// include the new turn; userContent is the model-facing question.
func (b *Builder) Build(ctx context.Context, history []*schema.Message, userContent string) ([]*schema.Message, error) {
	if history == nil {
		history = []*schema.Message{}
	}
	// Render via Eino prompt component (Go template) to both format and emit callbacks
	msgs, err := b.tpl.Format(ctx, map[string]any{
		"PersonaName": b.config.PersonaName,
		"ProductName": b.config.ProductName,
		historyKey:    history,
		questionKey:   userContent,
	})
	if err != nil {
		return nil, fmt.Errorf("prompt render: %w", err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return nil, fmt.Errorf("prompt render: empty result")
	}
	return msgs, nil
}

// SystemPrompt renders only the system policy.
func (b *Builder) SystemPrompt(ctx context.Context) (string, error) {
	msgs, err := b.Build(ctx, nil, "")
	if err != nil {
		return "", err
	}
	return msgs[0].Content, nil
}

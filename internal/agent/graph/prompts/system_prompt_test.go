package prompts

import (
	"context"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beexo-community/beexy/internal/agent/model"
)

func TestBuildOrdersMessages(t *testing.T) {
	b := NewBuilder(model.PromptConfig{PersonaName: "BeeXy", ProductName: "Beexo Wallet"})
	history := []*schema.Message{
		schema.UserMessage("hola"),
		schema.AssistantMessage("buenas!", nil),
	}

	msgs, err := b.Build(context.Background(), history, "qué es {{btc}}?")
	require.NoError(t, err)
	require.Len(t, msgs, 4)

	assert.Equal(t, schema.System, msgs[0].Role)
	assert.Contains(t, msgs[0].Content, "Sos BeeXy")
	assert.Contains(t, msgs[0].Content, "comunidad de Beexo Wallet")
	assert.NotContains(t, msgs[0].Content, "{{")
	assert.Equal(t, "hola", msgs[1].Content)
	assert.Equal(t, schema.Assistant, msgs[2].Role)
	assert.Equal(t, schema.User, msgs[3].Role)
	assert.Equal(t, "qué es {{btc}}?", msgs[3].Content)
}

func TestBuildWithoutHistory(t *testing.T) {
	b := NewBuilder(model.PromptConfig{PersonaName: "Bot", ProductName: "Wallet"})

	msgs, err := b.Build(context.Background(), nil, "precio btc")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "precio btc", msgs[1].Content)
}

func TestSystemPrompt(t *testing.T) {
	b := NewBuilder(model.PromptConfig{PersonaName: "BeeXy", ProductName: "Beexo Wallet"})

	got, err := b.SystemPrompt(context.Background())
	require.NoError(t, err)
	assert.Contains(t, got, "Nadie del equipo pide seed phrases")
}

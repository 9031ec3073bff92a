package model

import (
	"context"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
)

func TestComputeCost(t *testing.T) {
	usage := &schema.TokenUsage{PromptTokens: 1_000_000, CompletionTokens: 500_000}
	in, out, total := ComputeCost(usage, ResolvePricing("gemini-2.5-flash"))
	assert.InDelta(t, 0.30, in, 1e-9)
	assert.InDelta(t, 1.25, out, 1e-9)
	assert.InDelta(t, 1.55, total, 1e-9)

	_, _, total = ComputeCost(nil, ResolvePricing("gemini-2.5-flash"))
	assert.Zero(t, total)

	_, _, total = ComputeCost(usage, ResolvePricing("unknown-model"))
	assert.Zero(t, total)
}

func TestParseRole(t *testing.T) {
	assert.Equal(t, RoleAssistant, ParseRole("assistant"))
	assert.Equal(t, RoleUser, ParseRole("user"))
	assert.Equal(t, RoleUser, ParseRole("model"))
}

func TestCycleContext(t *testing.T) {
	assert.Nil(t, CycleFromContext(context.Background()))

	s := &CycleState{UserID: 7}
	ctx := WithCycle(context.Background(), s)
	assert.Same(t, s, CycleFromContext(ctx))
}

func TestContextBlockString(t *testing.T) {
	b := ContextBlock{Label: "LABEL:", Body: "body"}
	assert.Equal(t, "LABEL:\nbody", b.String())
	assert.Equal(t, "body", ContextBlock{Body: "body"}.String())
}

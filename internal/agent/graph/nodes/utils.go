package nodes

import (
	"github.com/cloudwego/eino/schema"

	"github.com/beexo-community/beexy/internal/agent/model"
	logx "github.com/beexo-community/beexy/pkg/logger"
)

// ===== Small helpers to keep handlers simple/readable =====

// recordUsage prices the token usage reported on out, exposes it in
// out.Extra and accumulates the total into state.
func recordUsage(out *schema.Message, state *model.CycleState, modelName string) {
	if out == nil || out.ResponseMeta == nil || out.ResponseMeta.Usage == nil {
		return
	}
	usage := out.ResponseMeta.Usage
	inC, outC, totalC := model.ComputeCost(usage, model.ResolvePricing(modelName))
	if out.Extra == nil {
		out.Extra = map[string]any{}
	}
	out.Extra["usage_cost"] = map[string]any{
		"currency":          "USD",
		"model":             modelName,
		"prompt_tokens":     usage.PromptTokens,
		"completion_tokens": usage.CompletionTokens,
		"total_tokens":      usage.TotalTokens,
		"input_cost":        inC,
		"output_cost":       outC,
		"total_cost":        totalC,
	}
	logx.Debug().
		Str("cycle_id", state.CycleID).
		Int64("user_id", state.UserID).
		Str("node", NodeChatModel).
		Str("model", modelName).
		Int("prompt_tokens", usage.PromptTokens).
		Int("completion_tokens", usage.CompletionTokens).
		Int("total_tokens", usage.TotalTokens).
		Float64("input_cost_usd", inC).
		Float64("output_cost_usd", outC).
		Float64("total_cost_usd", totalC).
		Msg("LLM usage")

	// Accumulate only total cost into state
	state.TotalCostUSD += totalC
	out.Extra["usage_cost_total_usd"] = state.TotalCostUSD
}

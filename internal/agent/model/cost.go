package model

import (
	"github.com/cloudwego/eino/schema"
)

// Pricing defines USD cost per 1M tokens for input/output.
type Pricing struct {
	InputPerM  float64
	OutputPerM float64
}

// defaultPricing provides hardcoded USD pricing per 1M text tokens.
var defaultPricing = map[string]Pricing{
	"gemini-2.5-flash":        {InputPerM: 0.30, OutputPerM: 2.50},
	"gemini-2.5-flash-lite":   {InputPerM: 0.10, OutputPerM: 0.40},
	"gemini-2.5-pro":          {InputPerM: 1.25, OutputPerM: 10.00},
	"gpt-4o-mini":             {InputPerM: 0.15, OutputPerM: 0.60},
	"llama-3.3-70b-versatile": {InputPerM: 0.59, OutputPerM: 0.79},
}

// ResolvePricing returns hardcoded pricing for a model, zero when unknown.
func ResolvePricing(model string) Pricing {
	return defaultPricing[model]
}

// ComputeCost converts token usage to USD cost using per-1M Pricing.
func ComputeCost(usage *schema.TokenUsage, p Pricing) (inputCost, outputCost, total float64) {
	if usage == nil {
		return 0, 0, 0
	}
	inputCost = p.InputPerM * float64(usage.PromptTokens) / 1_000_000.0
	outputCost = p.OutputPerM * float64(usage.CompletionTokens) / 1_000_000.0
	total = inputCost + outputCost
	return
}

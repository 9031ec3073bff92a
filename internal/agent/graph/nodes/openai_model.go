package nodes

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/callbacks"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	openai "github.com/sashabaranov/go-openai"

	"github.com/beexo-community/beexy/internal/agent/model"
)

// OpenAIChatModel serves any OpenAI-compatible chat completions endpoint
// (OpenAI, Groq and the like) as an eino chat model.
type OpenAIChatModel struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
}

func NewOpenAIChatModel(apiKey, baseURL string, cfg model.AssistantModelConfig) *OpenAIChatModel {
	clientCfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		clientCfg.BaseURL = baseURL
	}
	return &OpenAIChatModel{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
	}
}

func (m *OpenAIChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (out *schema.Message, err error) {
	options := einomodel.GetCommonOptions(&einomodel.Options{
		Model:       &m.model,
		MaxTokens:   &m.maxTokens,
		Temperature: &m.temperature,
	}, opts...)

	conf := &einomodel.Config{
		Model:       *options.Model,
		MaxTokens:   *options.MaxTokens,
		Temperature: *options.Temperature,
	}
	ctx = callbacks.OnStart(ctx, &einomodel.CallbackInput{Messages: input, Config: conf})
	defer func() {
		if err != nil {
			callbacks.OnError(ctx, err)
		}
	}()

	req := openai.ChatCompletionRequest{
		Model:       conf.Model,
		MaxTokens:   conf.MaxTokens,
		Temperature: conf.Temperature,
		Messages:    toOpenAIMessages(input),
	}
	resp, err := m.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai: response has no choices")
	}

	choice := resp.Choices[0]
	usage := &schema.TokenUsage{
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
	}
	out = &schema.Message{
		Role:    schema.Assistant,
		Content: choice.Message.Content,
		ResponseMeta: &schema.ResponseMeta{
			FinishReason: string(choice.FinishReason),
			Usage:        usage,
		},
	}

	callbacks.OnEnd(ctx, &einomodel.CallbackOutput{
		Message: out,
		Config:  conf,
		TokenUsage: &einomodel.TokenUsage{
			PromptTokens:     usage.PromptTokens,
			CompletionTokens: usage.CompletionTokens,
			TotalTokens:      usage.TotalTokens,
		},
	})
	return out, nil
}

func (m *OpenAIChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	out, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{out}), nil
}

func (m *OpenAIChatModel) GetType() string { return "OpenAI" }

func (m *OpenAIChatModel) IsCallbacksEnabled() bool { return true }

func toOpenAIMessages(in []*schema.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(in))
	for _, m := range in {
		if m == nil {
			continue
		}
		role := openai.ChatMessageRoleUser
		switch m.Role {
		case schema.System:
			role = openai.ChatMessageRoleSystem
		case schema.Assistant:
			role = openai.ChatMessageRoleAssistant
		}
		out = append(out, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}
	return out
}

package nodes

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino/components"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"

	"github.com/beexo-community/beexy/internal/agent/model"
	logx "github.com/beexo-community/beexy/pkg/logger"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// ChatModelConfig holds the configuration for chat model creation
type ChatModelConfig struct {
	APIKey  string
	BaseURL string
	Model   model.AssistantModelConfig
}

// NewChatModel creates the assistant chat model for the configured provider,
// bounded by the configured model timeout.
func NewChatModel(ctx context.Context, config ChatModelConfig) (einomodel.BaseChatModel, error) {
	var (
		cm  einomodel.BaseChatModel
		err error
	)
	switch strings.ToLower(config.Model.Provider) {
	case ProviderGemini, "":
		cm, err = newGeminiChatModel(ctx, config)
	case ProviderOpenAI:
		cm = NewOpenAIChatModel(config.APIKey, config.BaseURL, config.Model)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", config.Model.Provider)
	}
	if err != nil {
		return nil, err
	}
	logx.Debug().
		Str("provider", config.Model.Provider).
		Str("model", config.Model.Model).
		Dur("timeout", config.Model.Timeout).
		Msg("Chat model ready")
	return WithTimeout(cm, config.Model.Timeout), nil
}

func newGeminiChatModel(ctx context.Context, config ChatModelConfig) (*gemini.ChatModel, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if config.BaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = config.BaseURL
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Gemini client")
		return nil, fmt.Errorf("error creating Gemini client: %w", err)
	}

	cfg := &gemini.Config{
		Client:      client,
		Model:       config.Model.Model,
		Temperature: &config.Model.Temperature,
		MaxTokens:   &config.Model.MaxTokens,
	}
	// A negative budget leaves thinking at the model default.
	if config.Model.ThinkingBudget >= 0 {
		cfg.ThinkingConfig = &genai.ThinkingConfig{
			IncludeThoughts: false,
			ThinkingBudget:  genai.Ptr(config.Model.ThinkingBudget),
		}
	}

	cm, err := gemini.NewChatModel(ctx, cfg)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Gemini chat model")
		return nil, fmt.Errorf("error creating Gemini chat model: %w", err)
	}
	return cm, nil
}

// timeoutChatModel bounds every call of the wrapped model.
type timeoutChatModel struct {
	inner   einomodel.BaseChatModel
	timeout time.Duration
}

// WithTimeout wraps cm so each call fails with context.DeadlineExceeded after
// timeout. A non-positive timeout returns cm unchanged.
func WithTimeout(cm einomodel.BaseChatModel, timeout time.Duration) einomodel.BaseChatModel {
	if timeout <= 0 {
		return cm
	}
	return &timeoutChatModel{inner: cm, timeout: timeout}
}

func (m *timeoutChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	return m.inner.Generate(ctx, input, opts...)
}

// Stream collects the whole reply under the timeout and replays it as a
// single-chunk stream.
func (m *timeoutChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	out, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{out}), nil
}

func (m *timeoutChatModel) GetType() string {
	if t, ok := m.inner.(components.Typer); ok {
		return t.GetType()
	}
	return "TimeoutChatModel"
}

// IsCallbacksEnabled defers to the wrapped model so callbacks fire once.
func (m *timeoutChatModel) IsCallbacksEnabled() bool {
	if c, ok := m.inner.(components.Checker); ok {
		return c.IsCallbacksEnabled()
	}
	return false
}

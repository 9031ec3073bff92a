package main

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beexo-community/beexy/internal/agent/model"
	"github.com/beexo-community/beexy/internal/core"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("ENVIRONMENT", "prod")
	t.Setenv("HISTORY_MAX_TURNS", "6")
	t.Setenv("MARKET_CURRENCIES", "usd")

	cfg, err := loadConfig()
	require.NoError(t, err)

	assert.Equal(t, core.Production, cfg.Environment)
	assert.Equal(t, 6, cfg.History.MaxTurns)
	assert.Equal(t, "sqlite", cfg.History.Backend)
	assert.Equal(t, 10*time.Second, cfg.Sources.FetchTimeout)
	assert.Equal(t, []string{"usd"}, cfg.Sources.Market.Currencies)
	assert.Equal(t, "gemini", cfg.Assistant.Provider)
	assert.Equal(t, "BeeXy", cfg.Prompt.PersonaName)
}

func TestCredentialsFollowProvider(t *testing.T) {
	cfg := AppConfig{
		GeminiAPIKey:  "g-key",
		OpenAIAPIKey:  "o-key",
		OpenAIBaseURL: "http://localhost:1234/v1",
	}

	cfg.Assistant.Provider = "gemini"
	key, base := cfg.credentials()
	assert.Equal(t, "g-key", key)
	assert.Empty(t, base)

	cfg.Assistant.Provider = "OpenAI"
	key, base = cfg.credentials()
	assert.Equal(t, "o-key", key)
	assert.Equal(t, "http://localhost:1234/v1", base)
}

func TestBuildSourcesOrder(t *testing.T) {
	srcs := buildSources(model.SourcesConfig{KBMaxResults: 3}, nil, nil)

	names := make([]string, 0, len(srcs))
	for _, s := range srcs {
		names = append(names, s.Name())
	}
	assert.Equal(t, []string{"knowledge", "market", "news", "web"}, names)
}

func TestHistoryRepoMemoryBackend(t *testing.T) {
	a := &App{cfg: AppConfig{History: model.HistoryConfig{Backend: "memory"}}}
	assert.Nil(t, a.HistoryRepo())
}

func TestChatLoop(t *testing.T) {
	var asked []string
	resets := 0
	in := strings.NewReader("hola\n\n/reset\nprecio btc\n/exit\nnunca\n")
	var out strings.Builder

	err := chatLoop(context.Background(), in, &out, func(_ context.Context, q string) string {
		asked = append(asked, q)
		return "resp:" + q
	}, func(context.Context) error {
		resets++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"hola", "precio btc"}, asked)
	assert.Equal(t, 1, resets)
	assert.Contains(t, out.String(), "resp:hola")
	assert.Contains(t, out.String(), "Historial borrado.")
}

func TestChatLoopResetFailure(t *testing.T) {
	var out strings.Builder
	err := chatLoop(context.Background(), strings.NewReader("/reset\n"), &out, nil, func(context.Context) error {
		return errors.New("boom")
	})

	require.NoError(t, err)
	assert.Contains(t, out.String(), "No se pudo borrar el historial: boom")
}

type appendOnlyRepo struct{}

func (appendOnlyRepo) LoadRecent(context.Context, int64, int) ([]model.Turn, error) { return nil, nil }

func (appendOnlyRepo) AppendMessage(context.Context, int64, model.Turn) error { return nil }

func TestClearHistoryMemoryBackendIsNoop(t *testing.T) {
	a := &App{cfg: AppConfig{History: model.HistoryConfig{Backend: "memory"}}}
	assert.NoError(t, clearHistory(context.Background(), a.HistoryRepo(), 1))
}

func TestClearHistoryUnsupportedBackend(t *testing.T) {
	assert.Error(t, clearHistory(context.Background(), appendOnlyRepo{}, 1))
}

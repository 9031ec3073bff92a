package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"

	"github.com/beexo-community/beexy/internal/agent/graph"
	"github.com/beexo-community/beexy/internal/agent/graph/nodes"
	"github.com/beexo-community/beexy/internal/agent/model"
	"github.com/beexo-community/beexy/internal/agent/repo"
	"github.com/beexo-community/beexy/internal/agent/sources"
	"github.com/beexo-community/beexy/internal/core"
	logx "github.com/beexo-community/beexy/pkg/logger"
	pkgredis "github.com/beexo-community/beexy/pkg/redis"
	"github.com/beexo-community/beexy/pkg/sqlite"
)

// AppConfig defines all configurable parameters of the assistant,
// sourced from environment variables (loaded from .env for local runs).
type AppConfig struct {
	Environment core.Environment `envconfig:"ENVIRONMENT" default:"development"`
	LogLevel    string           `envconfig:"LOG_LEVEL"`
	MetricsAddr string           `envconfig:"METRICS_ADDR"`

	// Infrastructure
	Redis  pkgredis.Config
	SQLite sqlite.Config

	// LLM providers
	GeminiAPIKey  string `envconfig:"GEMINI_API_KEY"`
	GeminiBaseURL string `envconfig:"GEMINI_BASE_URL"`
	OpenAIAPIKey  string `envconfig:"OPENAI_API_KEY"`
	OpenAIBaseURL string `envconfig:"OPENAI_BASE_URL"`

	// Agent configs
	Assistant model.AssistantModelConfig
	Prompt    model.PromptConfig
	History   model.HistoryConfig
	Sources   model.SourcesConfig
}

func loadConfig() (AppConfig, error) {
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		logx.Warn().Err(err).Msg("Could not load .env file")
	}

	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, fmt.Errorf("process environment config: %w", err)
	}
	return cfg, nil
}

// credentials returns the API key and base URL of the configured provider.
func (c AppConfig) credentials() (string, string) {
	if strings.EqualFold(c.Assistant.Provider, nodes.ProviderOpenAI) {
		return c.OpenAIAPIKey, c.OpenAIBaseURL
	}
	return c.GeminiAPIKey, c.GeminiBaseURL
}

// App owns the process-wide resources shared by every command.
type App struct {
	cfg    AppConfig
	db     *sql.DB
	store  *repo.SQLiteStore
	rdb    *goredis.Client
	runner *graph.Runner
}

func NewApp(ctx context.Context, cfg AppConfig) (*App, error) {
	db, err := cfg.SQLite.Open()
	if err != nil {
		return nil, err
	}
	store, err := repo.NewSQLiteStore(ctx, db)
	if err != nil {
		db.Close()
		return nil, err
	}

	a := &App{cfg: cfg, db: db, store: store}
	if strings.EqualFold(cfg.History.Backend, "redis") {
		rdb, err := cfg.Redis.New(ctx)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("initialise redis client: %w", err)
		}
		a.rdb = rdb
		logx.Info().Msg("Connected to Redis successfully")
	}
	return a, nil
}

// HistoryRepo returns the durable conversation store chosen by
// HISTORY_BACKEND. The memory backend has none.
func (a *App) HistoryRepo() model.ConversationRepository {
	switch strings.ToLower(a.cfg.History.Backend) {
	case "memory":
		return nil
	case "redis":
		if a.rdb != nil {
			return repo.NewRedisConversationRepository(a.rdb, a.cfg.History.TTL, a.cfg.History.Retain)
		}
	}
	return a.store
}

// Runner builds the assistant graph on first use.
func (a *App) Runner(ctx context.Context) (*graph.Runner, error) {
	if a.runner != nil {
		return a.runner, nil
	}

	key, baseURL := a.cfg.credentials()
	runner, err := graph.BuildAssistantGraph(ctx, graph.Config{
		APIKey:           key,
		BaseURL:          baseURL,
		Model:            a.cfg.Assistant,
		Prompt:           a.cfg.Prompt,
		History:          a.cfg.History,
		ConversationRepo: a.HistoryRepo(),
		Sources:          buildSources(a.cfg.Sources, a.store, &http.Client{Timeout: a.cfg.Sources.FetchTimeout}),
		FetchTimeout:     a.cfg.Sources.FetchTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("build graph: %w", err)
	}
	a.runner = runner
	return runner, nil
}

// Close waits for pending history writes before releasing the stores.
func (a *App) Close() {
	if a.runner != nil {
		a.runner.Wait()
	}
	if a.rdb != nil {
		_ = a.rdb.Close()
	}
	if a.db != nil {
		_ = a.db.Close()
	}
}

// buildSources lists the context sources in annex order.
func buildSources(cfg model.SourcesConfig, kb model.KnowledgeBase, client sources.HTTPClient) []sources.Source {
	ddg := sources.NewDuckDuckGo(cfg.Search, client)
	return []sources.Source{
		sources.NewKnowledgeSource(kb, cfg.KBMaxResults),
		sources.NewMarketSource(sources.NewCoinGecko(cfg.Market, client), cfg.Market),
		sources.NewNewsSource(ddg, cfg.Search),
		sources.NewWebSearchSource(ddg, cfg.Search),
	}
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		logx.Info().Str("addr", addr).Msg("Serving metrics")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logx.Error().Err(err).Msg("Metrics server stopped")
		}
	}()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := newRootCmd().ExecuteContext(ctx)
	if app != nil {
		app.Close()
	}
	if err != nil {
		stop()
		os.Exit(1)
	}
}

package graph

import (
	"context"
	"fmt"
	"strings"
	"time"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"

	"github.com/beexo-community/beexy/internal/agent/graph/augment"
	"github.com/beexo-community/beexy/internal/agent/graph/conversations"
	"github.com/beexo-community/beexy/internal/agent/graph/nodes"
	"github.com/beexo-community/beexy/internal/agent/graph/observers"
	"github.com/beexo-community/beexy/internal/agent/graph/prompts"
	"github.com/beexo-community/beexy/internal/agent/model"
	"github.com/beexo-community/beexy/internal/agent/sources"
	logx "github.com/beexo-community/beexy/pkg/logger"
)

// Config holds everything needed to compose the full assistant graph end-to-end.
// This is a convenience layer over GraphConfig that also constructs the
// ChatModel, the assembler and the history store.
type Config struct {
	APIKey           string
	BaseURL          string
	Model            model.AssistantModelConfig
	Prompt           model.PromptConfig
	History          model.HistoryConfig
	ConversationRepo model.ConversationRepository
	Sources          []sources.Source
	FetchTimeout     time.Duration
}

// GraphConfig holds all configuration needed to build the graph
type GraphConfig struct {
	ChatModel einomodel.BaseChatModel
	ModelName string
	Assembler *augment.Assembler
	History   *conversations.HistoryStore
	Prompts   *prompts.Builder
}

// GraphBuilder handles the construction of the assistant graph
type GraphBuilder struct {
	config *GraphConfig
	graph  *compose.Graph[model.QueryInput, *schema.Message]
}

// Runner answers questions. Ask never fails: every failure ends in a
// user-facing reply.
type Runner struct {
	runnable      compose.Runnable[model.QueryInput, *schema.Message]
	history       *conversations.HistoryStore
	notConfigured string
}

// BuildAssistantGraph composes the chat model, assembler and history store,
// builds the graph, and returns a Runner. A missing API key is not an error:
// the Runner then answers every question with the not-configured reply.
func BuildAssistantGraph(ctx context.Context, cfg Config) (*Runner, error) {
	store := conversations.NewHistoryStore(cfg.ConversationRepo, cfg.History)
	if strings.TrimSpace(cfg.APIKey) == "" {
		logx.Warn().Str("provider", cfg.Model.Provider).Msg("No model API key configured; assistant disabled")
		return &Runner{history: store, notConfigured: nodes.NotConfiguredMessage(cfg.Model.Provider)}, nil
	}

	cm, err := nodes.NewChatModel(ctx, nodes.ChatModelConfig{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Model:   cfg.Model,
	})
	if err != nil {
		return nil, err
	}

	runner, err := New(ctx, &GraphConfig{
		ChatModel: cm,
		ModelName: cfg.Model.Model,
		Assembler: augment.NewAssembler(cfg.FetchTimeout, cfg.Sources...),
		History:   store,
		Prompts:   prompts.NewBuilder(cfg.Prompt),
	})
	if err != nil {
		return nil, err
	}

	logx.Debug().Int("sources", len(cfg.Sources)).Msg("Assistant graph built successfully")
	return runner, nil
}

// New builds the graph from ready components and wraps it in a Runner.
func New(ctx context.Context, config *GraphConfig) (*Runner, error) {
	runnable, err := BuildGraph(ctx, config)
	if err != nil {
		return nil, err
	}
	return &Runner{runnable: runnable, history: config.History}, nil
}

// Ask runs one request/response cycle for the question and returns the text
// to show the user.
func (r *Runner) Ask(ctx context.Context, in model.QueryInput) string {
	if r.notConfigured != "" {
		return r.notConfigured
	}

	state := &model.CycleState{CycleID: uuid.NewString(), PendingIndex: -1}
	ctx = model.WithCycle(ctx, state)

	out, err := r.runnable.Invoke(ctx, in, compose.WithCallbacks(observers.NewAllCallbacks()))
	if err == nil && out != nil {
		logx.Info().
			Str("cycle_id", state.CycleID).
			Int64("user_id", in.UserID).
			Int("blocks", len(state.Blocks)).
			Float64("cost_usd", state.TotalCostUSD).
			Msg("Question answered")
		return out.Content
	}
	if err == nil {
		err = nodes.ErrEmptyReply
	}

	// The graph has settled; the state is no longer shared.
	if state.Pending {
		r.history.RemovePendingUser(in.UserID, state.PendingIndex)
		state.Pending = false
	}

	appErr, kind := nodes.ClassifyFailure(err)
	logx.Warn().
		Err(err).
		Str("cycle_id", state.CycleID).
		Int64("user_id", in.UserID).
		Str("kind", kind).
		Int("status", appErr.Status).
		Msg("Assistant cycle failed")
	return appErr.Message
}

// ClearHistory forgets everything the assistant remembers about the user.
func (r *Runner) ClearHistory(ctx context.Context, userID int64) error {
	return r.history.Clear(ctx, userID)
}

// Wait blocks until background persistence has finished.
func (r *Runner) Wait() {
	r.history.Wait()
}

// BuildGraph constructs and returns the compiled assistant graph
func BuildGraph(ctx context.Context, config *GraphConfig) (compose.Runnable[model.QueryInput, *schema.Message], error) {
	// Basic config validation
	if config == nil {
		return nil, fmt.Errorf("graph config is nil")
	}
	if config.ChatModel == nil {
		return nil, fmt.Errorf("chat model is not initialized")
	}
	if config.Assembler == nil || config.History == nil || config.Prompts == nil {
		return nil, fmt.Errorf("assembler, history store and prompt builder are required")
	}

	builder := &GraphBuilder{
		config: config,
		graph: compose.NewGraph[model.QueryInput, *schema.Message](
			compose.WithGenLocalState(func(ctx context.Context) *model.CycleState {
				if s := model.CycleFromContext(ctx); s != nil {
					return s
				}
				return &model.CycleState{PendingIndex: -1}
			}),
		),
	}

	if err := builder.addNodes(); err != nil {
		return nil, err
	}
	if err := builder.addEdges(); err != nil {
		return nil, err
	}

	return builder.compile(ctx)
}

// addNodes adds all processing nodes to the graph
func (b *GraphBuilder) addNodes() error {
	steps := []func() error{
		func() error {
			return b.graph.AddLambdaNode(nodes.NodeContextAssembler,
				nodes.NewContextAssemblerNode(b.config.Assembler),
				compose.WithStatePreHandler(nodes.NewContextAssemblerPreHandler()),
				compose.WithStatePostHandler(nodes.NewContextAssemblerPostHandler()),
			)
		},
		func() error {
			return b.graph.AddLambdaNode(nodes.NodePromptBuilder,
				nodes.NewPromptBuilderNode(b.config.History, b.config.Prompts),
			)
		},
		func() error {
			return b.graph.AddChatModelNode(nodes.NodeChatModel,
				b.config.ChatModel,
				compose.WithStatePostHandler(nodes.NewChatModelPostHandler(b.config.ModelName)),
			)
		},
		func() error {
			return b.graph.AddLambdaNode(nodes.NodeCommitter,
				nodes.NewCommitterNode(b.config.History),
			)
		},
	}
	for _, step := range steps {
		if err := step(); err != nil {
			logx.Error().Err(err).Msg("Error adding graph node")
			return fmt.Errorf("error adding graph node: %w", err)
		}
	}
	return nil
}

// addEdges creates the main flow connections between nodes
func (b *GraphBuilder) addEdges() error {
	edges := [][2]string{
		{compose.START, nodes.NodeContextAssembler},
		{nodes.NodeContextAssembler, nodes.NodePromptBuilder},
		{nodes.NodePromptBuilder, nodes.NodeChatModel},
		{nodes.NodeChatModel, nodes.NodeCommitter},
		{nodes.NodeCommitter, compose.END},
	}

	for _, edge := range edges {
		if err := b.graph.AddEdge(edge[0], edge[1]); err != nil {
			logx.Error().Err(err).Str("from", edge[0]).Str("to", edge[1]).Msg("Error adding graph edge")
			return fmt.Errorf("error adding edge %s -> %s: %w", edge[0], edge[1], err)
		}
	}
	return nil
}

// compile finalizes and compiles the graph
func (b *GraphBuilder) compile(ctx context.Context) (compose.Runnable[model.QueryInput, *schema.Message], error) {
	runnable, err := b.graph.Compile(ctx, compose.WithMaxRunSteps(10))
	if err != nil {
		logx.Error().Err(err).Msg("Error compiling graph")
		return nil, fmt.Errorf("error compiling graph: %w", err)
	}

	logx.Debug().Msg("Graph compiled successfully")
	return runnable, nil
}

package nodes

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/beexo-community/beexy/internal/agent/graph/augment"
	"github.com/beexo-community/beexy/internal/agent/graph/conversations"
	"github.com/beexo-community/beexy/internal/agent/graph/prompts"
	"github.com/beexo-community/beexy/internal/agent/model"
	logx "github.com/beexo-community/beexy/pkg/logger"
)

// Node keys.
const (
	NodeContextAssembler = "ContextAssembler"
	NodePromptBuilder    = "PromptBuilder"
	NodeChatModel        = "ChatModel"
	NodeCommitter        = "ResponseCommitter"
)

// NewContextAssemblerPreHandler records the inbound question in the cycle state.
func NewContextAssemblerPreHandler() func(context.Context, model.QueryInput, *model.CycleState) (model.QueryInput, error) {
	return func(ctx context.Context, in model.QueryInput, s *model.CycleState) (model.QueryInput, error) {
		s.UserID = in.UserID
		s.UserName = in.UserName
		s.Question = in.Question
		s.Pending = false
		s.PendingIndex = -1
		s.TotalCostUSD = 0
		return in, nil
	}
}

// NewContextAssemblerNode creates the node that fetches the context annex.
func NewContextAssemblerNode(assembler *augment.Assembler) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, in model.QueryInput) (model.AugmentedQuery, error) {
		return assembler.Assemble(ctx, in.Question), nil
	})
}

// NewContextAssemblerPostHandler keeps the model-facing and persisted forms
// of the user turn apart in the cycle state.
func NewContextAssemblerPostHandler() func(context.Context, model.AugmentedQuery, *model.CycleState) (model.AugmentedQuery, error) {
	return func(ctx context.Context, out model.AugmentedQuery, s *model.CycleState) (model.AugmentedQuery, error) {
		s.Annex = out.Annex
		s.Blocks = out.Blocks
		s.ModelTurn = model.UserTurn(augment.ModelContent(out.Question, out.Annex))
		s.PersistedTurn = model.UserTurn(out.Question)

		sources := make([]string, 0, len(out.Blocks))
		for _, b := range out.Blocks {
			sources = append(sources, b.Source)
		}
		logx.Debug().
			Str("cycle_id", s.CycleID).
			Int64("user_id", s.UserID).
			Strs("sources", sources).
			Int("annex_len", len(out.Annex)).
			Msg("Context annex assembled")
		return out, nil
	}
}

// NewPromptBuilderNode renders the model request from the user's history and
// the augmented question, then appends the pending user turn to history.
func NewPromptBuilderNode(store *conversations.HistoryStore, builder *prompts.Builder) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, _ model.AugmentedQuery) ([]*schema.Message, error) {
		var (
			userID    int64
			modelTurn model.Turn
		)
		if err := compose.ProcessState(ctx, func(_ context.Context, s *model.CycleState) error {
			userID = s.UserID
			modelTurn = s.ModelTurn
			return nil
		}); err != nil {
			return nil, fmt.Errorf("failed to access state: %w", err)
		}

		history := store.Get(ctx, userID)
		messages, err := builder.Build(ctx, conversations.ToMessages(history), modelTurn.Content)
		if err != nil {
			return nil, fmt.Errorf("build prompt: %w", err)
		}

		idx := store.AppendPendingUser(userID, modelTurn.Content)
		if err := compose.ProcessState(ctx, func(_ context.Context, s *model.CycleState) error {
			s.PendingIndex = idx
			s.Pending = true
			return nil
		}); err != nil {
			store.RemovePendingUser(userID, idx)
			return nil, fmt.Errorf("failed to access state: %w", err)
		}

		logx.Debug().Int64("user_id", userID).Int("history_turns", len(history)).Msg("AI thinking...")
		return messages, nil
	})
}

// NewChatModelPostHandler computes and logs usage cost for the assistant model.
func NewChatModelPostHandler(modelName string) func(context.Context, *schema.Message, *model.CycleState) (*schema.Message, error) {
	return func(ctx context.Context, out *schema.Message, s *model.CycleState) (*schema.Message, error) {
		recordUsage(out, s, modelName)
		return out, nil
	}
}

// NewCommitterNode accepts the model reply, or rejects it when empty. On
// acceptance the pending user turn is replaced by the bare question, the
// reply is appended, history is trimmed and the exchange is persisted in
// the background.
func NewCommitterNode(store *conversations.HistoryStore) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, reply *schema.Message) (*schema.Message, error) {
		if reply == nil {
			return nil, ErrEmptyReply
		}
		answer := strings.TrimSpace(reply.Content)
		if answer == "" {
			return nil, ErrEmptyReply
		}

		var in model.Interaction
		err := compose.ProcessState(ctx, func(_ context.Context, s *model.CycleState) error {
			if !s.Pending {
				return fmt.Errorf("no pending user turn for cycle %s", s.CycleID)
			}
			store.ReplacePendingUser(s.UserID, s.PersistedTurn.Content)
			store.AppendAssistant(s.UserID, answer)
			store.Trim(s.UserID)
			s.Pending = false

			in = model.Interaction{
				UserID:   s.UserID,
				UserName: s.UserName,
				Question: s.PersistedTurn.Content,
				Answer:   answer,
			}
			return nil
		})
		if err != nil {
			return nil, err
		}

		store.Persist(ctx, in)
		logx.Debug().Int64("user_id", in.UserID).Msg("AI response ready")

		out := *reply
		out.Content = answer
		return &out, nil
	})
}

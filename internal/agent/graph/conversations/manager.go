package conversations

import (
	"context"
	"sync"
	"time"

	"github.com/cloudwego/eino/schema"

	"github.com/beexo-community/beexy/internal/agent/model"
	logx "github.com/beexo-community/beexy/pkg/logger"
)

// HistoryStore keeps each user's recent conversation in memory, hydrated once
// per user from the repository and written back asynchronously.
//
// Cycles for different users never contend on the same entry. Serializing
// cycles of one user is the caller's job; the mutex only keeps the map safe.
type HistoryStore struct {
	repo           model.ConversationRepository
	interactions   model.InteractionLogger
	maxTurns       int
	persistTimeout time.Duration

	mu        sync.Mutex
	histories map[int64][]model.Turn
	// tails holds, per user, the completion signal of the last queued write.
	tails map[int64]chan struct{}

	wg sync.WaitGroup
}

// NewHistoryStore creates a store. repo may be nil for a memory-only store.
// When repo also implements model.InteractionLogger, completed exchanges are
// logged through it.
func NewHistoryStore(repo model.ConversationRepository, config model.HistoryConfig) *HistoryStore {
	s := &HistoryStore{
		repo:           repo,
		maxTurns:       config.MaxTurns,
		persistTimeout: config.PersistTimeout,
		histories:      make(map[int64][]model.Turn),
		tails:          make(map[int64]chan struct{}),
	}
	if s.maxTurns <= 0 {
		s.maxTurns = 8
	}
	if s.persistTimeout <= 0 {
		s.persistTimeout = 5 * time.Second
	}
	if il, ok := repo.(model.InteractionLogger); ok {
		s.interactions = il
	}
	return s
}

// MaxTurns is the history cap.
func (s *HistoryStore) MaxTurns() int {
	return s.maxTurns
}

// Get returns a copy of the user's history. The first call for a user seeds
// the entry from the repository; later calls never hit the repository again,
// even if the entry has since been emptied.
func (s *HistoryStore) Get(ctx context.Context, userID int64) []model.Turn {
	s.mu.Lock()
	h, ok := s.histories[userID]
	s.mu.Unlock()
	if ok {
		return clone(h)
	}

	loaded := s.hydrate(ctx, userID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if h, ok := s.histories[userID]; ok {
		return clone(h)
	}
	s.histories[userID] = loaded
	return clone(loaded)
}

func (s *HistoryStore) hydrate(ctx context.Context, userID int64) []model.Turn {
	if s.repo == nil {
		return []model.Turn{}
	}
	turns, err := s.repo.LoadRecent(ctx, userID, s.maxTurns)
	if err != nil {
		logx.Warn().Err(err).Int64("user_id", userID).Msg("Failed to hydrate conversation history")
		return []model.Turn{}
	}
	logx.Debug().Int64("user_id", userID).Int("turns", len(turns)).Msg("Conversation history hydrated")
	return trimTail(turns, s.maxTurns)
}

// AppendPendingUser appends the speculative user turn and returns its index.
func (s *HistoryStore) AppendPendingUser(userID int64, content string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.histories[userID] = append(s.histories[userID], model.UserTurn(content))
	return len(s.histories[userID]) - 1
}

// ReplacePendingUser overwrites the content of the most recent user turn.
func (s *HistoryStore) ReplacePendingUser(userID int64, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h := s.histories[userID]
	for i := len(h) - 1; i >= 0; i-- {
		if h[i].Role == model.RoleUser {
			h[i] = model.UserTurn(content)
			return
		}
	}
}

// AppendAssistant appends the model's reply.
func (s *HistoryStore) AppendAssistant(userID int64, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.histories[userID] = append(s.histories[userID], model.AssistantTurn(content))
}

// Trim drops the oldest turns beyond the cap.
func (s *HistoryStore) Trim(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.histories[userID] = trimTail(s.histories[userID], s.maxTurns)
}

// RemovePendingUser drops the pending user turn of a failed cycle, found at
// the index AppendPendingUser returned. An index that does not point at a
// user turn is ignored.
func (s *HistoryStore) RemovePendingUser(userID int64, index int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h := s.histories[userID]
	if index < 0 || index >= len(h) || h[index].Role != model.RoleUser {
		return
	}
	s.histories[userID] = append(h[:index:index], h[index+1:]...)
}

// Clear forgets the user's history in memory and, when the repository
// supports it, in storage. Pending writes are flushed first so they cannot
// bring the history back.
func (s *HistoryStore) Clear(ctx context.Context, userID int64) error {
	s.wg.Wait()

	s.mu.Lock()
	s.histories[userID] = []model.Turn{}
	s.mu.Unlock()

	clearer, ok := s.repo.(model.HistoryClearer)
	if !ok {
		return nil
	}
	return clearer.ClearHistory(ctx, userID)
}

// Persist writes a completed exchange in the background. Writes for one user
// reach the repository in the order Persist was called. Failures are logged
// and otherwise ignored.
func (s *HistoryStore) Persist(ctx context.Context, in model.Interaction) {
	if s.repo == nil {
		return
	}

	done := make(chan struct{})
	s.mu.Lock()
	prev := s.tails[in.UserID]
	s.tails[in.UserID] = done
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			s.mu.Lock()
			if s.tails[in.UserID] == done {
				delete(s.tails, in.UserID)
			}
			s.mu.Unlock()
			close(done)
		}()
		if prev != nil {
			<-prev
		}

		pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.persistTimeout)
		defer cancel()

		for _, turn := range []model.Turn{model.UserTurn(in.Question), model.AssistantTurn(in.Answer)} {
			if err := s.repo.AppendMessage(pctx, in.UserID, turn); err != nil {
				logx.Warn().Err(err).Int64("user_id", in.UserID).Str("role", string(turn.Role)).Msg("Failed to persist conversation turn")
			}
		}
		if s.interactions != nil {
			if err := s.interactions.LogInteraction(pctx, in); err != nil {
				logx.Warn().Err(err).Int64("user_id", in.UserID).Msg("Failed to log interaction")
			}
		}
	}()
}

// Wait blocks until every pending Persist has finished.
func (s *HistoryStore) Wait() {
	s.wg.Wait()
}

// ToMessages converts turns to eino messages in order.
func ToMessages(turns []model.Turn) []*schema.Message {
	msgs := make([]*schema.Message, 0, len(turns))
	for _, t := range turns {
		if t.Content == "" {
			continue
		}
		switch t.Role {
		case model.RoleAssistant:
			msgs = append(msgs, schema.AssistantMessage(t.Content, nil))
		default:
			msgs = append(msgs, schema.UserMessage(t.Content))
		}
	}
	return msgs
}

// ====================== Helper function ======================
func trimTail(turns []model.Turn, maxTurns int) []model.Turn {
	if len(turns) <= maxTurns {
		return turns
	}
	result := make([]model.Turn, maxTurns)
	copy(result, turns[len(turns)-maxTurns:])
	return result
}

func clone(turns []model.Turn) []model.Turn {
	result := make([]model.Turn, len(turns))
	copy(result, turns)
	return result
}

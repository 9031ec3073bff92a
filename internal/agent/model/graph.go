package model

import "context"

// QueryInput represents one inbound question.
type QueryInput struct {
	UserID   int64  `json:"user_id"`
	UserName string `json:"user_name,omitempty"`
	Question string `json:"question"`
}

// AugmentedQuery is the question together with the context annex assembled for it.
type AugmentedQuery struct {
	Question string
	Annex    string
	Blocks   []ContextBlock
}

// CycleState is the per-invocation state of one request/response cycle.
// Concurrency model:
//   - It is registered as Graph Local State via compose.WithGenLocalState and
//     is only touched inside state handlers or compose.ProcessState while the
//     graph runs.
//   - The Runner owns the pointer before and after the run, so it can roll
//     the pending user turn back when the graph fails.
type CycleState struct {
	CycleID  string
	UserID   int64
	UserName string
	Question string

	Annex  string
	Blocks []ContextBlock

	// ModelTurn is what the model sees, PersistedTurn is what history keeps.
	ModelTurn     Turn
	PersistedTurn Turn

	// PendingIndex is the history index of the speculative user turn; Pending
	// reports whether it is currently in history.
	PendingIndex int
	Pending      bool

	// Accumulated LLM cost (USD) for this cycle
	TotalCostUSD float64
}

type cycleKey struct{}

// WithCycle attaches the cycle state to ctx so the graph can adopt it as local state.
func WithCycle(ctx context.Context, s *CycleState) context.Context {
	return context.WithValue(ctx, cycleKey{}, s)
}

// CycleFromContext returns the cycle state attached by WithCycle, or nil.
func CycleFromContext(ctx context.Context) *CycleState {
	s, _ := ctx.Value(cycleKey{}).(*CycleState)
	return s
}

package model

import (
	"context"
)

// Role tags a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ParseRole maps a stored role string onto a Role. Anything that is not an
// assistant turn is treated as a user turn.
func ParseRole(s string) Role {
	if Role(s) == RoleAssistant {
		return RoleAssistant
	}
	return RoleUser
}

// Turn is one entry of a user's conversation with the assistant.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

func UserTurn(content string) Turn {
	return Turn{Role: RoleUser, Content: content}
}

func AssistantTurn(content string) Turn {
	return Turn{Role: RoleAssistant, Content: content}
}

// ConversationRepository is the durable side of the conversation history.
// Both operations are best-effort from the pipeline's point of view.
type ConversationRepository interface {
	// LoadRecent returns up to limit of the user's most recent turns in
	// chronological order.
	LoadRecent(ctx context.Context, userID int64, limit int) ([]Turn, error)

	// AppendMessage stores one turn at the end of the user's history.
	AppendMessage(ctx context.Context, userID int64, turn Turn) error
}

// HistoryClearer is implemented by repositories that can forget a user's
// stored history.
type HistoryClearer interface {
	ClearHistory(ctx context.Context, userID int64) error
}

// Interaction is one completed question/answer exchange.
type Interaction struct {
	UserID   int64
	UserName string
	Question string
	Answer   string
}

// InteractionLogger is implemented by repositories that keep an audit log
// of completed exchanges.
type InteractionLogger interface {
	LogInteraction(ctx context.Context, in Interaction) error
}

package sources

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/beexo-community/beexy/internal/agent/intent"
	"github.com/beexo-community/beexy/internal/agent/model"
	errx "github.com/beexo-community/beexy/internal/core/error"
)

const (
	KnowledgeLabel = "INFORMACIÓN RELEVANTE (Knowledge Base):"

	kbSnippetRunes = 800
)

// KnowledgeSource looks the raw question up in the curated knowledge base.
// It is relevant to every question.
type KnowledgeSource struct {
	kb         model.KnowledgeBase
	maxResults int
}

func NewKnowledgeSource(kb model.KnowledgeBase, maxResults int) *KnowledgeSource {
	if maxResults <= 0 {
		maxResults = 3
	}
	return &KnowledgeSource{kb: kb, maxResults: maxResults}
}

func (s *KnowledgeSource) Name() string { return "knowledge" }

func (s *KnowledgeSource) Fetch(ctx context.Context, sig intent.Signals) ([]model.ContextBlock, error) {
	if strings.TrimSpace(sig.Text) == "" {
		return nil, ErrNotRelevant
	}
	docs, err := s.kb.SearchDocuments(ctx, sig.Text, s.maxResults)
	if err != nil {
		var appErr *errx.AppError
		if !errors.As(err, &appErr) {
			err = errx.WrapSQL(err)
		}
		return nil, err
	}
	if len(docs) == 0 {
		return nil, ErrNoData
	}

	entries := make([]string, 0, len(docs))
	for _, d := range docs {
		title := d.Title
		if title == "" {
			title = "Sin título"
		}
		src := d.Source
		if src == "" {
			src = "local"
		}
		entries = append(entries, fmt.Sprintf("• %s — %s\n  %s", title, src, truncate(squash(d.Content), kbSnippetRunes)))
	}
	return []model.ContextBlock{{Source: s.Name(), Label: KnowledgeLabel, Body: strings.Join(entries, "\n")}}, nil
}

package sources

import (
	"context"
	"fmt"
	"strings"

	"github.com/beexo-community/beexy/internal/agent/intent"
	"github.com/beexo-community/beexy/internal/agent/model"
)

const (
	WebLabel  = "RESULTADOS DE BÚSQUEDA WEB (fuente: DuckDuckGo):"
	NewsLabel = "NOTICIAS RECIENTES (fuente: DuckDuckGo News):"

	webSnippetRunes  = 300
	newsSnippetRunes = 250
)

// SearchEngine is the slice of the search provider the search sources need.
type SearchEngine interface {
	Text(ctx context.Context, query, region string, max int) ([]model.SearchResult, error)
	News(ctx context.Context, query, region string, max int) ([]model.SearchResult, error)
}

// WebSearchSource runs a general web search for questions that need current
// information.
type WebSearchSource struct {
	engine     SearchEngine
	region     string
	maxResults int
}

func NewWebSearchSource(engine SearchEngine, cfg model.SearchConfig) *WebSearchSource {
	return &WebSearchSource{engine: engine, region: cfg.Region, maxResults: cfg.MaxResults}
}

func (s *WebSearchSource) Name() string { return "web" }

func (s *WebSearchSource) Fetch(ctx context.Context, sig intent.Signals) ([]model.ContextBlock, error) {
	if !sig.WebSearch {
		return nil, ErrNotRelevant
	}
	results, err := s.engine.Text(ctx, sig.Text, s.region, s.maxResults)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, ErrNoData
	}

	lines := make([]string, 0, len(results)*3)
	for i, r := range results {
		lines = append(lines, fmt.Sprintf("%d. %s", i+1, r.Title))
		if r.Snippet != "" {
			lines = append(lines, "   "+truncate(r.Snippet, webSnippetRunes))
		}
		if r.URL != "" {
			lines = append(lines, "   Fuente: "+r.URL)
		}
	}
	return []model.ContextBlock{{Source: s.Name(), Label: WebLabel, Body: strings.Join(lines, "\n")}}, nil
}

// NewsSource fetches recent news for questions that need current information
// and mention recency.
type NewsSource struct {
	engine     SearchEngine
	region     string
	maxResults int
}

func NewNewsSource(engine SearchEngine, cfg model.SearchConfig) *NewsSource {
	return &NewsSource{engine: engine, region: cfg.Region, maxResults: cfg.NewsMaxResults}
}

func (s *NewsSource) Name() string { return "news" }

func (s *NewsSource) Fetch(ctx context.Context, sig intent.Signals) ([]model.ContextBlock, error) {
	if !sig.WebSearch || !sig.Recency {
		return nil, ErrNotRelevant
	}
	results, err := s.engine.News(ctx, sig.Text, s.region, s.maxResults)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, ErrNoData
	}

	lines := make([]string, 0, len(results)*3)
	for i, r := range results {
		lines = append(lines, fmt.Sprintf("%d. %s", i+1, r.Title))
		if r.Snippet != "" {
			lines = append(lines, "   "+truncate(r.Snippet, newsSnippetRunes))
		}
		if r.Date != "" {
			lines = append(lines, fmt.Sprintf("   Fecha: %s | Fuente: %s", r.Date, r.Source))
		}
	}
	return []model.ContextBlock{{Source: s.Name(), Label: NewsLabel, Body: strings.Join(lines, "\n")}}, nil
}

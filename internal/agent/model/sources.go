package model

import "context"

// ContextBlock is one labeled piece of external context produced by a single
// fetch. It is never persisted.
type ContextBlock struct {
	Source string
	Label  string
	Body   string
}

// String renders the block as it appears in the annex.
func (b ContextBlock) String() string {
	if b.Label == "" {
		return b.Body
	}
	return b.Label + "\n" + b.Body
}

// PriceQuote is the market data for one asset.
type PriceQuote struct {
	ID        string
	Values    map[string]float64 // currency -> value
	Change24h map[string]float64 // currency -> percent change
	MarketCap map[string]float64 // currency -> market cap
}

// MarketSnapshot is the aggregate state of the crypto market.
type MarketSnapshot struct {
	TotalMarketCapUSD float64
	Dominance         map[string]float64 // symbol -> percent
	Change24hPercent  float64
}

// SearchResult is one web or news search hit.
type SearchResult struct {
	Title   string
	Snippet string
	URL     string
	Source  string
	Date    string
}

// KnowledgeDoc is one knowledge-base document.
type KnowledgeDoc struct {
	Title   string
	Content string
	Source  string
}

// KnowledgeBase is the private curated document store.
type KnowledgeBase interface {
	SearchDocuments(ctx context.Context, query string, limit int) ([]KnowledgeDoc, error)
}

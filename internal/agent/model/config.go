package model

import "time"

// ================ Config ================
type AssistantModelConfig struct {
	Provider       string        `envconfig:"LLM_PROVIDER" default:"gemini"`
	Model          string        `envconfig:"ASSISTANT_MODEL" default:"gemini-2.5-flash"`
	MaxTokens      int           `envconfig:"ASSISTANT_MAX_TOKENS" default:"700"`
	Temperature    float32       `envconfig:"ASSISTANT_TEMPERATURE" default:"0.7"`
	Timeout        time.Duration `envconfig:"ASSISTANT_TIMEOUT" default:"60s"`
	ThinkingBudget int32         `envconfig:"ASSISTANT_THINKING_BUDGET" default:"0"`
}

type PromptConfig struct {
	PersonaName string `envconfig:"PROMPT_PERSONA_NAME" default:"BeeXy"`
	ProductName string `envconfig:"PROMPT_PRODUCT_NAME" default:"Beexo Wallet"`
}

type HistoryConfig struct {
	MaxTurns       int           `envconfig:"HISTORY_MAX_TURNS" default:"8"`
	Backend        string        `envconfig:"HISTORY_BACKEND" default:"sqlite"`
	TTL            time.Duration `envconfig:"HISTORY_TTL" default:"720h"`
	Retain         int           `envconfig:"HISTORY_RETAIN" default:"200"`
	PersistTimeout time.Duration `envconfig:"HISTORY_PERSIST_TIMEOUT" default:"5s"`
}

type MarketConfig struct {
	BaseURL        string   `envconfig:"COINGECKO_BASE_URL" default:"https://api.coingecko.com/api/v3"`
	APIKey         string   `envconfig:"COINGECKO_API_KEY"`
	RequestsPerMin int      `envconfig:"COINGECKO_RPM" default:"30"`
	Currencies     []string `envconfig:"MARKET_CURRENCIES" default:"usd,ars"`
	DefaultAssets  []string `envconfig:"MARKET_DEFAULT_ASSETS" default:"bitcoin,ethereum"`
}

type SearchConfig struct {
	HTMLURL        string `envconfig:"DUCKDUCKGO_HTML_URL" default:"https://html.duckduckgo.com/html/"`
	BaseURL        string `envconfig:"DUCKDUCKGO_URL" default:"https://duckduckgo.com"`
	Region         string `envconfig:"SEARCH_REGION" default:"es-ar"`
	MaxResults     int    `envconfig:"SEARCH_MAX_RESULTS" default:"5"`
	NewsMaxResults int    `envconfig:"NEWS_MAX_RESULTS" default:"3"`
}

type SourcesConfig struct {
	FetchTimeout time.Duration `envconfig:"FETCH_TIMEOUT" default:"10s"`
	KBMaxResults int           `envconfig:"KB_MAX_RESULTS" default:"3"`
	Market       MarketConfig
	Search       SearchConfig
}

package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/beexo-community/beexy/internal/agent/model"
	errx "github.com/beexo-community/beexy/internal/core/error"
)

// MaxPriceIDs is the most ids sent in one price request.
const MaxPriceIDs = 10

// CoinGecko is a minimal client for the public CoinGecko v3 API.
type CoinGecko struct {
	baseURL string
	apiKey  string
	client  HTTPClient
	limiter *rate.Limiter
}

// NewCoinGecko creates a client. requestsPerMin <= 0 disables rate limiting.
func NewCoinGecko(cfg model.MarketConfig, client HTTPClient) *CoinGecko {
	if client == nil {
		client = &http.Client{}
	}
	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RequestsPerMin > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMin)), 5)
	}
	return &CoinGecko{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		client:  client,
		limiter: limiter,
	}
}

// Prices returns quotes for up to MaxPriceIDs ids in the given currencies,
// including 24h change and market cap. Ids unknown to CoinGecko are absent
// from the result.
func (c *CoinGecko) Prices(ctx context.Context, ids, currencies []string) (map[string]model.PriceQuote, error) {
	if len(ids) > MaxPriceIDs {
		ids = ids[:MaxPriceIDs]
	}
	q := url.Values{}
	q.Set("ids", strings.Join(ids, ","))
	q.Set("vs_currencies", strings.Join(currencies, ","))
	q.Set("include_24hr_change", "true")
	q.Set("include_market_cap", "true")

	var raw map[string]map[string]*float64
	if err := c.get(ctx, "/simple/price?"+q.Encode(), &raw); err != nil {
		return nil, err
	}

	quotes := make(map[string]model.PriceQuote, len(raw))
	for id, fields := range raw {
		pq := model.PriceQuote{
			ID:        id,
			Values:    map[string]float64{},
			Change24h: map[string]float64{},
			MarketCap: map[string]float64{},
		}
		for _, cur := range currencies {
			if v := fields[cur]; v != nil {
				pq.Values[cur] = *v
			}
			if v := fields[cur+"_24h_change"]; v != nil {
				pq.Change24h[cur] = *v
			}
			if v := fields[cur+"_market_cap"]; v != nil {
				pq.MarketCap[cur] = *v
			}
		}
		quotes[id] = pq
	}
	return quotes, nil
}

type globalResponse struct {
	Data struct {
		TotalMarketCap      map[string]float64 `json:"total_market_cap"`
		MarketCapPercentage map[string]float64 `json:"market_cap_percentage"`
		MarketCapChange24h  float64            `json:"market_cap_change_percentage_24h_usd"`
	} `json:"data"`
}

// Global returns the aggregate market snapshot, keeping the dominance of the
// two largest assets.
func (c *CoinGecko) Global(ctx context.Context) (*model.MarketSnapshot, error) {
	var raw globalResponse
	if err := c.get(ctx, "/global", &raw); err != nil {
		return nil, err
	}
	if raw.Data.TotalMarketCap == nil {
		return nil, ErrNoData
	}

	symbols := make([]string, 0, len(raw.Data.MarketCapPercentage))
	for sym := range raw.Data.MarketCapPercentage {
		symbols = append(symbols, sym)
	}
	sort.Slice(symbols, func(i, j int) bool {
		return raw.Data.MarketCapPercentage[symbols[i]] > raw.Data.MarketCapPercentage[symbols[j]]
	})
	if len(symbols) > 2 {
		symbols = symbols[:2]
	}
	dominance := make(map[string]float64, len(symbols))
	for _, sym := range symbols {
		dominance[sym] = raw.Data.MarketCapPercentage[sym]
	}

	return &model.MarketSnapshot{
		TotalMarketCapUSD: raw.Data.TotalMarketCap["usd"],
		Dominance:         dominance,
		Change24hPercent:  raw.Data.MarketCapChange24h,
	}, nil
}

func (c *CoinGecko) get(ctx context.Context, path string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return errx.WrapUpstream("coingecko", http.StatusTooManyRequests, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("coingecko: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("x-cg-demo-api-key", c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return errx.WrapUpstream("coingecko", 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errx.WrapUpstream("coingecko", resp.StatusCode, nil)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errx.WrapUpstream("coingecko", resp.StatusCode, fmt.Errorf("decode: %w", err))
	}
	return nil
}

package sources

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beexo-community/beexy/internal/agent/intent"
	"github.com/beexo-community/beexy/internal/agent/model"
	errx "github.com/beexo-community/beexy/internal/core/error"
)

type fakeMarket struct {
	quotes    map[string]model.PriceQuote
	snap      *model.MarketSnapshot
	pricesErr error
	globalErr error

	priceCalls  [][]string
	globalCalls int
}

func (f *fakeMarket) Prices(_ context.Context, ids, _ []string) (map[string]model.PriceQuote, error) {
	f.priceCalls = append(f.priceCalls, ids)
	if f.pricesErr != nil {
		return nil, f.pricesErr
	}
	return f.quotes, nil
}

func (f *fakeMarket) Global(context.Context) (*model.MarketSnapshot, error) {
	f.globalCalls++
	if f.globalErr != nil {
		return nil, f.globalErr
	}
	return f.snap, nil
}

func quote(id string, usd, ars, change, mcap float64) model.PriceQuote {
	return model.PriceQuote{
		ID:        id,
		Values:    map[string]float64{"usd": usd, "ars": ars},
		Change24h: map[string]float64{"usd": change},
		MarketCap: map[string]float64{"usd": mcap},
	}
}

func marketConfig() model.MarketConfig {
	return model.MarketConfig{
		Currencies:    []string{"usd", "ars"},
		DefaultAssets: []string{"bitcoin", "ethereum"},
	}
}

func TestMarketSourceAssetsMentioned(t *testing.T) {
	data := &fakeMarket{quotes: map[string]model.PriceQuote{
		"bitcoin": quote("bitcoin", 67000.5, 61000000, 2.5, 1.3e12),
	}}
	src := NewMarketSource(data, marketConfig())

	blocks, err := src.Fetch(context.Background(), intent.Classify("cuánto está bitcoin"))
	require.NoError(t, err)
	require.Len(t, blocks, 1)

	assert.Equal(t, PriceLabel, blocks[0].Label)
	assert.Equal(t, "• BITCOIN: USD $67,000.50 (ARS $61,000,000) | 24h: 📈 +2.50% | MCap: $1.30T", blocks[0].Body)
	assert.Equal(t, [][]string{{"bitcoin"}}, data.priceCalls)
	assert.Zero(t, data.globalCalls)
}

func TestMarketSourceAssetsWithoutPriceIntent(t *testing.T) {
	data := &fakeMarket{quotes: map[string]model.PriceQuote{
		"solana": quote("solana", 150, 140000, -1.25, 7e10),
	}}
	src := NewMarketSource(data, marketConfig())

	blocks, err := src.Fetch(context.Background(), intent.Classify("qué opinan de solana"))
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Contains(t, blocks[0].Body, "📉 -1.25%")
	assert.Contains(t, blocks[0].Body, "MCap: $70.00B")
}

func TestMarketSourceGeneralPriceQuestion(t *testing.T) {
	data := &fakeMarket{
		quotes: map[string]model.PriceQuote{
			"bitcoin":  quote("bitcoin", 67000, 61000000, 1, 1.3e12),
			"ethereum": quote("ethereum", 3500, 3200000, -2, 4.2e11),
		},
		snap: &model.MarketSnapshot{
			TotalMarketCapUSD: 2.45e12,
			Dominance:         map[string]float64{"btc": 54.2, "eth": 17.1},
			Change24hPercent:  1.3,
		},
	}
	src := NewMarketSource(data, marketConfig())

	blocks, err := src.Fetch(context.Background(), intent.Classify("cómo está el mercado hoy, precio?"))
	require.NoError(t, err)
	require.Len(t, blocks, 2)

	assert.Equal(t, GlobalLabel, blocks[0].Label)
	assert.Equal(t, "• Market Cap Total: $2.45T USD\n• Dominancia BTC: 54.2% | ETH: 17.1%\n• Cambio 24h mercado total: +1.30%", blocks[0].Body)
	assert.Equal(t, PriceLabel, blocks[1].Label)
	assert.Equal(t, [][]string{{"bitcoin", "ethereum"}}, data.priceCalls)
}

func TestMarketSourcePartialFailure(t *testing.T) {
	data := &fakeMarket{
		quotes:    map[string]model.PriceQuote{"bitcoin": quote("bitcoin", 1, 1, 0, 0)},
		globalErr: errx.WrapUpstream("coingecko", http.StatusBadGateway, nil),
	}
	src := NewMarketSource(data, marketConfig())

	blocks, err := src.Fetch(context.Background(), intent.Classify("precio cripto"))
	require.Error(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, PriceLabel, blocks[0].Label)
}

func TestMarketSourceNotRelevant(t *testing.T) {
	data := &fakeMarket{}
	src := NewMarketSource(data, marketConfig())

	blocks, err := src.Fetch(context.Background(), intent.Classify("hola, cómo andan?"))
	assert.ErrorIs(t, err, ErrNotRelevant)
	assert.Empty(t, blocks)
	assert.Empty(t, data.priceCalls)
}

func TestMarketSourceUnknownAssetIsNoData(t *testing.T) {
	data := &fakeMarket{quotes: map[string]model.PriceQuote{}}
	src := NewMarketSource(data, marketConfig())

	_, err := src.Fetch(context.Background(), intent.Classify("precio de bitcoin"))
	assert.ErrorIs(t, err, ErrNoData)
}

func TestFormatPricesSmallValues(t *testing.T) {
	quotes := map[string]model.PriceQuote{
		"shiba-inu": {ID: "shiba-inu", Values: map[string]float64{"usd": 0.00001234}},
	}
	got := FormatPrices(quotes, []string{"shiba-inu"}, []string{"usd"})
	assert.Equal(t, "• SHIBA-INU: USD $0.00001234", got)
}

func TestFormatGlobalWithoutDominance(t *testing.T) {
	got := FormatGlobal(&model.MarketSnapshot{TotalMarketCapUSD: 2.5e12, Change24hPercent: -1.25})
	assert.Equal(t, "• Market Cap Total: $2.50T USD\n• Cambio 24h mercado total: -1.25%", got)
	assert.NotContains(t, got, "Dominancia")
}

func TestCoinGeckoPrices(t *testing.T) {
	var gotQuery, gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/simple/price", r.URL.Path)
		gotQuery = r.URL.RawQuery
		gotKey = r.Header.Get("x-cg-demo-api-key")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"bitcoin":{"usd":67000,"usd_24h_change":2.5,"usd_market_cap":1.3e12,"ars":61000000}}`))
	}))
	defer srv.Close()

	cg := NewCoinGecko(model.MarketConfig{BaseURL: srv.URL, APIKey: "demo"}, srv.Client())
	quotes, err := cg.Prices(context.Background(), []string{"bitcoin", "nope"}, []string{"usd", "ars"})
	require.NoError(t, err)

	assert.Contains(t, gotQuery, "ids=bitcoin%2Cnope")
	assert.Contains(t, gotQuery, "include_24hr_change=true")
	assert.Equal(t, "demo", gotKey)
	require.Contains(t, quotes, "bitcoin")
	assert.NotContains(t, quotes, "nope")
	assert.Equal(t, 67000.0, quotes["bitcoin"].Values["usd"])
	assert.Equal(t, 61000000.0, quotes["bitcoin"].Values["ars"])
	assert.Equal(t, 2.5, quotes["bitcoin"].Change24h["usd"])
	assert.NotContains(t, quotes["bitcoin"].Change24h, "ars")
}

func TestCoinGeckoGlobal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/global", r.URL.Path)
		_, _ = w.Write([]byte(`{"data":{"total_market_cap":{"usd":2.4e12},"market_cap_percentage":{"btc":54.1,"eth":17.2,"usdt":4.1},"market_cap_change_percentage_24h_usd":-0.8}}`))
	}))
	defer srv.Close()

	cg := NewCoinGecko(model.MarketConfig{BaseURL: srv.URL}, srv.Client())
	snap, err := cg.Global(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2.4e12, snap.TotalMarketCapUSD)
	assert.Equal(t, map[string]float64{"btc": 54.1, "eth": 17.2}, snap.Dominance)
	assert.Equal(t, -0.8, snap.Change24hPercent)
}

func TestCoinGeckoRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	cg := NewCoinGecko(model.MarketConfig{BaseURL: srv.URL}, srv.Client())
	_, err := cg.Prices(context.Background(), []string{"bitcoin"}, []string{"usd"})
	require.Error(t, err)

	var appErr *errx.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, http.StatusTooManyRequests, appErr.Status)
	assert.Equal(t, "coingecko rate limited", appErr.Message)
}

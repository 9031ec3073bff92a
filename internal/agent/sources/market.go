package sources

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/beexo-community/beexy/internal/agent/intent"
	"github.com/beexo-community/beexy/internal/agent/model"
)

const (
	PriceLabel  = "DATOS DE MERCADO EN TIEMPO REAL (fuente: CoinGecko):"
	GlobalLabel = "DATOS GLOBALES DEL MERCADO CRIPTO (fuente: CoinGecko):"
)

// MarketData is the slice of the market provider the market source needs.
type MarketData interface {
	Prices(ctx context.Context, ids, currencies []string) (map[string]model.PriceQuote, error)
	Global(ctx context.Context) (*model.MarketSnapshot, error)
}

// MarketSource adds live asset prices and, for general price questions, the
// aggregate market snapshot.
//
// Policy:
//   - assets mentioned (with or without price intent): prices for those assets.
//   - price intent without assets: aggregate snapshot plus prices for the
//     default reference assets, each included when non-empty.
//   - otherwise: not relevant.
type MarketSource struct {
	data          MarketData
	currencies    []string
	defaultAssets []string
}

func NewMarketSource(data MarketData, cfg model.MarketConfig) *MarketSource {
	currencies := cfg.Currencies
	if len(currencies) == 0 {
		currencies = []string{"usd", "ars"}
	}
	defaults := cfg.DefaultAssets
	if len(defaults) == 0 {
		defaults = []string{"bitcoin", "ethereum"}
	}
	return &MarketSource{data: data, currencies: currencies, defaultAssets: defaults}
}

func (s *MarketSource) Name() string { return "market" }

func (s *MarketSource) Fetch(ctx context.Context, sig intent.Signals) ([]model.ContextBlock, error) {
	switch {
	case len(sig.Assets) > 0:
		block, err := s.prices(ctx, sig.Assets)
		if err != nil {
			return nil, err
		}
		return []model.ContextBlock{block}, nil

	case sig.PriceIntent:
		var (
			blocks []model.ContextBlock
			errs   []error
		)
		if block, err := s.global(ctx); err != nil {
			errs = append(errs, err)
		} else {
			blocks = append(blocks, block)
		}
		if block, err := s.prices(ctx, s.defaultAssets); err != nil {
			errs = append(errs, err)
		} else {
			blocks = append(blocks, block)
		}
		return blocks, errors.Join(errs...)

	default:
		return nil, ErrNotRelevant
	}
}

func (s *MarketSource) prices(ctx context.Context, ids []string) (model.ContextBlock, error) {
	if len(ids) > MaxPriceIDs {
		ids = ids[:MaxPriceIDs]
	}
	quotes, err := s.data.Prices(ctx, ids, s.currencies)
	if err != nil {
		return model.ContextBlock{}, err
	}
	body := FormatPrices(quotes, ids, s.currencies)
	if body == "" {
		return model.ContextBlock{}, ErrNoData
	}
	return model.ContextBlock{Source: "market.prices", Label: PriceLabel, Body: body}, nil
}

func (s *MarketSource) global(ctx context.Context) (model.ContextBlock, error) {
	snap, err := s.data.Global(ctx)
	if err != nil {
		return model.ContextBlock{}, err
	}
	return model.ContextBlock{Source: "market.global", Label: GlobalLabel, Body: FormatGlobal(snap)}, nil
}

// FormatPrices renders one line per requested id present in quotes, in the
// order of ids. The first currency is the primary one; the second, when
// present, is shown in parentheses.
func FormatPrices(quotes map[string]model.PriceQuote, ids, currencies []string) string {
	if len(currencies) == 0 {
		return ""
	}
	primary := currencies[0]
	var lines []string
	for _, id := range ids {
		q, ok := quotes[id]
		if !ok {
			continue
		}
		var b strings.Builder
		fmt.Fprintf(&b, "• %s: %s", strings.ToUpper(id), strings.ToUpper(primary))
		if v, ok := q.Values[primary]; ok {
			b.WriteString(" $" + formatValue(v))
		} else {
			b.WriteString(" $?")
		}
		if len(currencies) > 1 {
			second := currencies[1]
			if v, ok := q.Values[second]; ok {
				fmt.Fprintf(&b, " (%s $%s)", strings.ToUpper(second), humanize.FormatFloat("#,###.", v))
			}
		}
		if ch, ok := q.Change24h[primary]; ok {
			trend := "📈"
			if ch < 0 {
				trend = "📉"
			}
			fmt.Fprintf(&b, " | 24h: %s %+.2f%%", trend, ch)
		}
		if mcap := q.MarketCap[primary]; mcap >= 1e6 {
			b.WriteString(" | MCap: $" + compactAmount(mcap))
		}
		lines = append(lines, b.String())
	}
	return strings.Join(lines, "\n")
}

// FormatGlobal renders the aggregate market snapshot.
func FormatGlobal(snap *model.MarketSnapshot) string {
	symbols := make([]string, 0, len(snap.Dominance))
	for sym := range snap.Dominance {
		symbols = append(symbols, sym)
	}
	sort.Slice(symbols, func(i, j int) bool {
		return snap.Dominance[symbols[i]] > snap.Dominance[symbols[j]]
	})
	dom := make([]string, 0, len(symbols))
	for _, sym := range symbols {
		dom = append(dom, fmt.Sprintf("%s: %.1f%%", strings.ToUpper(sym), snap.Dominance[sym]))
	}

	lines := []string{fmt.Sprintf("• Market Cap Total: $%.2fT USD", snap.TotalMarketCapUSD/1e12)}
	if len(dom) > 0 {
		lines = append(lines, "• Dominancia "+strings.Join(dom, " | "))
	}
	lines = append(lines, fmt.Sprintf("• Cambio 24h mercado total: %+.2f%%", snap.Change24hPercent))
	return strings.Join(lines, "\n")
}

func formatValue(v float64) string {
	if v != 0 && v < 1 && v > -1 {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return humanize.FormatFloat("#,###.##", v)
}

func compactAmount(v float64) string {
	switch {
	case v >= 1e12:
		return fmt.Sprintf("%.2fT", v/1e12)
	case v >= 1e9:
		return fmt.Sprintf("%.2fB", v/1e9)
	default:
		return fmt.Sprintf("%.2fM", v/1e6)
	}
}

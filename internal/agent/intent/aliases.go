package intent

import (
	"regexp"
	"sort"
	"strings"
)

// Alias maps one free-text name onto a canonical asset id.
type Alias struct {
	Name string
	ID   string
}

// DefaultAliases is the built-in alias table. Ids are CoinGecko coin ids.
var DefaultAliases = []Alias{
	{"btc", "bitcoin"}, {"bitcoin", "bitcoin"},
	{"eth", "ethereum"}, {"ethereum", "ethereum"}, {"ether", "ethereum"},
	{"bnb", "binancecoin"}, {"binance", "binancecoin"},
	{"sol", "solana"}, {"solana", "solana"},
	{"ada", "cardano"}, {"cardano", "cardano"},
	{"xrp", "ripple"}, {"ripple", "ripple"},
	{"dot", "polkadot"}, {"polkadot", "polkadot"},
	{"doge", "dogecoin"}, {"dogecoin", "dogecoin"},
	{"shib", "shiba-inu"}, {"shiba", "shiba-inu"},
	{"avax", "avalanche-2"}, {"avalanche", "avalanche-2"},
	{"matic", "matic-network"}, {"polygon", "matic-network"},
	{"link", "chainlink"}, {"chainlink", "chainlink"},
	{"uni", "uniswap"}, {"uniswap", "uniswap"},
	{"atom", "cosmos"}, {"cosmos", "cosmos"},
	{"ltc", "litecoin"}, {"litecoin", "litecoin"},
	{"trx", "tron"}, {"tron", "tron"},
	{"usdt", "tether"}, {"tether", "tether"},
	{"usdc", "usd-coin"},
	{"dai", "dai"},
	{"near", "near"}, {"near protocol", "near"},
	{"apt", "aptos"}, {"aptos", "aptos"},
	{"arb", "arbitrum"}, {"arbitrum", "arbitrum"},
	{"op", "optimism"}, {"optimism", "optimism"},
	{"sui", "sui"},
	{"pepe", "pepe"},
}

type compiledAlias struct {
	id string
	re *regexp.Regexp
}

// AliasTable detects asset mentions by whole-word alias matching. Word
// characters include every Unicode letter, so "unión" never yields "uni".
type AliasTable struct {
	aliases []compiledAlias
}

// NewAliasTable compiles the given aliases. Matching is case-insensitive.
func NewAliasTable(aliases []Alias) *AliasTable {
	t := &AliasTable{aliases: make([]compiledAlias, 0, len(aliases))}
	for _, a := range aliases {
		name := strings.ToLower(strings.TrimSpace(a.Name))
		if name == "" || a.ID == "" {
			continue
		}
		t.aliases = append(t.aliases, compiledAlias{
			id: a.ID,
			re: regexp.MustCompile(`(?:^|[^\p{L}\p{N}_])(` + regexp.QuoteMeta(name) + `)(?:[^\p{L}\p{N}_]|$)`),
		})
	}
	return t
}

var defaultTable = NewAliasTable(DefaultAliases)

// Detect returns the canonical ids mentioned in text ordered by where they
// first appear, each id exactly once.
func (t *AliasTable) Detect(text string) []string {
	lower := strings.ToLower(text)

	firstSeen := make(map[string]int)
	for _, a := range t.aliases {
		loc := a.re.FindStringSubmatchIndex(lower)
		if loc == nil {
			continue
		}
		if pos, ok := firstSeen[a.id]; !ok || loc[2] < pos {
			firstSeen[a.id] = loc[2]
		}
	}
	if len(firstSeen) == 0 {
		return nil
	}

	ids := make([]string, 0, len(firstSeen))
	for id := range firstSeen {
		ids = append(ids, id)
	}
	sort.SliceStable(ids, func(i, j int) bool {
		if firstSeen[ids[i]] != firstSeen[ids[j]] {
			return firstSeen[ids[i]] < firstSeen[ids[j]]
		}
		return ids[i] < ids[j]
	})
	return ids
}

package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectAssetMentions(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"single alias", "cuánto vale btc?", []string{"bitcoin"}},
		{"two assets in order", "cuánto vale btc y eth?", []string{"bitcoin", "ethereum"}},
		{"order follows text", "precio de sol y btc", []string{"solana", "bitcoin"}},
		{"aliases collapse", "btc bitcoin BTC", []string{"bitcoin"}},
		{"whole word only", "me voy solo a la playa", nil},
		{"multi word alias", "qué onda near protocol", []string{"near"}},
		{"no assets", "hola cómo estás?", nil},
		{"doge", "doge subió?", []string{"dogecoin"}},
		{"accented word is not uni", "qué opinás de la unión europea?", nil},
		{"ñ word is not ada", "vivo en una cañada", nil},
		{"accented word is not dot", "la empresa se dotó de fondos", nil},
		{"accent next to alias", "ésol", nil},
		{"punctuation is a boundary", "¿sol, o eth?", []string{"solana", "ethereum"}},
		{"alias at end of text", "compré btc", []string{"bitcoin"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectAssetMentions(tt.text))
		})
	}
}

func TestAliasTableSkipsEmptyEntries(t *testing.T) {
	table := NewAliasTable([]Alias{{"", "x"}, {"foo", ""}, {"Bar", "bar-id"}})
	assert.Equal(t, []string{"bar-id"}, table.Detect("foo BAR"))
}

func TestIsPriceIntent(t *testing.T) {
	assert.True(t, IsPriceIntent("cuál es el precio de btc?"))
	assert.True(t, IsPriceIntent("cuánto vale ethereum?"))
	assert.True(t, IsPriceIntent("subió bitcoin?"))
	assert.True(t, IsPriceIntent("Market Cap de solana"))
	assert.False(t, IsPriceIntent("qué es DeFi?"))
}

func TestNeedsWebSearch(t *testing.T) {
	assert.True(t, NeedsWebSearch("quién es Satoshi Nakamoto?"))
	assert.True(t, NeedsWebSearch("que es una DAO"))
	assert.True(t, NeedsWebSearch("noticias de bitcoin hoy"))
	assert.True(t, NeedsWebSearch("diferencia entre PoW y PoS"))
	assert.True(t, NeedsWebSearch("cómo funciona staking"))

	assert.False(t, NeedsWebSearch("hola a todos"))
	assert.False(t, NeedsWebSearch("hola"))
	assert.False(t, NeedsWebSearch("gracias por la info"))
	assert.False(t, NeedsWebSearch("qué?"))
	assert.False(t, NeedsWebSearch("me gusta mucho esto"))
}

func TestHasRecency(t *testing.T) {
	assert.True(t, HasRecency("qué pasó HOY con btc"))
	assert.True(t, HasRecency("últimas noticias"))
	assert.False(t, HasRecency("qué es DeFi?"))
}

func TestClassify(t *testing.T) {
	sig := Classify("cuánto vale btc y eth?")
	assert.Equal(t, []string{"bitcoin", "ethereum"}, sig.Assets)
	assert.True(t, sig.PriceIntent)
	assert.True(t, sig.WebSearch)
	assert.False(t, sig.Recency)
}

// Package intent holds the keyword heuristics that decide which external
// facts a question needs. A missed search is acceptable.
package intent

import "strings"

// PriceKeywords mark a question about value or market movement.
var PriceKeywords = []string{
	"precio", "cotización", "cotizacion", "vale", "está",
	"esta", "cuánto", "cuanto", "price", "cuesta",
	"market cap", "capitalización", "capitalizacion",
	"subió", "subio", "bajó", "bajo", "pump", "dump",
	"ath", "máximo", "maximo", "mínimo", "minimo",
	"dominancia", "volumen",
}

// SearchTriggers mark a question that needs current information.
var SearchTriggers = []string{
	"quién es", "quien es", "qué es", "que es", "qué pasó", "que paso",
	"qué significa", "que significa",
	"noticia", "noticias", "hoy", "ahora", "actualmente", "actual",
	"último", "ultima", "últimas", "reciente", "recientes",
	"2024", "2025", "2026",
	"cuántos", "cuantos", "cuántas", "cuantas",
	"cuándo", "cuando", "dónde", "donde",
	"cómo", "como se", "por qué", "por que",
	"capital de", "presidente de", "fundador de",
	"historia de", "origen de",
	"clima", "temperatura", "tiempo en",
	"resultado", "partido", "gol",
	"película", "pelicula", "serie", "canción", "cancion",
	"libro", "autor",
	"versión", "version", "update", "lanzamiento",
	"cómo funciona", "como funciona",
	"diferencia entre", "vs", "mejor",
	"comparar", "comparación",
}

// FillerPrefixes are conversational openers that never need a search.
var FillerPrefixes = []string{
	"hola", "chau", "gracias", "buenas", "buen día",
	"jaja", "xd", "lol",
}

// RecencyKeywords make the assembler ask for news before the web search.
var RecencyKeywords = []string{
	"noticia", "hoy", "ahora", "reciente", "último", "ultima",
}

// MinSearchLength is the shortest question considered for a web search.
const MinSearchLength = 8

// DetectAssetMentions returns canonical asset ids mentioned in text, in
// first-seen order, each once.
func DetectAssetMentions(text string) []string {
	return defaultTable.Detect(text)
}

// IsPriceIntent reports whether text asks about prices or market movement.
func IsPriceIntent(text string) bool {
	return containsAny(strings.ToLower(text), PriceKeywords)
}

// NeedsWebSearch reports whether text would benefit from a web search.
func NeedsWebSearch(text string) bool {
	lower := strings.ToLower(strings.TrimSpace(text))
	if len([]rune(lower)) < MinSearchLength {
		return false
	}
	for _, p := range FillerPrefixes {
		if strings.HasPrefix(lower, p) {
			return false
		}
	}
	if strings.Contains(text, "?") {
		return true
	}
	return containsAny(lower, SearchTriggers)
}

// HasRecency reports whether text asks about something recent.
func HasRecency(text string) bool {
	return containsAny(strings.ToLower(text), RecencyKeywords)
}

// Signals is the classifier output for one question.
type Signals struct {
	Text        string
	Assets      []string
	PriceIntent bool
	WebSearch   bool
	Recency     bool
}

// Classify runs every classifier over text.
func Classify(text string) Signals {
	return Signals{
		Text:        text,
		Assets:      DetectAssetMentions(text),
		PriceIntent: IsPriceIntent(text),
		WebSearch:   NeedsWebSearch(text),
		Recency:     HasRecency(text),
	}
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

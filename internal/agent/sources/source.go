// Package sources holds the context fetchers. Each source decides from the
// question's intent signals whether it is relevant, performs at most one
// remote lookup and formats what it found into labeled context blocks.
package sources

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/beexo-community/beexy/internal/agent/intent"
	"github.com/beexo-community/beexy/internal/agent/model"
)

var (
	// ErrNotRelevant means the source has nothing to do for this question.
	ErrNotRelevant = errors.New("source not relevant")
	// ErrNoData means the lookup succeeded but found nothing.
	ErrNoData = errors.New("source returned no data")
)

// Source is one kind of external fact the assembler can add to a question.
// Fetch returns either at least one block, or an error: ErrNotRelevant,
// ErrNoData, or an *errx.AppError describing the failure. A source that
// produces several blocks may return some blocks together with an error for
// the parts that failed.
type Source interface {
	Name() string
	Fetch(ctx context.Context, sig intent.Signals) ([]model.ContextBlock, error)
}

// HTTPClient allows injecting mock HTTP clients for testing.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

const userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}

// squash collapses newlines and repeated whitespace into single spaces.
func squash(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

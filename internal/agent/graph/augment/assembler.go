// Package augment decides which external facts a question needs and merges
// them into a single context annex.
package augment

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/beexo-community/beexy/internal/agent/intent"
	"github.com/beexo-community/beexy/internal/agent/model"
	"github.com/beexo-community/beexy/internal/agent/sources"
	errx "github.com/beexo-community/beexy/internal/core/error"
	logx "github.com/beexo-community/beexy/pkg/logger"
)

// AnnexMarker introduces the context annex inside the model-facing user turn.
const AnnexMarker = "[CONTEXTO INTERNO - NO MOSTRAR LITERALMENTE AL USUARIO]:"

const defaultFetchTimeout = 10 * time.Second

// Assembler runs the relevance sources for a question and concatenates their
// blocks in source order.
type Assembler struct {
	sources []sources.Source
	timeout time.Duration
}

// NewAssembler creates an assembler. Sources are consulted concurrently but
// their blocks always appear in the order given here.
func NewAssembler(timeout time.Duration, srcs ...sources.Source) *Assembler {
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	return &Assembler{sources: srcs, timeout: timeout}
}

// Assemble classifies the question, fetches every relevant source and returns
// the question with its annex. It never fails: a source that errors or times
// out is logged and left out.
//
// Fetches run on contexts detached from ctx's cancellation, each bounded by
// the assembler's own timeout, so a caller giving up does not cut a lookup
// short.
func (a *Assembler) Assemble(ctx context.Context, question string) model.AugmentedQuery {
	sig := intent.Classify(question)
	logx.Debug().
		Strs("assets", sig.Assets).
		Bool("price_intent", sig.PriceIntent).
		Bool("web_search", sig.WebSearch).
		Bool("recency", sig.Recency).
		Msg("Question classified")

	results := make([][]model.ContextBlock, len(a.sources))

	var g errgroup.Group
	for i, src := range a.sources {
		g.Go(func() error {
			results[i] = a.fetch(ctx, src, sig)
			return nil
		})
	}
	_ = g.Wait()

	var blocks []model.ContextBlock
	for _, r := range results {
		blocks = append(blocks, r...)
	}
	annexBlocks.Observe(float64(len(blocks)))

	return model.AugmentedQuery{
		Question: question,
		Annex:    Join(blocks),
		Blocks:   blocks,
	}
}

func (a *Assembler) fetch(ctx context.Context, src sources.Source, sig intent.Signals) []model.ContextBlock {
	fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.timeout)
	defer cancel()

	start := time.Now()
	blocks, err := src.Fetch(fctx, sig)
	name := src.Name()

	switch {
	case errors.Is(err, sources.ErrNotRelevant):
		fetchTotal.WithLabelValues(name, outcomeNotRelevant).Inc()
		return nil
	case errors.Is(err, sources.ErrNoData) && len(blocks) == 0:
		fetchDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
		fetchTotal.WithLabelValues(name, outcomeEmpty).Inc()
		logx.Debug().Str("source", name).Msg("Source returned no data")
		return nil
	}

	fetchDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	if err != nil {
		fetchTotal.WithLabelValues(name, outcomeError).Inc()
		logx.Warn().
			Err(err).
			Str("source", name).
			Int("status", errx.StatusOf(err)).
			Int("partial_blocks", len(blocks)).
			Msg("Source fetch failed")
	} else {
		fetchTotal.WithLabelValues(name, outcomeOK).Inc()
	}

	kept := blocks[:0:0]
	for _, b := range blocks {
		if strings.TrimSpace(b.Body) != "" {
			kept = append(kept, b)
		}
	}
	return kept
}

// Join renders blocks into an annex, separated by blank lines.
func Join(blocks []model.ContextBlock) string {
	parts := make([]string, 0, len(blocks))
	for _, b := range blocks {
		parts = append(parts, b.String())
	}
	return strings.Join(parts, "\n\n")
}

// ModelContent is the user turn the model sees: the question, followed by the
// marked annex when there is one.
func ModelContent(question, annex string) string {
	if annex == "" {
		return question
	}
	return question + "\n\n" + AnnexMarker + "\n" + annex
}

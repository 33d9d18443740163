// Package service wires the similarity index, reranker and pitch
// generator into the two shopper-facing flows: item-context
// recommendations and free-text search.
package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"profitgen/internal/domain"
	"profitgen/internal/index"
	"profitgen/internal/pitch"
	"profitgen/internal/rerank"
)

// Options bounds the candidate pools and the upsell result size.
type Options struct {
	// RecommendK is the neighbor pool fetched for item recommendations.
	RecommendK int
	// SearchK is the candidate pool fetched for text search.
	SearchK int
	// RecommendLimit caps the upsell list returned to the shopper.
	RecommendLimit int
}

// Recommendation is the full response for an item-context request.
type Recommendation struct {
	Context domain.Product
	Items   []domain.ScoredCandidate
	Pitch   string
}

// Advisor exposes the recommendation engine to request layers. All
// fields are set at construction and read-only afterwards, so one
// Advisor serves concurrent requests.
type Advisor struct {
	index    *index.Index
	encoder  domain.Encoder
	reranker *rerank.Reranker
	pitcher  *pitch.Generator
	opts     Options
	logger   zerolog.Logger
}

// New creates an advisor over an already-built index.
func New(ix *index.Index, enc domain.Encoder, rr *rerank.Reranker, pg *pitch.Generator, opts Options, logger zerolog.Logger) *Advisor {
	if opts.RecommendK <= 0 {
		opts.RecommendK = 20
	}
	if opts.SearchK <= 0 {
		opts.SearchK = 50
	}
	if opts.RecommendLimit <= 0 {
		opts.RecommendLimit = 3
	}
	return &Advisor{index: ix, encoder: enc, reranker: rr, pitcher: pg, opts: opts, logger: logger}
}

// BuildIndex embeds every product's search text in batch and replaces
// the index contents. Called once at startup and again on catalog
// refresh.
func BuildIndex(ctx context.Context, ix *index.Index, enc domain.Encoder, products []domain.Product, logger zerolog.Logger) error {
	texts := make([]string, len(products))
	for i, p := range products {
		texts[i] = p.SearchText()
	}
	logger.Info().Int("products", len(products)).Str("encoder", enc.Name()).Msg("generating embeddings")
	vectors, err := enc.EncodeBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed catalog: %w", err)
	}
	if err := ix.Build(products, vectors); err != nil {
		return fmt.Errorf("build index: %w", err)
	}
	logger.Info().Int("vectors", ix.Len()).Int("dimension", ix.Dimension()).Msg("vector index built")
	return nil
}

// RecommendForItem returns upsell recommendations around the product
// the shopper is viewing, plus a sales pitch. Unknown asins surface
// index.ErrItemNotFound.
func (a *Advisor) RecommendForItem(ctx context.Context, asin, personaLabel string) (*Recommendation, error) {
	contextItem, err := a.index.Product(asin)
	if err != nil {
		return nil, err
	}
	candidates, err := a.index.QueryByItem(asin, a.opts.RecommendK)
	if err != nil {
		return nil, err
	}
	ranked, err := a.reranker.Rerank(candidates, contextItem.Price, personaLabel, a.opts.RecommendLimit)
	if err != nil {
		return nil, err
	}
	msg := a.pitcher.Generate(ctx, contextItem, ranked, personaLabel)
	a.logger.Debug().
		Str("asin", asin).
		Str("persona", personaLabel).
		Int("candidates", len(candidates)).
		Int("returned", len(ranked)).
		Msg("item recommendation served")
	return &Recommendation{Context: contextItem, Items: ranked, Pitch: msg}, nil
}

// Search runs a free-text catalog search and reranks the full
// candidate pool. The reference price for upsell capping is the mean
// price of the pool, since there is no single context item.
func (a *Advisor) Search(ctx context.Context, query, personaLabel string) ([]domain.ScoredCandidate, error) {
	candidates, err := a.index.QueryByText(ctx, query, a.opts.SearchK, a.encoder)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}
	ranked, err := a.reranker.Rerank(candidates, meanPrice(candidates), personaLabel, 0)
	if err != nil {
		return nil, err
	}
	a.logger.Debug().
		Str("query", query).
		Str("persona", personaLabel).
		Int("candidates", len(candidates)).
		Int("returned", len(ranked)).
		Msg("search served")
	return ranked, nil
}

func meanPrice(candidates []domain.Candidate) float64 {
	sum := 0.0
	for _, c := range candidates {
		sum += c.Product.Price
	}
	return sum / float64(len(candidates))
}

// Package pitch turns a context product and its reranked
// recommendations into a short persuasive message. A text-generation
// backend is optional; every failure falls back to a deterministic
// template so pitch generation never fails a request.
package pitch

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"profitgen/internal/domain"
)

// Generator produces sales pitches.
type Generator struct {
	backend domain.PitchBackend
	logger  zerolog.Logger
}

// New creates a generator. backend may be nil, in which case only the
// fallback path is used.
func New(backend domain.PitchBackend, logger zerolog.Logger) *Generator {
	return &Generator{backend: backend, logger: logger}
}

// Generate writes a pitch for the context product and recommendations.
// Backend errors are logged and recovered via the fallback.
func (g *Generator) Generate(ctx context.Context, contextItem domain.Product, recs []domain.ScoredCandidate, persona string) string {
	if g.backend == nil {
		return Fallback(contextItem, recs, persona)
	}
	out, err := g.backend.Complete(ctx, buildPrompt(contextItem, recs, persona))
	if err != nil {
		g.logger.Warn().Err(err).Str("asin", contextItem.ASIN).Msg("pitch backend failed, using fallback")
		return Fallback(contextItem, recs, persona)
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return Fallback(contextItem, recs, persona)
	}
	return out
}

// Fallback is the deterministic pitch used when no backend is available
// or the backend fails.
func Fallback(contextItem domain.Product, recs []domain.ScoredCandidate, persona string) string {
	if len(recs) == 0 {
		return "I'm looking for the best options for you right now."
	}
	top := recs[0].Product
	return fmt.Sprintf("Since you're looking at %s, I highly recommend %s. It fits your %s profile perfectly.",
		contextItem.Title, top.Title, persona)
}

func buildPrompt(contextItem domain.Product, recs []domain.ScoredCandidate, persona string) string {
	var b strings.Builder
	b.WriteString("You are a helpful Sales Executive.\n")
	fmt.Fprintf(&b, "User Persona: %s.\n", persona)
	fmt.Fprintf(&b, "User is viewing: %s ($%.2f).\n\n", contextItem.Title, contextItem.Price)
	b.WriteString("Recommended items:\n")
	for _, r := range recs {
		fmt.Fprintf(&b, "- %s ($%.2f)\n", r.Product.Title, r.Product.Price)
	}
	b.WriteString("\nWrite a persuasive, 2-sentence pitch for these items.\n")
	return b.String()
}

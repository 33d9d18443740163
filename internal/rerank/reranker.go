// Package rerank filters and orders similarity candidates using persona
// price ceilings and a weighted blend of similarity and margin.
package rerank

import (
	"errors"
	"fmt"
	"sort"

	"profitgen/internal/config"
	"profitgen/internal/domain"
	"profitgen/internal/persona"
)

// ErrNoPersonaRules is returned when neither the requested persona nor
// the configured fallback persona has a rule.
var ErrNoPersonaRules = errors.New("no persona rules available")

// Reranker scores candidates against persona constraints. All state is
// read-only after construction, so it is safe for concurrent use.
type Reranker struct {
	rules *persona.Store
	cfg   config.ScoringConfig
}

// New creates a reranker over the given rule store.
func New(rules *persona.Store, cfg config.ScoringConfig) *Reranker {
	return &Reranker{rules: rules, cfg: cfg}
}

// Rerank filters candidates by the effective price cap and orders the
// survivors by descending final score, ties kept in input order. limit
// of 0 or less means unbounded. An empty result is a valid outcome,
// not an error.
func (r *Reranker) Rerank(candidates []domain.Candidate, currentPrice float64, personaLabel string, limit int) ([]domain.ScoredCandidate, error) {
	rule, err := r.resolveRule(personaLabel)
	if err != nil {
		return nil, err
	}

	globalCap := currentPrice * r.cfg.MaxUpsellRatio
	effectiveCap := globalCap
	if rule.MaxSuggestedPrice > effectiveCap {
		effectiveCap = rule.MaxSuggestedPrice
	}

	scored := make([]domain.ScoredCandidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Product.Price > effectiveCap {
			continue
		}
		if c.Product.Price <= 0 {
			// Margin percentage is undefined at price zero; drop the
			// candidate instead of propagating a division error.
			continue
		}
		marginPct := 100 * c.Product.Margin() / c.Product.Price
		normProfit := marginPct / r.cfg.MarginNormCeiling
		if normProfit > 1.0 {
			normProfit = 1.0
		}
		final := c.Similarity*r.cfg.SimilarityWeight + normProfit*r.cfg.MarginWeight
		// BehaviorWeight is deliberately not part of the blend yet; see
		// the scoring config.
		scored = append(scored, domain.ScoredCandidate{Candidate: c, FinalScore: final})
	}

	sort.SliceStable(scored, func(i, j int) bool { return scored[i].FinalScore > scored[j].FinalScore })

	if limit > 0 && len(scored) > limit {
		scored = scored[:limit]
	}
	return scored, nil
}

// resolveRule applies the two-step persona resolution: the requested
// label, then the configured fallback, then a hard failure.
func (r *Reranker) resolveRule(label string) (domain.PersonaRule, error) {
	if rule, ok := r.rules.Rule(label); ok {
		return rule, nil
	}
	if rule, ok := r.rules.Rule(r.cfg.FallbackPersona); ok {
		return rule, nil
	}
	return domain.PersonaRule{}, fmt.Errorf("persona %q and fallback %q: %w",
		label, r.cfg.FallbackPersona, ErrNoPersonaRules)
}

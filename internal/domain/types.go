package domain

import "context"

// Product represents a single catalog item. Loaded once at startup and
// treated as read-only afterwards.
type Product struct {
	ASIN         string
	Title        string
	Price        float64
	CostPrice    float64
	Category     string
	QualityScore float64
}

// SearchText is the string that gets embedded for this product.
func (p Product) SearchText() string {
	if p.Category == "" {
		return p.Title
	}
	return p.Title + " " + p.Category
}

// Margin returns the absolute profit on the product.
func (p Product) Margin() float64 {
	return p.Price - p.CostPrice
}

// Candidate is a product paired with its similarity to the query, as
// produced by the index before reranking.
type Candidate struct {
	Product Product
	// Similarity is cosine similarity to the query vector, in [-1, 1].
	Similarity float64
}

// ScoredCandidate is a candidate that survived reranking, carrying the
// final blended score. Request-local, never persisted.
type ScoredCandidate struct {
	Candidate
	FinalScore float64
}

// SessionEvent is one row of the historical clickstream: a price and a
// category observed within a browsing session.
type SessionEvent struct {
	SessionID string
	Order     int
	Price     float64
	Category  string
}

// PersonaRule bounds upsell pricing for one shopper persona.
type PersonaRule struct {
	MeanPrice float64
	MaxPrice  float64
	// MaxSuggestedPrice is MaxPrice multiplied by the upsell buffer.
	MaxSuggestedPrice float64
}

// Well-known persona labels. The rule map is keyed by open strings, so
// these are conventions rather than an enum.
const (
	PersonaBudget   = "Budget Conscious"
	PersonaStandard = "Standard Shopper"
	PersonaPremium  = "Premium Shopper"
)

// Encoder converts free text into a dense numeric vector. Build-time
// encoding uses EncodeBatch, query-time encoding uses Encode.
type Encoder interface {
	Name() string
	Dimension() int
	Encode(ctx context.Context, text string) ([]float64, error)
	EncodeBatch(ctx context.Context, texts []string) ([][]float64, error)
}

// PitchBackend generates a short persuasive message from a prompt. Any
// error is recovered by the caller via a deterministic fallback.
type PitchBackend interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

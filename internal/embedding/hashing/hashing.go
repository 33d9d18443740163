// Package hashing implements a deterministic feature-hashing text
// encoder. Tokens are hashed into a fixed number of buckets with a
// sign hash, so the output dimension is constant, no vocabulary pass
// over the corpus is needed, and identical text always produces an
// identical vector. It stands in for a remote embedding model in
// offline runs and tests.
package hashing

import (
	"context"
	"errors"
	"hash/fnv"
	"math"
	"regexp"
	"strings"
)

// Encoder hashes word tokens into a fixed-dimension vector.
type Encoder struct {
	dimension    int
	tokenPattern *regexp.Regexp
	stopwords    map[string]struct{}
}

// NewEncoder creates an encoder with the given output dimension.
func NewEncoder(dimension int) (*Encoder, error) {
	if dimension <= 0 {
		return nil, errors.New("hashing encoder dimension must be positive")
	}
	return &Encoder{
		dimension:    dimension,
		tokenPattern: regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`),
		stopwords:    defaultStopwords(),
	}, nil
}

// Name returns the identifier of this encoder implementation.
func (e *Encoder) Name() string { return "hashing" }

// Dimension returns the fixed output dimension.
func (e *Encoder) Dimension() int { return e.dimension }

// Encode hashes the text's tokens into buckets and L2-normalizes the
// result. A text with no tokens yields the zero vector.
func (e *Encoder) Encode(_ context.Context, text string) ([]float64, error) {
	vec := make([]float64, e.dimension)
	for _, tok := range e.tokenize(text) {
		h := fnv.New64a()
		_, _ = h.Write([]byte(tok))
		sum := h.Sum64()
		bucket := int(sum % uint64(e.dimension))
		// One bit of the hash picks the sign, which keeps colliding
		// tokens from only ever reinforcing each other.
		if sum&(1<<63) != 0 {
			vec[bucket] -= 1
		} else {
			vec[bucket] += 1
		}
	}
	norm := 0.0
	for _, v := range vec {
		norm += v * v
	}
	if norm > 0 {
		inv := 1 / math.Sqrt(norm)
		for i := range vec {
			vec[i] *= inv
		}
	}
	return vec, nil
}

// EncodeBatch encodes each text independently, preserving order.
func (e *Encoder) EncodeBatch(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i, t := range texts {
		vec, err := e.Encode(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

func (e *Encoder) tokenize(text string) []string {
	lower := strings.ToLower(text)
	raw := e.tokenPattern.FindAllString(lower, -1)
	if len(raw) == 0 {
		return nil
	}
	out := raw[:0]
	for _, t := range raw {
		if _, isStop := e.stopwords[t]; isStop {
			continue
		}
		out = append(out, t)
	}
	return out
}

func defaultStopwords() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to", "of", "in", "on", "at", "by", "with", "as", "is", "are", "was", "were", "be", "been", "being", "it", "this", "that", "these", "those", "from", "up", "down", "over", "under", "again", "further", "than", "so", "such", "into", "about", "between", "through", "during", "before", "after", "above", "below", "out", "off", "own", "same", "too", "very", "can", "will", "just", "don", "should", "now",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}

// Package index implements an exact nearest-neighbor index over product
// embeddings. Vectors are L2-normalized at build time so that a single
// inner product per comparison yields cosine similarity.
package index

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"profitgen/internal/domain"
)

var (
	// ErrDimensionMismatch is returned by Build when the supplied
	// vectors do not all share one dimension.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
	// ErrItemNotFound is returned by QueryByItem for an unknown asin.
	ErrItemNotFound = errors.New("item not found in index")
	// ErrEmptyIndex is returned when querying before Build.
	ErrEmptyIndex = errors.New("index is empty")
)

// Index holds one normalized embedding per catalog product and answers
// k-nearest-neighbor queries under cosine similarity. It is built once
// via Build and read-only afterwards, so concurrent queries are safe;
// the mutex only guards against a rebuild racing in-flight reads.
type Index struct {
	mu        sync.RWMutex
	dimension int
	vectors   [][]float64
	products  []domain.Product
	byASIN    map[string]int
}

// New returns an empty index. Queries fail with ErrEmptyIndex until
// Build has been called.
func New() *Index { return &Index{} }

// Build replaces the whole collection. Products and vectors are aligned
// by position. Every vector is L2-normalized in place before indexing.
func (ix *Index) Build(products []domain.Product, vectors [][]float64) error {
	if len(products) == 0 || len(products) != len(vectors) {
		return fmt.Errorf("build: need one vector per product, got %d products and %d vectors",
			len(products), len(vectors))
	}
	dim := len(vectors[0])
	if dim == 0 {
		return fmt.Errorf("build: %w: zero-length vector at position 0", ErrDimensionMismatch)
	}
	for i, v := range vectors {
		if len(v) != dim {
			return fmt.Errorf("build: %w: vector %d has length %d, want %d",
				ErrDimensionMismatch, i, len(v), dim)
		}
		normalize(v)
	}
	byASIN := make(map[string]int, len(products))
	for i, p := range products {
		byASIN[p.ASIN] = i
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.dimension = dim
	ix.vectors = vectors
	ix.products = products
	ix.byASIN = byASIN
	return nil
}

// Dimension returns the embedding dimension, or 0 before Build.
func (ix *Index) Dimension() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.dimension
}

// Len returns the number of indexed products.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.products)
}

// Product looks up a catalog product by asin.
func (ix *Index) Product(asin string) (domain.Product, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	i, ok := ix.byASIN[asin]
	if !ok {
		return domain.Product{}, fmt.Errorf("product %q: %w", asin, ErrItemNotFound)
	}
	return ix.products[i], nil
}

// Products returns the indexed catalog in insertion order. The returned
// slice is shared and must not be mutated.
func (ix *Index) Products() []domain.Product {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.products
}

// Vectors returns the normalized vectors in insertion order, aligned
// with Products. Shared, read-only.
func (ix *Index) Vectors() [][]float64 {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.vectors
}

// QueryByVector returns the k products most similar to the given
// vector, ordered by descending cosine similarity with ties broken by
// catalog insertion order. The query vector is normalized in place
// before the search.
func (ix *Index) QueryByVector(vector []float64, k int) ([]domain.Candidate, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.queryLocked(vector, k, -1)
}

// QueryByItem finds the k nearest neighbors of an already-indexed
// product. The stored vector is reused rather than re-encoded, and the
// query item itself is excluded from the result.
func (ix *Index) QueryByItem(asin string, k int) ([]domain.Candidate, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	self, ok := ix.byASIN[asin]
	if !ok {
		return nil, fmt.Errorf("query by item %q: %w", asin, ErrItemNotFound)
	}
	// queryLocked normalizes its argument in place, so the stored
	// vector must be copied before handing it over: concurrent item
	// queries share ix.vectors under a read lock.
	vec := append([]float64(nil), ix.vectors[self]...)
	// Fetch k+1 so the self match can be dropped. If numerical ties
	// push the self match out of the window the result may hold fewer
	// than k neighbors, which is accepted.
	return ix.queryLocked(vec, k+1, self)
}

// QueryByText encodes the query with the supplied encoder and searches
// for its k nearest neighbors. Encoding is the only potentially slow
// call in the request path; the context bounds it.
func (ix *Index) QueryByText(ctx context.Context, query string, k int, enc domain.Encoder) ([]domain.Candidate, error) {
	if ix.Len() == 0 {
		return nil, fmt.Errorf("query by text: %w", ErrEmptyIndex)
	}
	vec, err := enc.Encode(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("encode query: %w", err)
	}
	return ix.QueryByVector(vec, k)
}

// queryLocked runs the inner-product scan. exclude is an index position
// to drop from results, or -1. Callers hold at least a read lock.
func (ix *Index) queryLocked(vector []float64, k int, exclude int) ([]domain.Candidate, error) {
	if len(ix.vectors) == 0 {
		return nil, ErrEmptyIndex
	}
	if len(vector) != ix.dimension {
		return nil, fmt.Errorf("query: %w: got %d, want %d", ErrDimensionMismatch, len(vector), ix.dimension)
	}
	if k <= 0 {
		return nil, fmt.Errorf("query: k must be positive, got %d", k)
	}
	normalize(vector)

	scores := make([]float64, len(ix.vectors))
	for i := range ix.vectors {
		scores[i] = dot(ix.vectors[i], vector)
	}
	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	// Stable sort keeps ties in catalog insertion order, which makes
	// repeated queries deterministic.
	sort.SliceStable(order, func(a, b int) bool { return scores[order[a]] > scores[order[b]] })

	if k > len(order) {
		k = len(order)
	}
	results := make([]domain.Candidate, 0, k)
	for _, j := range order[:k] {
		if j == exclude {
			continue
		}
		results = append(results, domain.Candidate{Product: ix.products[j], Similarity: scores[j]})
	}
	if exclude >= 0 && len(results) == k {
		// Self match was outside the k+1 window; trim back to k.
		results = results[:k-1]
	}
	return results, nil
}

func dot(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

// normalize scales v to unit L2 length in place. Zero vectors are left
// untouched so they score 0 against everything instead of producing
// NaNs.
func normalize(v []float64) {
	sum := 0.0
	for _, x := range v {
		sum += x * x
	}
	if sum == 0 {
		return
	}
	inv := 1 / math.Sqrt(sum)
	for i := range v {
		v[i] *= inv
	}
}

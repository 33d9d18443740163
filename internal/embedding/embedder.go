// Package embedding provides text encoder implementations and a
// concurrency-safe lazy initialization wrapper around them.
package embedding

import (
	"context"
	"sync"

	"profitgen/internal/domain"
)

// Lazy defers construction of an encoder until first use. The factory
// runs at most once, guarded by sync.Once, so concurrent first queries
// share a single initialization instead of racing on an ad hoc nil
// check. Useful when the underlying encoder is expensive to set up
// (remote client, model load) and text queries may never happen.
type Lazy struct {
	once    sync.Once
	factory func() (domain.Encoder, error)
	enc     domain.Encoder
	err     error
}

// NewLazy wraps an encoder factory.
func NewLazy(factory func() (domain.Encoder, error)) *Lazy {
	return &Lazy{factory: factory}
}

// ensure initializes the underlying encoder exactly once.
func (l *Lazy) ensure() (domain.Encoder, error) {
	l.once.Do(func() {
		l.enc, l.err = l.factory()
	})
	return l.enc, l.err
}

// Name reports the underlying encoder's name, initializing it if
// needed. Returns "lazy" when initialization fails.
func (l *Lazy) Name() string {
	enc, err := l.ensure()
	if err != nil {
		return "lazy"
	}
	return enc.Name()
}

// Dimension reports the underlying encoder's dimension, initializing
// it if needed. Returns 0 when initialization fails.
func (l *Lazy) Dimension() int {
	enc, err := l.ensure()
	if err != nil {
		return 0
	}
	return enc.Dimension()
}

// Encode initializes the encoder if needed and delegates.
func (l *Lazy) Encode(ctx context.Context, text string) ([]float64, error) {
	enc, err := l.ensure()
	if err != nil {
		return nil, err
	}
	return enc.Encode(ctx, text)
}

// EncodeBatch initializes the encoder if needed and delegates.
func (l *Lazy) EncodeBatch(ctx context.Context, texts []string) ([][]float64, error) {
	enc, err := l.ensure()
	if err != nil {
		return nil, err
	}
	return enc.EncodeBatch(ctx, texts)
}

package hashing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEncoder(t *testing.T) {
	_, err := NewEncoder(0)
	require.Error(t, err)

	enc, err := NewEncoder(128)
	require.NoError(t, err)
	assert.Equal(t, 128, enc.Dimension())
	assert.Equal(t, "hashing", enc.Name())
}

func TestEncodeDeterministic(t *testing.T) {
	enc, err := NewEncoder(64)
	require.NoError(t, err)

	a, err := enc.Encode(context.Background(), "trail running shoes")
	require.NoError(t, err)
	b, err := enc.Encode(context.Background(), "trail running shoes")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestEncodeUnitNorm(t *testing.T) {
	enc, err := NewEncoder(64)
	require.NoError(t, err)

	vec, err := enc.Encode(context.Background(), "cast iron skillet for camping")
	require.NoError(t, err)
	require.Len(t, vec, 64)

	sum := 0.0
	for _, v := range vec {
		sum += v * v
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestEncodeNoTokensYieldsZeroVector(t *testing.T) {
	enc, err := NewEncoder(32)
	require.NoError(t, err)

	// stopwords and punctuation only
	vec, err := enc.Encode(context.Background(), "the and of ... 123")
	require.NoError(t, err)
	for _, v := range vec {
		assert.Zero(t, v)
	}
}

func TestEncodeDistinguishesTexts(t *testing.T) {
	enc, err := NewEncoder(256)
	require.NoError(t, err)

	a, err := enc.Encode(context.Background(), "espresso machine")
	require.NoError(t, err)
	b, err := enc.Encode(context.Background(), "hiking boots")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestEncodeBatch(t *testing.T) {
	enc, err := NewEncoder(64)
	require.NoError(t, err)

	texts := []string{"first product", "second product", "third product"}
	vecs, err := enc.EncodeBatch(context.Background(), texts)
	require.NoError(t, err)
	require.Len(t, vecs, 3)

	for i, text := range texts {
		single, err := enc.Encode(context.Background(), text)
		require.NoError(t, err)
		assert.Equal(t, single, vecs[i])
	}
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 0.5, cfg.Scoring.SimilarityWeight)
	assert.Equal(t, 0.3, cfg.Scoring.MarginWeight)
	assert.Equal(t, 0.2, cfg.Scoring.BehaviorWeight)
	assert.Equal(t, 1.5, cfg.Scoring.MaxUpsellRatio)
	assert.Equal(t, 1.2, cfg.Scoring.UpsellBuffer)
	assert.Equal(t, "Standard Shopper", cfg.Scoring.FallbackPersona)
	assert.Equal(t, 80.0, cfg.Scoring.MarginNormCeiling)

	assert.Equal(t, "hashing", cfg.Encoder.Type)
	require.NotNil(t, cfg.Encoder.Hashing)
	assert.Equal(t, 384, cfg.Encoder.Hashing.Dimension)

	assert.False(t, cfg.Pitch.Enabled)
	assert.Equal(t, "GROQ_API_KEY", cfg.Pitch.APIKeyEnv)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 20, cfg.Server.RecommendK)
	assert.Equal(t, 50, cfg.Server.SearchK)
	assert.Equal(t, 3, cfg.Server.RecommendLimit)
	assert.Equal(t, 10, cfg.TopK)
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadAppliesDefaultsToPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
scoring:
  similarity_weight: 0.6
  max_upsell_ratio: 2.0
encoder:
  type: openai
  openai:
    model: custom-embed
server:
  addr: ":9999"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 0.6, cfg.Scoring.SimilarityWeight)
	assert.Equal(t, 2.0, cfg.Scoring.MaxUpsellRatio)
	// untouched fields keep their defaults
	assert.Equal(t, 0.3, cfg.Scoring.MarginWeight)
	assert.Equal(t, "Standard Shopper", cfg.Scoring.FallbackPersona)

	require.NotNil(t, cfg.Encoder.OpenAI)
	assert.Equal(t, "custom-embed", cfg.Encoder.OpenAI.Model)
	assert.Equal(t, "https://api.openai.com/v1", cfg.Encoder.OpenAI.BaseURL)
	assert.Equal(t, "OPENAI_API_KEY", cfg.Encoder.OpenAI.APIKeyEnv)

	assert.Equal(t, ":9999", cfg.Server.Addr)
	assert.Equal(t, 50, cfg.Server.SearchK)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("scoring: ["), 0o644))
	_, err := Load(path)
	require.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	cfg.Server.Addr = ":7777"
	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7777", loaded.Server.Addr)
	assert.Equal(t, cfg.Scoring, loaded.Scoring)
}

// Package app assembles the engine from configuration: data loading,
// persona rule derivation, encoder selection and index construction.
// Both binaries (HTTP server and TUI) boot through here.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"profitgen/internal/artifact"
	"profitgen/internal/catalog"
	"profitgen/internal/config"
	"profitgen/internal/domain"
	"profitgen/internal/embedding"
	"profitgen/internal/embedding/hashing"
	"profitgen/internal/embedding/openai"
	"profitgen/internal/index"
	"profitgen/internal/persona"
	"profitgen/internal/pitch"
	"profitgen/internal/pitch/groq"
	"profitgen/internal/rerank"
	"profitgen/internal/service"
)

// BuildEncoder constructs the text encoder selected by config. The
// remote client is wrapped in a lazy once-init handle so nothing is
// dialed until the first encode call.
func BuildEncoder(cfg config.EncoderConfig) (domain.Encoder, error) {
	switch cfg.Type {
	case "hashing", "":
		dim := 384
		if cfg.Hashing != nil {
			dim = cfg.Hashing.Dimension
		}
		return hashing.NewEncoder(dim)
	case "openai":
		if cfg.OpenAI == nil {
			return nil, fmt.Errorf("openai encoder config missing")
		}
		o := *cfg.OpenAI
		return embedding.NewLazy(func() (domain.Encoder, error) {
			return openai.NewClient(openai.Config{
				BaseURL:   o.BaseURL,
				APIKeyEnv: o.APIKeyEnv,
				Model:     o.Model,
				Timeout:   time.Duration(o.TimeoutSecs) * time.Second,
				BatchSize: o.BatchSize,
			})
		}), nil
	default:
		return nil, fmt.Errorf("unknown encoder: %s", cfg.Type)
	}
}

// buildPitchBackend returns nil when the LLM path is disabled or has no
// API key; the generator then always uses the deterministic fallback.
func buildPitchBackend(cfg config.PitchConfig, logger zerolog.Logger) domain.PitchBackend {
	if !cfg.Enabled {
		return nil
	}
	client, err := groq.NewClient(groq.Config{
		BaseURL:     cfg.BaseURL,
		APIKeyEnv:   cfg.APIKeyEnv,
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		Timeout:     time.Duration(cfg.TimeoutSecs) * time.Second,
	})
	if err != nil {
		logger.Warn().Err(err).Msg("pitch backend unavailable, using fallback pitches")
		return nil
	}
	return client
}

// Bootstrap loads data, derives persona rules, builds the similarity
// index and returns a ready advisor. Any failure here means the engine
// never reaches a ready state.
func Bootstrap(ctx context.Context, cfg *config.AppConfig, logger zerolog.Logger) (*service.Advisor, error) {
	loader := catalog.NewLoader(logger)

	events, err := loader.LoadClickstream(cfg.Data.ClickstreamPath)
	if err != nil {
		return nil, err
	}
	rules, err := persona.NewAnalyzer(cfg.Scoring.UpsellBuffer).Analyze(events)
	if err != nil {
		return nil, err
	}
	logger.Info().Int("personas", len(rules)).Msg("persona rules generated")
	ruleStore := persona.NewStore(rules)

	encoder, err := BuildEncoder(cfg.Encoder)
	if err != nil {
		return nil, err
	}

	ix := index.New()
	if snap, err := artifact.Load(cfg.Data.ArtifactPath, cfg.Encoder.Type); err == nil {
		if err := ix.Build(snap.Products, snap.Vectors); err != nil {
			return nil, err
		}
		logger.Info().Int("vectors", ix.Len()).Str("path", cfg.Data.ArtifactPath).Msg("index restored from artifact")
	} else {
		if !errors.Is(err, os.ErrNotExist) {
			logger.Warn().Err(err).Msg("ignoring unusable artifact, re-encoding catalog")
		}
		products, err := loader.LoadCatalog(cfg.Data.ProductsPath, cfg.Data.CategoriesPath, cfg.Data.SampleSize)
		if err != nil {
			return nil, err
		}
		if err := service.BuildIndex(ctx, ix, encoder, products, logger); err != nil {
			return nil, err
		}
		snap := &artifact.Snapshot{
			Encoder:   cfg.Encoder.Type,
			Dimension: ix.Dimension(),
			Products:  ix.Products(),
			Vectors:   ix.Vectors(),
		}
		if err := artifact.Save(cfg.Data.ArtifactPath, snap); err != nil {
			logger.Warn().Err(err).Str("path", cfg.Data.ArtifactPath).Msg("could not save artifact")
		}
	}

	reranker := rerank.New(ruleStore, cfg.Scoring)
	pitcher := pitch.New(buildPitchBackend(cfg.Pitch, logger), logger)

	return service.New(ix, encoder, reranker, pitcher, service.Options{
		RecommendK:     cfg.Server.RecommendK,
		SearchK:        cfg.Server.SearchK,
		RecommendLimit: cfg.Server.RecommendLimit,
	}, logger), nil
}

package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ScoringConfig holds the weights and caps used by the reranker.
type ScoringConfig struct {
	SimilarityWeight float64 `yaml:"similarity_weight"`
	MarginWeight     float64 `yaml:"margin_weight"`
	// BehaviorWeight is read and carried but not yet combined into the
	// final score. Kept as a knob so existing config files stay valid.
	BehaviorWeight    float64 `yaml:"behavior_weight"`
	MaxUpsellRatio    float64 `yaml:"max_upsell_ratio"`
	UpsellBuffer      float64 `yaml:"upsell_buffer"`
	FallbackPersona   string  `yaml:"fallback_persona"`
	MarginNormCeiling float64 `yaml:"margin_norm_ceiling"`
}

// OpenAIEncoderConfig holds configuration for the OpenAI-compatible
// embeddings client.
type OpenAIEncoderConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
	BatchSize   int    `yaml:"batch_size"`
}

// HashingEncoderConfig configures the local feature-hashing encoder.
type HashingEncoderConfig struct {
	Dimension int `yaml:"dimension"`
}

// EncoderConfig selects and configures the text encoder implementation.
type EncoderConfig struct {
	Type    string                `yaml:"type"`
	OpenAI  *OpenAIEncoderConfig  `yaml:"openai,omitempty"`
	Hashing *HashingEncoderConfig `yaml:"hashing,omitempty"`
}

// PitchConfig configures the LLM pitch backend. When disabled (or when
// the API key env var is empty) the deterministic fallback is used.
type PitchConfig struct {
	Enabled     bool    `yaml:"enabled"`
	BaseURL     string  `yaml:"base_url"`
	APIKeyEnv   string  `yaml:"api_key_env"`
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
	TimeoutSecs int     `yaml:"timeout_secs"`
}

// DataConfig points at the CSV inputs for catalog and clickstream and
// at the embedded-catalog artifact used to skip re-encoding on restart.
type DataConfig struct {
	ProductsPath    string `yaml:"products_path"`
	CategoriesPath  string `yaml:"categories_path"`
	ClickstreamPath string `yaml:"clickstream_path"`
	ArtifactPath    string `yaml:"artifact_path"`
	SampleSize      int    `yaml:"sample_size"`
}

// ServerConfig configures the HTTP front end.
type ServerConfig struct {
	Addr           string `yaml:"addr"`
	RecommendK     int    `yaml:"recommend_k"`
	SearchK        int    `yaml:"search_k"`
	RecommendLimit int    `yaml:"recommend_limit"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Scoring ScoringConfig `yaml:"scoring"`
	Encoder EncoderConfig `yaml:"encoder"`
	Pitch   PitchConfig   `yaml:"pitch"`
	Data    DataConfig    `yaml:"data"`
	Server  ServerConfig  `yaml:"server"`
	TopK    int           `yaml:"top_k"`
}

// Load reads a config from a specified path. If the file does not
// exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

// LoadDefault tries ./config.yaml first, then
// ~/.config/profitgen/config.yaml. If neither exists, it writes
// defaults to the user path and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := Default()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as
// needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "profitgen", "config.yaml"), nil
}

// Default returns the built-in configuration.
func Default() *AppConfig {
	cfg := &AppConfig{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *AppConfig) {
	s := &cfg.Scoring
	if s.SimilarityWeight == 0 {
		s.SimilarityWeight = 0.5
	}
	if s.MarginWeight == 0 {
		s.MarginWeight = 0.3
	}
	if s.BehaviorWeight == 0 {
		s.BehaviorWeight = 0.2
	}
	if s.MaxUpsellRatio == 0 {
		s.MaxUpsellRatio = 1.5
	}
	if s.UpsellBuffer == 0 {
		s.UpsellBuffer = 1.2
	}
	if s.FallbackPersona == "" {
		s.FallbackPersona = "Standard Shopper"
	}
	if s.MarginNormCeiling == 0 {
		s.MarginNormCeiling = 80.0
	}

	if cfg.Encoder.Type == "" {
		cfg.Encoder.Type = "hashing"
	}
	if cfg.Encoder.Type == "hashing" {
		if cfg.Encoder.Hashing == nil {
			cfg.Encoder.Hashing = &HashingEncoderConfig{}
		}
		if cfg.Encoder.Hashing.Dimension == 0 {
			cfg.Encoder.Hashing.Dimension = 384
		}
	}
	if cfg.Encoder.Type == "openai" && cfg.Encoder.OpenAI != nil {
		o := cfg.Encoder.OpenAI
		if o.BaseURL == "" {
			o.BaseURL = "https://api.openai.com/v1"
		}
		if o.APIKeyEnv == "" {
			o.APIKeyEnv = "OPENAI_API_KEY"
		}
		if o.Model == "" {
			o.Model = "text-embedding-3-small"
		}
		if o.TimeoutSecs == 0 {
			o.TimeoutSecs = 30
		}
		if o.BatchSize == 0 {
			o.BatchSize = 32
		}
	}

	p := &cfg.Pitch
	if p.BaseURL == "" {
		p.BaseURL = "https://api.groq.com/openai/v1"
	}
	if p.APIKeyEnv == "" {
		p.APIKeyEnv = "GROQ_API_KEY"
	}
	if p.Model == "" {
		p.Model = "meta-llama/llama-4-maverick-17b-128e-instruct"
	}
	if p.Temperature == 0 {
		p.Temperature = 0.5
	}
	if p.TimeoutSecs == 0 {
		p.TimeoutSecs = 20
	}

	d := &cfg.Data
	if d.ProductsPath == "" {
		d.ProductsPath = "data/amazon_products.csv"
	}
	if d.CategoriesPath == "" {
		d.CategoriesPath = "data/amazon_categories.csv"
	}
	if d.ClickstreamPath == "" {
		d.ClickstreamPath = "data/e-shop clothing 2008.csv"
	}
	if d.ArtifactPath == "" {
		d.ArtifactPath = "data/catalog_artifacts.json"
	}
	if d.SampleSize == 0 {
		d.SampleSize = 50000
	}

	sv := &cfg.Server
	if sv.Addr == "" {
		sv.Addr = ":8080"
	}
	if sv.RecommendK == 0 {
		sv.RecommendK = 20
	}
	if sv.SearchK == 0 {
		sv.SearchK = 50
	}
	if sv.RecommendLimit == 0 {
		sv.RecommendLimit = 3
	}

	if cfg.TopK == 0 {
		cfg.TopK = 10
	}
}

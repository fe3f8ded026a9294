package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xxxsen/common/logger"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Port           int                 `json:"port" yaml:"port"`
	LogConfig      logger.LogConfig    `json:"log_config" yaml:"log_config"`
	CORSAllowlist  []string            `json:"cors_allowlist" yaml:"cors_allowlist"`
	RateLimitMs    int                 `json:"rate_limit_ms" yaml:"rate_limit_ms"`
	MaxUploadBytes int64               `json:"max_upload_bytes" yaml:"max_upload_bytes"`
	ArtifactStore  ArtifactStoreConfig `json:"artifact_store" yaml:"artifact_store"`
	Models         ModelsConfig        `json:"models" yaml:"models"`
	Gemini         GeminiConfig        `json:"gemini" yaml:"gemini"`
}

type ArtifactStoreConfig struct {
	Type string      `json:"type" yaml:"type"`
	Data interface{} `json:"data" yaml:"data"`
}

type ModelsConfig struct {
	Crop         ModelSource `json:"crop" yaml:"crop"`
	Fertilizer   ModelSource `json:"fertilizer" yaml:"fertilizer"`
	LabelEncoder string      `json:"label_encoder" yaml:"label_encoder"`
}

// ModelSource selects a classifier: a tree-ensemble artifact from the artifact
// store, or a remote model server when Endpoint is set.
type ModelSource struct {
	Artifact  string `json:"artifact" yaml:"artifact"`
	Endpoint  string `json:"endpoint" yaml:"endpoint"`
	TimeoutMs int    `json:"timeout_ms" yaml:"timeout_ms"`
}

type GeminiConfig struct {
	Provider       string   `json:"provider" yaml:"provider"`
	APIKey         string   `json:"api_key" yaml:"api_key"`
	APIKeyEnv      string   `json:"api_key_env" yaml:"api_key_env"`
	Model          string   `json:"model" yaml:"model"`
	FallbackModels []string `json:"fallback_models" yaml:"fallback_models"`
	MaxAttempts    int      `json:"max_attempts" yaml:"max_attempts"`
	BaseDelayMs    int      `json:"base_delay_ms" yaml:"base_delay_ms"`
	CallTimeoutMs  int      `json:"call_timeout_ms" yaml:"call_timeout_ms"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("decode config: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("decode config: %w", err)
		}
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Port == 0 {
		c.Port = 8000
	}
	if c.LogConfig.Level == "" {
		c.LogConfig.Level = "info"
	}
	if c.MaxUploadBytes == 0 {
		c.MaxUploadBytes = 10 * 1024 * 1024
	}
	if c.ArtifactStore.Type == "" {
		c.ArtifactStore.Type = "local"
	}
	if c.Models.Crop.Artifact == "" && c.Models.Crop.Endpoint == "" {
		c.Models.Crop.Artifact = "Navis_Base.json"
	}
	if c.Models.Fertilizer.Artifact == "" && c.Models.Fertilizer.Endpoint == "" {
		c.Models.Fertilizer.Artifact = "fertilizer.json"
	}
	if c.Models.LabelEncoder == "" {
		c.Models.LabelEncoder = "label_encoder.json"
	}
	if c.Gemini.Provider == "" {
		c.Gemini.Provider = "gemini"
	}
	if c.Gemini.APIKeyEnv == "" {
		c.Gemini.APIKeyEnv = "GOOGLE_API_KEY"
	}
	if c.Gemini.Model == "" {
		c.Gemini.Model = "gemini-2.5-flash"
	}
	if c.Gemini.MaxAttempts == 0 {
		c.Gemini.MaxAttempts = 3
	}
	if c.Gemini.BaseDelayMs == 0 {
		c.Gemini.BaseDelayMs = 2000
	}
	// negative call_timeout_ms turns the overall deadline off
	if c.Gemini.CallTimeoutMs == 0 {
		c.Gemini.CallTimeoutMs = 60000
	}
}

func (c *Config) validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("port out of range: %d", c.Port)
	}
	if c.Gemini.MaxAttempts < 0 {
		return fmt.Errorf("gemini.max_attempts must not be negative")
	}
	if c.Gemini.BaseDelayMs < 0 {
		return fmt.Errorf("gemini.base_delay_ms must not be negative")
	}
	if c.RateLimitMs < 0 {
		return fmt.Errorf("rate_limit_ms must not be negative")
	}
	return nil
}

// ResolveAPIKey returns the inline key, falling back to the configured
// environment variable.
func (g GeminiConfig) ResolveAPIKey() string {
	if key := strings.TrimSpace(g.APIKey); key != "" {
		return key
	}
	if g.APIKeyEnv == "" {
		return ""
	}
	return strings.TrimSpace(os.Getenv(g.APIKeyEnv))
}

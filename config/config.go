// Package config loads and validates the file-driven configuration of a
// full npcflow deployment: model providers, pipeline tuning, store paths,
// ambient scheduling and the NPC cast. Files may be YAML or JSON, decoded
// over Default() so absent keys keep their documented defaults.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/npcflow/core"
	"github.com/hupe1980/npcflow/embedding"
)

// Provider types accepted by ProviderConfig.Type. An empty type means
// openai.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderMock      = "mock"
)

// Defaults carried by Default().
const (
	DefaultHistoryMaxMessages = 10
	DefaultHistoryTTLSeconds  = 3600
	DefaultMemoryTopK         = 3
	DefaultAmbientCron        = "@every 30s"
	DefaultSweepCron          = "@every 60s"
	DefaultMaxIdleSeconds     = 300
)

// ProviderConfig selects and configures a chat model.
type ProviderConfig struct {
	Type        string   `json:"type" yaml:"type"`
	APIKey      string   `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	BaseURL     string   `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	Model       string   `json:"model,omitempty" yaml:"model,omitempty"`
	Temperature *float64 `json:"temperature,omitempty" yaml:"temperature,omitempty"`
}

// ReviewConfig tunes the reply review pass. Reflection runs only when both
// Enabled here and Supervisor.EnableReflection hold; the split lets
// operators toggle the feature without touching coordinator tuning.
// Provider, when set, reviews with a dedicated model instead of the chat
// model.
type ReviewConfig struct {
	Enabled  bool            `json:"enabled" yaml:"enabled"`
	Provider *ProviderConfig `json:"provider,omitempty" yaml:"provider,omitempty"`
}

// SupervisorConfig mirrors the turn coordinator's tuning knobs.
type SupervisorConfig struct {
	EnableReflection  bool `json:"enable_reflection" yaml:"enable_reflection"`
	ParallelRetrieval bool `json:"parallel_retrieval" yaml:"parallel_retrieval"`
	MaxRetries        int  `json:"max_retries" yaml:"max_retries"`
}

// HistoryConfig tunes the short-term transcript store. An empty Path keeps
// transcripts in memory; a path selects the sqlite store.
type HistoryConfig struct {
	MaxMessages int    `json:"max_messages" yaml:"max_messages"`
	TTLSeconds  int    `json:"ttl_seconds" yaml:"ttl_seconds"`
	Path        string `json:"path,omitempty" yaml:"path,omitempty"`
}

// MemoryConfig tunes the long-term episodic store. An empty Path keeps
// memories in memory (substring search, no embedder); a path selects the
// sqlite vector store, which requires the embedding section.
type MemoryConfig struct {
	Enabled   bool             `json:"enabled" yaml:"enabled"`
	Path      string           `json:"path,omitempty" yaml:"path,omitempty"`
	TopK      int              `json:"top_k" yaml:"top_k"`
	Embedding embedding.Config `json:"embedding" yaml:"embedding"`
}

// AmbientConfig tunes background ambient line generation.
type AmbientConfig struct {
	Enabled  bool   `json:"enabled" yaml:"enabled"`
	CronSpec string `json:"cron_spec,omitempty" yaml:"cron_spec,omitempty"`
}

// RegistryConfig tunes the turn registry sweep.
type RegistryConfig struct {
	MaxIdleSeconds int    `json:"max_idle_seconds" yaml:"max_idle_seconds"`
	SweepCron      string `json:"sweep_cron,omitempty" yaml:"sweep_cron,omitempty"`
}

// LoggingConfig selects log verbosity and output encoding.
type LoggingConfig struct {
	Level  string `json:"level" yaml:"level"`   // debug, info, warn or error
	Format string `json:"format" yaml:"format"` // text or json
}

// Config is the root configuration document.
type Config struct {
	Provider   ProviderConfig     `json:"provider" yaml:"provider"`
	Review     ReviewConfig       `json:"review" yaml:"review"`
	Supervisor SupervisorConfig   `json:"supervisor" yaml:"supervisor"`
	History    HistoryConfig      `json:"history" yaml:"history"`
	Memory     MemoryConfig       `json:"memory" yaml:"memory"`
	Ambient    AmbientConfig      `json:"ambient" yaml:"ambient"`
	Registry   RegistryConfig     `json:"registry" yaml:"registry"`
	Logging    LoggingConfig      `json:"logging" yaml:"logging"`
	NPCs       []core.RoleProfile `json:"npcs,omitempty" yaml:"npcs,omitempty"`
}

// Default returns the configuration a deployment gets without a config file:
// openai chat model, full pipeline with reflection and parallel retrieval,
// in-memory stores, ambient generation on a 30s cadence.
func Default() *Config {
	return &Config{
		Provider: ProviderConfig{Type: ProviderOpenAI},
		Review:   ReviewConfig{Enabled: true},
		Supervisor: SupervisorConfig{
			EnableReflection:  true,
			ParallelRetrieval: true,
			MaxRetries:        1,
		},
		History: HistoryConfig{
			MaxMessages: DefaultHistoryMaxMessages,
			TTLSeconds:  DefaultHistoryTTLSeconds,
		},
		Memory: MemoryConfig{
			Enabled: true,
			TopK:    DefaultMemoryTopK,
		},
		Ambient: AmbientConfig{
			Enabled:  true,
			CronSpec: DefaultAmbientCron,
		},
		Registry: RegistryConfig{
			MaxIdleSeconds: DefaultMaxIdleSeconds,
			SweepCron:      DefaultSweepCron,
		},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}

// Load reads a config file, decoding YAML or JSON by extension with a
// content sniff for unknown extensions, and fills unset API keys from the
// environment. The result is not validated; callers validate when they
// build from it.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	if err := decode(path, data, cfg); err != nil {
		return nil, err
	}

	cfg.applyEnv()

	return cfg, nil
}

// Validate rejects configurations no deployment can run with.
func (c *Config) Validate() error {
	if err := validateProviderType(c.Provider.Type); err != nil {
		return err
	}

	if c.Review.Provider != nil {
		if err := validateProviderType(c.Review.Provider.Type); err != nil {
			return fmt.Errorf("review: %w", err)
		}
	}

	if c.Supervisor.MaxRetries < 1 {
		return errors.New("supervisor.max_retries must be at least 1")
	}

	if c.History.MaxMessages < 1 {
		return errors.New("history.max_messages must be at least 1")
	}

	if c.History.TTLSeconds < 1 {
		return errors.New("history.ttl_seconds must be at least 1")
	}

	if c.Memory.TopK < 1 {
		return errors.New("memory.top_k must be at least 1")
	}

	if c.Registry.MaxIdleSeconds < 1 {
		return errors.New("registry.max_idle_seconds must be at least 1")
	}

	for _, role := range c.NPCs {
		if role.Name == "" {
			return errors.New("npcs must not contain a role with an empty name")
		}
	}

	return nil
}

func validateProviderType(typ string) error {
	switch typ {
	case "", ProviderOpenAI, ProviderAnthropic, ProviderMock:
		return nil
	default:
		return fmt.Errorf("unknown provider type %q", typ)
	}
}

func decode(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("parse json config: %w", err)
		}

		return nil
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("parse yaml config: %w", err)
		}

		return nil
	}

	// Unknown extension. YAML is a superset of JSON, but sniffing keeps the
	// error messages of the matching decoder.
	if looksLikeJSON(data) {
		if err := json.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("parse json config: %w", err)
		}

		return nil
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse yaml config: %w", err)
	}

	return nil
}

func looksLikeJSON(data []byte) bool {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	return len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[')
}

// applyEnv fills unset secrets from the environment so config files can stay
// credential-free.
func (c *Config) applyEnv() {
	if c.Provider.APIKey == "" {
		c.Provider.APIKey = firstNonEmpty(os.Getenv("NPCFLOW_API_KEY"), providerKeyFromEnv(c.Provider.Type))
	}

	if c.Review.Provider != nil && c.Review.Provider.APIKey == "" {
		c.Review.Provider.APIKey = firstNonEmpty(os.Getenv("NPCFLOW_REVIEW_API_KEY"), providerKeyFromEnv(c.Review.Provider.Type))
	}

	if c.Memory.Embedding.APIKey == "" {
		c.Memory.Embedding.APIKey = firstNonEmpty(os.Getenv("NPCFLOW_EMBEDDING_API_KEY"), embeddingKeyFromEnv(c.Memory.Embedding.Provider))
	}
}

func providerKeyFromEnv(typ string) string {
	switch typ {
	case ProviderAnthropic:
		return os.Getenv("ANTHROPIC_API_KEY")
	case "", ProviderOpenAI:
		return os.Getenv("OPENAI_API_KEY")
	default:
		return ""
	}
}

func embeddingKeyFromEnv(provider string) string {
	switch provider {
	case "genai":
		return os.Getenv("GEMINI_API_KEY")
	case "", "openai":
		return os.Getenv("OPENAI_API_KEY")
	default:
		return ""
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}

	return ""
}

// Package embedding provides text-embedding clients for the vector-backed
// episodic store. The Embedder interface is deliberately small so the store
// can batch writes and embed queries without caring about the provider.
package embedding

import (
	"context"
	"fmt"
)

// Embedder converts text into fixed-dimension vectors.
type Embedder interface {
	// Embed returns the embedding of a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch returns one embedding per text, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions reports the vector width this embedder produces.
	Dimensions() int
}

// Config selects and parameterizes an embedding provider.
type Config struct {
	Provider   string `json:"provider" yaml:"provider"` // "openai" (default) or "genai"
	APIKey     string `json:"api_key" yaml:"api_key"`
	BaseURL    string `json:"base_url" yaml:"base_url"`
	Model      string `json:"model" yaml:"model"`
	Dimensions int    `json:"dimensions" yaml:"dimensions"`
}

// New constructs the configured Embedder.
func New(ctx context.Context, cfg Config) (Embedder, error) {
	switch cfg.Provider {
	case "openai", "":
		return NewOpenAIEmbedder(cfg)
	case "genai":
		return NewGenAIEmbedder(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown embedding provider: %q", cfg.Provider)
	}
}

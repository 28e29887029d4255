package embedding

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// Defaults for the Google GenAI embedder. gemini-embedding-001 produces
// 768-dimensional vectors.
const (
	DefaultGenAIModel      = "gemini-embedding-001"
	DefaultGenAIDimensions = 768
)

// GenAIEmbedder generates embeddings using Google's Gemini API with the
// semantic-similarity task type, which matches how the episodic store ranks
// recalled entries against the player's utterance.
type GenAIEmbedder struct {
	client     *genai.Client
	model      string
	dimensions int
}

// NewGenAIEmbedder constructs an embedder from cfg.
func NewGenAIEmbedder(ctx context.Context, cfg Config) (*GenAIEmbedder, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("embedding api key is required")
	}

	model := cfg.Model
	if model == "" {
		model = DefaultGenAIModel
	}
	dimensions := cfg.Dimensions
	if dimensions <= 0 {
		dimensions = DefaultGenAIDimensions
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: cfg.APIKey})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &GenAIEmbedder{
		client:     client,
		model:      model,
		dimensions: dimensions,
	}, nil
}

// Embed implements Embedder.
func (e *GenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch implements Embedder. GenAI has native batch support.
func (e *GenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	contents := make([]*genai.Content, len(texts))
	for i, text := range texts {
		contents[i] = genai.NewContentFromText(text, genai.RoleUser)
	}

	result, err := e.client.Models.EmbedContent(ctx,
		e.model,
		contents,
		&genai.EmbedContentConfig{
			TaskType: "SEMANTIC_SIMILARITY",
		},
	)
	if err != nil {
		return nil, fmt.Errorf("genai embed: %w", err)
	}

	if len(result.Embeddings) != len(texts) {
		return nil, fmt.Errorf("genai returned %d embeddings, want %d", len(result.Embeddings), len(texts))
	}

	out := make([][]float32, len(result.Embeddings))
	for i, emb := range result.Embeddings {
		out[i] = emb.Values
	}

	return out, nil
}

// Dimensions implements Embedder.
func (e *GenAIEmbedder) Dimensions() int { return e.dimensions }

package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"
)

// Defaults for the OpenAI-compatible embedder.
const (
	DefaultOpenAIBaseURL    = "https://api.openai.com"
	DefaultOpenAIModel      = "text-embedding-3-small"
	DefaultOpenAIDimensions = 1536
)

// OpenAIEmbedder calls an OpenAI-compatible POST {base}/v1/embeddings
// endpoint. It works against any service speaking that wire format.
type OpenAIEmbedder struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
	model      string
	dimensions int
}

type embeddingRequest struct {
	Model string `json:"model"`
	Input any    `json:"input"`
}

type embeddingData struct {
	Index     int       `json:"index"`
	Embedding []float64 `json:"embedding"`
}

type embeddingResponse struct {
	Data []embeddingData `json:"data"`
}

// NewOpenAIEmbedder constructs an embedder from cfg, filling in the
// documented defaults for base URL, model and dimensions.
func NewOpenAIEmbedder(cfg Config) (*OpenAIEmbedder, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("embedding api key is required")
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultOpenAIBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = DefaultOpenAIModel
	}
	dimensions := cfg.Dimensions
	if dimensions <= 0 {
		dimensions = DefaultOpenAIDimensions
	}

	return &OpenAIEmbedder{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		model:      model,
		dimensions: dimensions,
	}, nil
}

// Embed implements Embedder.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch implements Embedder with a single batched request.
func (e *OpenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	body, err := json.Marshal(embeddingRequest{Model: e.model, Input: texts})
	if err != nil {
		return nil, fmt.Errorf("encode embeddings request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/v1/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build embeddings request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.apiKey)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embeddings request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("embeddings request failed: status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	var parsed embeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode embeddings response: %w", err)
	}

	return validateEmbeddings(parsed.Data, len(texts), e.dimensions)
}

// Dimensions implements Embedder.
func (e *OpenAIEmbedder) Dimensions() int { return e.dimensions }

// validateEmbeddings checks count, index bounds, dimension and finiteness of
// the returned vectors and converts them to float32, ordered by index.
func validateEmbeddings(data []embeddingData, want, dimensions int) ([][]float32, error) {
	if len(data) != want {
		return nil, fmt.Errorf("embeddings response has %d vectors, want %d", len(data), want)
	}

	out := make([][]float32, want)
	for _, d := range data {
		if d.Index < 0 || d.Index >= want {
			return nil, fmt.Errorf("embedding index %d out of range [0,%d)", d.Index, want)
		}
		if dimensions > 0 && len(d.Embedding) != dimensions {
			return nil, fmt.Errorf("embedding at index %d has %d dimensions, want %d", d.Index, len(d.Embedding), dimensions)
		}

		vec := make([]float32, len(d.Embedding))
		for i, v := range d.Embedding {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("non-finite value in embedding at index %d", d.Index)
			}
			vec[i] = float32(v)
		}
		out[d.Index] = vec
	}

	for i, vec := range out {
		if vec == nil {
			return nil, fmt.Errorf("missing embedding at index %d", i)
		}
	}

	return out, nil
}

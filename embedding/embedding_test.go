package embedding

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ Embedder = (*GenAIEmbedder)(nil)

func TestNew_SelectsProvider(t *testing.T) {
	ctx := context.Background()

	t.Run("default is openai", func(t *testing.T) {
		e, err := New(ctx, Config{APIKey: "k"})
		require.NoError(t, err)
		assert.IsType(t, &OpenAIEmbedder{}, e)
	})

	t.Run("openai", func(t *testing.T) {
		e, err := New(ctx, Config{Provider: "openai", APIKey: "k"})
		require.NoError(t, err)
		assert.IsType(t, &OpenAIEmbedder{}, e)
	})

	t.Run("genai", func(t *testing.T) {
		e, err := New(ctx, Config{Provider: "genai", APIKey: "k"})
		require.NoError(t, err)
		assert.IsType(t, &GenAIEmbedder{}, e)
		assert.Equal(t, DefaultGenAIDimensions, e.Dimensions())
	})

	t.Run("unknown provider", func(t *testing.T) {
		_, err := New(ctx, Config{Provider: "cohere", APIKey: "k"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown embedding provider")
	})

	t.Run("missing api key", func(t *testing.T) {
		_, err := New(ctx, Config{Provider: "genai"})
		assert.Error(t, err)
	})
}

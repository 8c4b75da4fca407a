package openai

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halcyon-labs/recall/ai"
)

// captureEmbedder records the context it was called with and returns canned
// vectors.
type captureEmbedder struct {
	ctx     context.Context
	vectors [][]float32
}

func (c *captureEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	c.ctx = ctx
	return c.vectors, nil
}

func (c *captureEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	c.ctx = ctx
	return c.vectors[0], nil
}

func TestNewEmbedder_ValidatesConfig(t *testing.T) {
	_, err := NewEmbedder(&ai.Config{})
	require.Error(t, err)
}

func TestNewEmbedder_CarriesConfig(t *testing.T) {
	cfg := ai.NewConfig(ai.WithDimensions(32), ai.WithTimeout(3*time.Second))
	e, err := newEmbedder(cfg)
	require.NoError(t, err)
	assert.Equal(t, 32, e.dimensions)
	assert.Equal(t, 3*time.Second, e.timeout)
}

func TestEmbedTexts_AppliesTimeout(t *testing.T) {
	capture := &captureEmbedder{vectors: [][]float32{{0.1, 0.2}}}
	e := &Embedder{
		embedder:   capture,
		dimensions: 2,
		timeout:    5 * time.Second,
		logger:     slog.Default(),
	}

	before := time.Now()
	_, err := e.EmbedTexts(context.Background(), []string{"some text"})
	require.NoError(t, err)

	deadline, ok := capture.ctx.Deadline()
	require.True(t, ok, "provider call must carry a deadline")
	assert.WithinDuration(t, before.Add(5*time.Second), deadline, time.Second)
}

func TestEmbedTexts_RejectsDimensionMismatch(t *testing.T) {
	capture := &captureEmbedder{vectors: [][]float32{{0.1, 0.2, 0.3}}}
	e := &Embedder{
		embedder:   capture,
		dimensions: 2,
		timeout:    time.Second,
		logger:     slog.Default(),
	}

	_, err := e.EmbedTexts(context.Background(), []string{"some text"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dimensions")
}

func TestEmbedTexts_RejectsVectorCountMismatch(t *testing.T) {
	capture := &captureEmbedder{vectors: [][]float32{{0.1, 0.2}}}
	e := &Embedder{
		embedder:   capture,
		dimensions: 2,
		timeout:    time.Second,
		logger:     slog.Default(),
	}

	_, err := e.EmbedTexts(context.Background(), []string{"one", "two"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "vectors")
}

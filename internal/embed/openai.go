package embed

import (
	"context"
	"fmt"
	"strings"

	openaisdk "github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
)

// OpenAIEmbedder embeds text via the OpenAI embeddings endpoint.
type OpenAIEmbedder struct {
	client openaisdk.Client
	model  string
	dim    int
}

// NewOpenAIEmbedder builds an Embedder backed by the OpenAI API. dim must
// match the configured model's output dimensionality.
func NewOpenAIEmbedder(apiKey, model string, dim int) *OpenAIEmbedder {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if trimmed := strings.TrimSpace(apiKey); trimmed == "" {
		opts = nil
	}
	return &OpenAIEmbedder{
		client: openaisdk.NewClient(opts...),
		model:  model,
		dim:    dim,
	}
}

// Dim reports the embedding dimension this provider returns.
func (e *OpenAIEmbedder) Dim() int { return e.dim }

// Embed calls the OpenAI embeddings API for the given texts in one request.
// Callers needing batching should wrap this in Batched.
func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	params := openaisdk.EmbeddingNewParams{
		Model: openaisdk.EmbeddingModel(e.model),
		Input: openaisdk.EmbeddingNewParamsInputUnion{
			OfArrayOfStrings: texts,
		},
	}

	resp, err := e.client.Embeddings.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("embed: openai: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embed: openai: expected %d embeddings, got %d", len(texts), len(resp.Data))
	}

	out := make([][]float32, len(resp.Data))
	for i, item := range resp.Data {
		vec := make([]float32, len(item.Embedding))
		for j, x := range item.Embedding {
			vec[j] = float32(x)
		}
		out[i] = vec
	}
	return out, nil
}

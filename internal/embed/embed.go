// Package embed converts chunk and query text into unit-norm embedding
// vectors, batching calls to the underlying model provider.
package embed

import (
	"context"
	"fmt"
	"math"
)

// batchSize is the default number of texts sent per embedding call.
const batchSize = 64

// Embedder embeds one or more texts into fixed-dimension vectors.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Dim() int
}

// Batched wraps an Embedder and splits large text slices into batches of
// batchSize before delegating, L2-normalizing every returned vector.
type Batched struct {
	inner Embedder
}

// NewBatched wraps inner with batching and normalization.
func NewBatched(inner Embedder) *Batched {
	return &Batched{inner: inner}
}

// Dim reports the embedding dimension of the wrapped model.
func (b *Batched) Dim() int { return b.inner.Dim() }

// Embed sends texts to the wrapped model in batches of batchSize, L2-normalizes
// each returned vector, and returns one unit-norm
// vector per input text, in input order.
func (b *Batched) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, 0, len(texts))
	for i := 0; i < len(texts); i += batchSize {
		end := i + batchSize
		if end > len(texts) {
			end = len(texts)
		}
		vecs, err := b.inner.Embed(ctx, texts[i:end])
		if err != nil {
			return nil, fmt.Errorf("embed: batch %d-%d: %w", i, end, err)
		}
		if len(vecs) != end-i {
			return nil, fmt.Errorf("embed: batch %d-%d: got %d vectors for %d texts", i, end, len(vecs), end-i)
		}
		for _, v := range vecs {
			out = append(out, l2Normalize(v))
		}
	}
	return out, nil
}

func l2Normalize(vec []float32) []float32 {
	var sumSq float64
	for _, x := range vec {
		sumSq += float64(x) * float64(x)
	}
	norm := math.Sqrt(sumSq)
	if norm == 0 {
		return vec
	}
	out := make([]float32, len(vec))
	for i, x := range vec {
		out[i] = float32(float64(x) / norm)
	}
	return out
}

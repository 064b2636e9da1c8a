package service

import (
	"github.com/connexus-ai/secondbrain/internal/cache"
	"github.com/connexus-ai/secondbrain/internal/config"
	"github.com/connexus-ai/secondbrain/internal/embed"
	"github.com/connexus-ai/secondbrain/internal/generate"
	"github.com/connexus-ai/secondbrain/internal/retrieval"
)

// BuildEmbedder constructs the batched embedder used for both chunk and
// query embedding. The OpenAI adapter is the only embedding provider this
// module carries; cfg.EmbedModel names the model to call.
func BuildEmbedder(cfg *config.Config) *embed.Batched {
	return embed.NewBatched(embed.NewOpenAIEmbedder(cfg.OpenAIAPIKey, cfg.EmbedModel, cfg.EmbedDim))
}

// BuildEmbedCache constructs the query-embedding cache shared by every
// search and chat request, so repeated queries (differing at most in case
// or surrounding whitespace) skip the embedding provider entirely. Call Stop on the result during shutdown.
func BuildEmbedCache() *cache.EmbeddingCache {
	return cache.NewEmbeddingCache(cache.DefaultEmbeddingTTL())
}

// BuildGenerator selects the generator variant from cfg.LLMProvider, the
// sum-type dispatch point named in DESIGN NOTES: {Extractive, OpenAI,
// Ollama}.
func BuildGenerator(cfg *config.Config) generate.Generator {
	switch cfg.LLMProvider {
	case "openai":
		return generate.NewOpenAI(cfg.OpenAIAPIKey, cfg.OpenAIModel)
	case "ollama":
		return generate.NewOllama(cfg.OllamaBaseURL, cfg.OllamaModel, cfg.GeneratorTimeout)
	default:
		return generate.Extractive{}
	}
}

// BuildReranker selects the reranker variant. Per §6, choosing the "ollama"
// provider also selects the LLM-judge reranker against that same server;
// every other provider keeps the default identity reranker.
func BuildReranker(cfg *config.Config) retrieval.Reranker {
	if cfg.LLMProvider == "ollama" {
		return retrieval.NewLLMJudgeReranker(cfg.OllamaBaseURL, cfg.OllamaModel, cfg.RerankerTimeout)
	}
	return retrieval.IdentityReranker{}
}

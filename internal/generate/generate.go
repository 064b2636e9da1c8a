// Package generate turns a query and assembled context into a final
// answer, via one of several pluggable LLM providers.
package generate

import "context"

// Generator produces an answer from a query and its assembled context.
type Generator interface {
	Generate(ctx context.Context, query, contextText string) (string, error)
}

// noSourcesFallback is returned by the extractive generator when the
// assembled context has no usable lines.
const noSourcesFallback = "I couldn't find anything in the sources for this question."

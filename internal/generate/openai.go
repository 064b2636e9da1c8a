package generate

import (
	"context"
	"fmt"

	openaisdk "github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
)

const openaiSystemPrompt = "You are a careful assistant that answers ONLY using the provided SOURCES. " +
	"If the sources do not contain the answer, say you cannot find it. Prefer short paragraphs and bullet points."

// OpenAI generates answers via the OpenAI chat completions API.
type OpenAI struct {
	client openaisdk.Client
	model  string
}

// NewOpenAI builds an OpenAI generator.
func NewOpenAI(apiKey, model string) *OpenAI {
	return &OpenAI{
		client: openaisdk.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

// Generate implements Generator.
func (g *OpenAI) Generate(ctx context.Context, query, contextText string) (string, error) {
	user := fmt.Sprintf("QUESTION:\n%s\n\nSOURCES:\n%s\n\nANSWER:", query, contextText)

	params := openaisdk.ChatCompletionNewParams{
		Model: openaisdk.ChatModel(g.model),
		Messages: []openaisdk.ChatCompletionMessageParamUnion{
			openaisdk.SystemMessage(openaiSystemPrompt),
			openaisdk.UserMessage(user),
		},
	}

	completion, err := g.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("generate: openai: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("generate: openai: no choices returned")
	}
	return completion.Choices[0].Message.Content, nil
}

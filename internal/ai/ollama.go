package ai

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
)

//ollamaClient runs the analysis on a local model
type ollamaClient struct {
	llm         llms.Model
	temperature float64
}

func NewOllamaClient(serverURL, model string, temperature float64) (Completer, error) {
	opts := []ollama.Option{ollama.WithModel(model), ollama.WithFormat("json")}
	if serverURL != "" {
		opts = append(opts, ollama.WithServerURL(serverURL))
	}
	llm, err := ollama.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create ollama model: %w", err)
	}
	return &ollamaClient{llm: llm, temperature: temperature}, nil
}

func (c *ollamaClient) Complete(ctx context.Context, system, user string) (Completion, error) {
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, system),
		llms.TextParts(llms.ChatMessageTypeHuman, user),
	}

	resp, err := c.llm.GenerateContent(ctx, messages, llms.WithTemperature(c.temperature))
	if err != nil {
		return Completion{}, fmt.Errorf("ollama generation failed: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Content == "" {
		return Completion{}, ErrNoContent
	}

	choice := resp.Choices[0]
	return Completion{Content: choice.Content, Tokens: tokenCount(choice.GenerationInfo)}, nil
}

//tokenCount reads the usage counters langchaingo copies into GenerationInfo
func tokenCount(info map[string]any) int {
	if n := asCount(info["TotalTokens"]); n > 0 {
		return n
	}
	return asCount(info["PromptTokens"]) + asCount(info["CompletionTokens"])
}

func asCount(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int32:
		return int(n)
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return 0
}

package ai

import (
	"context"
	"fmt"

	"github.com/MichaelPico/job-offer-analyzer/internal/config"
)

var defaultModels = map[string]string{
	"groq":   "llama-3.3-70b-versatile",
	"openai": "gpt-4o-mini",
	"claude": "claude-3-5-haiku-latest",
	"gemini": "gemini-2.0-flash",
	"ollama": "llama3.1",
}

// NewCompleter builds the chat model named by cfg.Provider.
func NewCompleter(ctx context.Context, cfg config.AI) (Completer, error) {
	model := cfg.Model
	if model == "" {
		model = defaultModels[cfg.Provider]
	}

	switch cfg.Provider {
	case "groq", "openai":
		base := cfg.BaseURL
		if base == "" {
			base = groqURL
			if cfg.Provider == "openai" {
				base = openaiURL
			}
		}
		return NewChatClient(base, cfg.APIKey, model, cfg.Temperature, cfg.Timeout), nil
	case "claude":
		return NewClaudeClient(cfg.APIKey, model, cfg.Temperature), nil
	case "gemini":
		return NewGeminiClient(ctx, cfg.APIKey, model, cfg.Temperature)
	case "ollama":
		return NewOllamaClient(cfg.BaseURL, model, cfg.Temperature)
	}
	return nil, fmt.Errorf("unsupported ai provider: %q", cfg.Provider)
}

// Namespace identifies provider and model for cache keys.
func Namespace(cfg config.AI) string {
	model := cfg.Model
	if model == "" {
		model = defaultModels[cfg.Provider]
	}
	return cfg.Provider + ":" + model
}

// PromptOptionsFrom maps the configured extraction switches.
func PromptOptionsFrom(cfg config.AI) PromptOptions {
	return PromptOptions{SkipSalary: cfg.SkipSalary, SkipTechnologies: cfg.SkipTechnologies}
}

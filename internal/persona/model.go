package persona

import (
	"context"
	"fmt"
	"log"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/scythe504/turing-game-backend/internal/config"
)

// NewModel builds the language model selected by cfg.BotProvider.
func NewModel(ctx context.Context, cfg config.Config) (llms.Model, error) {
	model := cfg.BotModel

	switch cfg.BotProvider {
	case "ollama":
		llm, err := ollama.New(ollama.WithModel(model), ollama.WithServerURL(cfg.BotOllamaURL))
		if err != nil {
			return nil, fmt.Errorf("init ollama (%s at %s): %w", model, cfg.BotOllamaURL, err)
		}
		log.Printf("Persona: Ollama model=%s url=%s", model, cfg.BotOllamaURL)
		return llm, nil
	case "openai":
		opts := []openai.Option{openai.WithModel(model)}
		if cfg.BotBaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.BotBaseURL))
		}
		if cfg.BotAPIKey != "" {
			opts = append(opts, openai.WithToken(cfg.BotAPIKey))
		}
		llm, err := openai.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("init openai (%s): %w", model, err)
		}
		log.Printf("Persona: OpenAI model=%s url=%q", model, cfg.BotBaseURL)
		return llm, nil
	case "anthropic":
		opts := []anthropic.Option{anthropic.WithModel(model)}
		if cfg.BotAPIKey != "" {
			opts = append(opts, anthropic.WithToken(cfg.BotAPIKey))
		}
		llm, err := anthropic.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("init anthropic (%s): %w", model, err)
		}
		log.Printf("Persona: Anthropic model=%s", model)
		return llm, nil
	case "googleai":
		opts := []googleai.Option{googleai.WithDefaultModel(model)}
		if cfg.BotAPIKey != "" {
			opts = append(opts, googleai.WithAPIKey(cfg.BotAPIKey))
		}
		llm, err := googleai.New(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("init googleai (%s): %w", model, err)
		}
		log.Printf("Persona: Gemini model=%s", model)
		return llm, nil
	default:
		return nil, fmt.Errorf("unknown bot provider %q (valid: ollama, openai, anthropic, googleai)", cfg.BotProvider)
	}
}

package factory

import (
	"fmt"

	"github.com/deva-ai/deva/internal/config"
	"github.com/deva-ai/deva/internal/llm"
	anthropicmodel "github.com/deva-ai/deva/internal/llm/anthropic"
	openaimodel "github.com/deva-ai/deva/internal/llm/openai"
)

// NewModel selects the language-model adapter based on cfg.ModelProvider.
func NewModel(cfg *config.Config) (llm.Model, error) {
	switch cfg.ModelProvider {
	case "openai":
		return openaimodel.NewModel(func(o *openaimodel.Options) {
			o.Model = cfg.ModelID
			o.BaseURL = cfg.ModelBaseURL
			o.APIKey = cfg.ModelAPIKey
			o.Temperature = cfg.Temperature
			o.TopP = cfg.TopP
			o.MaxCompletionTokens = cfg.MaxTokens
		}), nil
	case "anthropic":
		return anthropicmodel.NewModel(func(o *anthropicmodel.Options) {
			o.Model = cfg.ModelID
			o.APIKey = cfg.ModelAPIKey
			o.Temperature = cfg.Temperature
			o.MaxTokens = cfg.MaxTokens
		}), nil
	default:
		return nil, fmt.Errorf("unknown MODEL_PROVIDER: %s", cfg.ModelProvider)
	}
}

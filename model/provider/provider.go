// Package provider resolves the configured LLM backend into a model.Model.
package provider

import (
	"fmt"

	"github.com/alpinecapital/crewmesh/config"
	"github.com/alpinecapital/crewmesh/core"
	"github.com/alpinecapital/crewmesh/model"
	"github.com/alpinecapital/crewmesh/model/anthropic"
	"github.com/alpinecapital/crewmesh/model/openai"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
)

// New builds the backend named by cfg.LLM. Unknown providers and missing
// credentials are reported as *core.ConfigurationError.
func New(cfg *config.Config) (model.Model, error) {
	llm := cfg.LLM
	switch llm.Provider {
	case config.ProviderOllama:
		if llm.Model == "" {
			return nil, core.NewConfigurationError("llm.model", "no model configured (set MODEL)")
		}
		baseURL := llm.BaseURL
		if baseURL == "" {
			baseURL = config.DefaultOllamaBaseURL
		}
		return openai.NewModel(func(o *openai.Options) {
			o.Model = llm.Model
			o.BaseURL = baseURL
			// Ollama ignores the key but the client refuses to send without one.
			o.APIKey = "ollama"
			o.Provider = config.ProviderOllama
			o.Temperature = llm.Temperature
			o.MaxCompletionTokens = int64(llm.MaxTokens)
		}), nil

	case config.ProviderOpenAI:
		key, err := requireKey(cfg)
		if err != nil {
			return nil, err
		}
		return openai.NewModel(func(o *openai.Options) {
			if llm.Model != "" {
				o.Model = llm.Model
			}
			o.APIKey = key
			o.BaseURL = llm.BaseURL
			o.Temperature = llm.Temperature
			o.MaxCompletionTokens = int64(llm.MaxTokens)
		}), nil

	case config.ProviderAnthropic:
		key, err := requireKey(cfg)
		if err != nil {
			return nil, err
		}
		return anthropic.NewModel(func(o *anthropic.Options) {
			if llm.Model != "" {
				o.Model = anthropicsdk.Model(llm.Model)
			}
			o.APIKey = key
			o.BaseURL = llm.BaseURL
			o.Temperature = llm.Temperature
			o.MaxTokens = int64(llm.MaxTokens)
		}), nil

	case config.ProviderMock:
		name := llm.Model
		if name == "" {
			name = "mock"
		}
		return model.NewMockModel(name, config.ProviderMock), nil

	default:
		return nil, core.NewConfigurationError("llm.provider", fmt.Sprintf("unknown provider %q", llm.Provider))
	}
}

func requireKey(cfg *config.Config) (string, error) {
	key := cfg.APIKey()
	if key == "" {
		env := cfg.LLM.APIKeyEnv
		if env == "" {
			env = config.DefaultAPIKeyEnv(cfg.LLM.Provider)
		}
		return "", core.NewConfigurationError("llm.api_key_env", fmt.Sprintf("environment variable %s is not set", env))
	}
	return key, nil
}

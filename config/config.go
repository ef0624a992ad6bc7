// Package config loads crewmesh settings from an optional TOML file and the
// environment. Validation runs once at startup.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/alpinecapital/crewmesh/core"
)

// Supported LLM providers.
const (
	ProviderOllama    = "ollama"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderMock      = "mock"
)

// DefaultOllamaBaseURL is the OpenAI compatible endpoint of a local Ollama daemon.
const DefaultOllamaBaseURL = "http://localhost:11434/v1/"

// Config is the complete crewmesh configuration.
type Config struct {
	LLM     LLMConfig     `toml:"llm"`
	Search  SearchConfig  `toml:"search"`
	Browser BrowserConfig `toml:"browser"`
	Agent   AgentConfig   `toml:"agent"`
	Logging LoggingConfig `toml:"logging"`
	Events  EventsConfig  `toml:"events"`
}

// LLMConfig selects the backend shared by every agent of a crew.
type LLMConfig struct {
	Provider    string  `toml:"provider"`
	Model       string  `toml:"model"`
	BaseURL     string  `toml:"base_url"`
	APIKeyEnv   string  `toml:"api_key_env"`
	Temperature float64 `toml:"temperature"`
	MaxTokens   int     `toml:"max_tokens"`
}

// SearchConfig configures the web search tools.
type SearchConfig struct {
	Endpoint    string `toml:"endpoint"`
	APIKeyEnv   string `toml:"api_key_env"`
	ResultCount int    `toml:"result_count"`
}

// BrowserConfig configures the page scraping tool.
type BrowserConfig struct {
	ChunkSize int `toml:"chunk_size"`
}

// AgentConfig bounds the agent reasoning loop.
type AgentConfig struct {
	MaxIterations int `toml:"max_iterations"`
}

// LoggingConfig selects log level and output format.
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // text or json
}

// EventsConfig enables publishing run events to NATS when NATSURL is set.
type EventsConfig struct {
	NATSURL string `toml:"nats_url"`
	Subject string `toml:"subject"`
}

// New creates a config with defaults.
func New() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:    ProviderOllama,
			Temperature: 0.7,
			MaxTokens:   4096,
		},
		Search: SearchConfig{
			Endpoint:    "https://google.serper.dev/search",
			APIKeyEnv:   "SERPER_API_KEY",
			ResultCount: 5,
		},
		Browser: BrowserConfig{ChunkSize: 8000},
		Agent:   AgentConfig{MaxIterations: 15},
		Logging: LoggingConfig{Level: "info", Format: "text"},
		Events:  EventsConfig{Subject: "crewmesh.events"},
	}
}

// LoadFile loads configuration from a TOML file on top of the defaults.
func LoadFile(path string) (*Config, error) {
	cfg := New()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// Load reads path when it is non-empty, then applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := New()
	if path != "" {
		var err error
		if cfg, err = LoadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overlays environment variables: MODEL, LLM_PROVIDER, LLM_BASE_URL,
// LLM_TEMPERATURE, CREWMESH_LOG_LEVEL and CREWMESH_NATS_URL.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv("MODEL"); v != "" {
		c.LLM.Model = v
	}
	if v := os.Getenv("LLM_PROVIDER"); v != "" {
		c.LLM.Provider = strings.ToLower(v)
	}
	if v := os.Getenv("LLM_BASE_URL"); v != "" {
		c.LLM.BaseURL = v
	}
	if v := os.Getenv("LLM_TEMPERATURE"); v != "" {
		t, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return &core.ConfigurationError{Field: "LLM_TEMPERATURE", Reason: "not a number", Err: err}
		}
		c.LLM.Temperature = t
	}
	if v := os.Getenv("CREWMESH_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("CREWMESH_NATS_URL"); v != "" {
		c.Events.NATSURL = v
	}
	return nil
}

// Validate checks the configuration once at startup. Every problem is
// reported as a *core.ConfigurationError.
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case ProviderOllama, ProviderMock:
	case ProviderOpenAI, ProviderAnthropic:
		if c.APIKey() == "" {
			return core.NewConfigurationError("llm.api_key_env",
				fmt.Sprintf("environment variable %s is not set", c.apiKeyEnv()))
		}
	default:
		return core.NewConfigurationError("llm.provider", fmt.Sprintf("unknown provider %q", c.LLM.Provider))
	}
	if c.LLM.Model == "" && c.LLM.Provider != ProviderMock {
		return core.NewConfigurationError("llm.model", "no model configured (set MODEL)")
	}
	if c.LLM.MaxTokens <= 0 {
		return core.NewConfigurationError("llm.max_tokens", "must be positive")
	}
	if c.Search.ResultCount <= 0 {
		return core.NewConfigurationError("search.result_count", "must be positive")
	}
	if c.Browser.ChunkSize <= 0 {
		return core.NewConfigurationError("browser.chunk_size", "must be positive")
	}
	if c.Agent.MaxIterations <= 0 {
		return core.NewConfigurationError("agent.max_iterations", "must be positive")
	}
	switch c.Logging.Format {
	case "", "text", "json":
	default:
		return core.NewConfigurationError("logging.format", fmt.Sprintf("unknown format %q", c.Logging.Format))
	}
	return nil
}

// APIKey returns the LLM API key from the configured environment variable.
// If api_key_env is not set, the provider default is used.
func (c *Config) APIKey() string {
	if env := c.apiKeyEnv(); env != "" {
		return os.Getenv(env)
	}
	return ""
}

func (c *Config) apiKeyEnv() string {
	if c.LLM.APIKeyEnv != "" {
		return c.LLM.APIKeyEnv
	}
	return DefaultAPIKeyEnv(c.LLM.Provider)
}

// SearchAPIKey returns the search API key from its environment variable.
func (c *Config) SearchAPIKey() string {
	if c.Search.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(c.Search.APIKeyEnv)
}

// DefaultAPIKeyEnv returns the default environment variable name for a provider.
func DefaultAPIKeyEnv(provider string) string {
	switch provider {
	case ProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	default:
		return ""
	}
}

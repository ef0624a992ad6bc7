package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/alpinecapital/crewmesh/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "crewmesh.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
[llm]
provider = "anthropic"
model = "claude-3-5-sonnet"
api_key_env = "MY_KEY"

[search]
result_count = 3

[events]
nats_url = "nats://localhost:4222"
`)

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "anthropic", cfg.LLM.Provider)
	assert.Equal(t, "claude-3-5-sonnet", cfg.LLM.Model)
	assert.Equal(t, "MY_KEY", cfg.LLM.APIKeyEnv)
	assert.Equal(t, 3, cfg.Search.ResultCount)
	assert.Equal(t, "nats://localhost:4222", cfg.Events.NATSURL)

	// untouched sections keep their defaults
	assert.Equal(t, 4096, cfg.LLM.MaxTokens)
	assert.Equal(t, 8000, cfg.Browser.ChunkSize)
	assert.Equal(t, "SERPER_API_KEY", cfg.Search.APIKeyEnv)
	assert.Equal(t, "crewmesh.events", cfg.Events.Subject)
}

func TestLoadFile_Invalid(t *testing.T) {
	_, err := LoadFile(writeConfig(t, "[llm\nprovider="))
	assert.Error(t, err)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("MODEL", "llama3.1")
	t.Setenv("LLM_PROVIDER", "OpenAI")
	t.Setenv("LLM_BASE_URL", "http://proxy/v1/")
	t.Setenv("LLM_TEMPERATURE", "0.2")
	t.Setenv("CREWMESH_NATS_URL", "nats://bus:4222")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "llama3.1", cfg.LLM.Model)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "http://proxy/v1/", cfg.LLM.BaseURL)
	assert.InDelta(t, 0.2, cfg.LLM.Temperature, 1e-9)
	assert.Equal(t, "nats://bus:4222", cfg.Events.NATSURL)
}

func TestLoad_BadTemperature(t *testing.T) {
	t.Setenv("LLM_TEMPERATURE", "warm")
	_, err := Load("")
	assert.True(t, core.IsConfigurationError(err))
}

func TestValidate(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	valid := New()
	valid.LLM.Model = "llama3"
	require.NoError(t, valid.Validate())

	cases := map[string]func(c *Config){
		"unknown provider": func(c *Config) { c.LLM.Provider = "watson" },
		"missing model":    func(c *Config) { c.LLM.Model = "" },
		"missing api key":  func(c *Config) { c.LLM.Provider = ProviderOpenAI },
		"bad chunk size":   func(c *Config) { c.Browser.ChunkSize = 0 },
		"bad iterations":   func(c *Config) { c.Agent.MaxIterations = -1 },
		"bad result count": func(c *Config) { c.Search.ResultCount = 0 },
		"bad log format":   func(c *Config) { c.Logging.Format = "xml" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := New()
			cfg.LLM.Model = "llama3"
			mutate(cfg)

			err := cfg.Validate()
			var cerr *core.ConfigurationError
			require.ErrorAs(t, err, &cerr)
		})
	}
}

func TestValidate_APIKeyFromEnv(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "secret")

	cfg := New()
	cfg.LLM.Provider = ProviderAnthropic
	cfg.LLM.Model = "claude"
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "secret", cfg.APIKey())

	cfg.LLM.APIKeyEnv = "OTHER_KEY"
	t.Setenv("OTHER_KEY", "")
	assert.Error(t, cfg.Validate())
}

func TestValidate_MockNeedsNoModel(t *testing.T) {
	cfg := New()
	cfg.LLM.Provider = ProviderMock
	assert.NoError(t, cfg.Validate())
}

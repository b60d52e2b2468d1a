// Package completion implements an inline code-completion provider: it
// extracts a text window around the cursor, builds a chat or
// fill-in-the-middle prompt, streams the model response, and turns the
// cleaned text into a single insertable edit.
package completion

import "os"

// Environment variables read once at construction.
const (
	ModelEnv  = "OLLAMA_MODEL"
	APIURLEnv = "OLLAMA_API_URL"
	APIKeyEnv = "OLLAMA_API_KEY"
)

// DefaultAPIURL is the inference endpoint used when none is configured.
const DefaultAPIURL = "http://localhost:11434"

// Config is the provider configuration. It is built once at startup and
// threaded through explicitly; nothing re-reads the environment mid-pipeline.
type Config struct {
	// Model names the inference model. Empty disables the provider.
	Model string
	// APIURL overrides the default inference endpoint.
	APIURL string
	// APIKey is an optional bearer credential.
	APIKey string
}

// ConfigFromEnv reads the provider configuration from the process
// environment. Empty variables are treated as absent.
func ConfigFromEnv() Config {
	cfg := Config{
		Model:  os.Getenv(ModelEnv),
		APIURL: os.Getenv(APIURLEnv),
		APIKey: os.Getenv(APIKeyEnv),
	}
	if cfg.APIURL == "" {
		cfg.APIURL = DefaultAPIURL
	}
	return cfg
}

// Enabled reports whether a model is configured.
func (c Config) Enabled() bool { return c.Model != "" }

package llm

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/time/rate"
)

// Provider kinds accepted by ProviderConfig.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderOllama    = "ollama"
)

// ProviderConfig is the tagged variant over provider kind. Which fields
// matter depends on Provider: openai and anthropic need a credential,
// ollama needs a base URL. Validated once at configuration time via
// Validate(); clients never re-validate per call.
type ProviderConfig struct {
	// Provider selects the backend.
	Provider string `yaml:"provider" validate:"required,oneof=openai anthropic ollama"`

	// Model is the backend model identity (e.g. "gpt-4o-mini").
	Model string `yaml:"model" validate:"required"`

	// APIKey is the credential for openai/anthropic. If empty, the
	// constructor falls back to the provider's environment variable and
	// then to the conventional /run/secrets file.
	APIKey string `yaml:"api_key,omitempty"`

	// BaseURL overrides the backend endpoint. Required for ollama.
	BaseURL string `yaml:"base_url,omitempty" validate:"omitempty,url"`

	// Temperature applies when a call does not override it.
	Temperature float32 `yaml:"temperature" validate:"gte=0,lte=2"`

	// MaxTokens bounds generated output when a call does not override it.
	MaxTokens int `yaml:"max_tokens" validate:"gte=1,lte=32000"`

	// RequestsPerSecond throttles gateway calls across all agent units.
	// Zero disables throttling.
	RequestsPerSecond float64 `yaml:"requests_per_second" validate:"gte=0"`
}

// validate is shared; validator.Validate is thread-safe and caches
// struct metadata, so one instance serves the process.
var validate = validator.New()

// Validate checks the configuration once, including the per-provider
// conditional requirements the struct tags cannot express.
func (c *ProviderConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid provider config: %w", err)
	}
	if c.Provider == ProviderOllama && c.BaseURL == "" {
		return fmt.Errorf("invalid provider config: ollama requires base_url")
	}
	return nil
}

// DefaultConfig returns a local-first configuration: ollama on its
// default port, mirroring the development deployment.
func DefaultConfig() ProviderConfig {
	return ProviderConfig{
		Provider:    ProviderOllama,
		Model:       "llama3.1",
		BaseURL:     "http://localhost:11434",
		Temperature: 0.7,
		MaxTokens:   1024,
	}
}

// NewClient constructs the configured provider client. The config is
// validated here, exactly once; a misconfigured provider fails fast at
// startup rather than per turn.
func NewClient(cfg ProviderConfig) (Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var (
		client Client
		err    error
	)
	switch cfg.Provider {
	case ProviderOpenAI:
		client, err = NewOpenAIClient(cfg)
	case ProviderAnthropic:
		client, err = NewAnthropicClient(cfg)
	case ProviderOllama:
		client, err = NewOllamaClient(cfg)
	default:
		return nil, fmt.Errorf("unknown provider: %s", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	if cfg.RequestsPerSecond > 0 {
		client = &throttledClient{
			inner:   client,
			limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
		}
	}
	return client, nil
}

// throttledClient applies a shared rate limit in front of the backend.
// Waiting respects ctx, so a paused simulation never blocks on a slot it
// no longer needs.
type throttledClient struct {
	inner   Client
	limiter *rate.Limiter
}

func (t *throttledClient) Chat(ctx context.Context, messages []Message, params Params) (*Result, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return t.inner.Chat(ctx, messages, params)
}

func (t *throttledClient) Provider() string { return t.inner.Provider() }

// loadSecret resolves a credential: explicit value, then environment
// variable, then the conventional secrets mount.
func loadSecret(explicit, envVar, secretPath string) string {
	if explicit != "" {
		return explicit
	}
	if v := os.Getenv(envVar); v != "" {
		return v
	}
	if content, err := os.ReadFile(secretPath); err == nil {
		slog.Info("read API key from secrets mount", "path", secretPath)
		return strings.TrimSpace(string(content))
	}
	return ""
}

package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProviderConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ProviderConfig)
		wantErr bool
	}{
		{
			name:   "default ollama config is valid",
			mutate: func(c *ProviderConfig) {},
		},
		{
			name:    "unknown provider rejected",
			mutate:  func(c *ProviderConfig) { c.Provider = "bedrock" },
			wantErr: true,
		},
		{
			name:    "missing model rejected",
			mutate:  func(c *ProviderConfig) { c.Model = "" },
			wantErr: true,
		},
		{
			name:    "temperature above 2 rejected",
			mutate:  func(c *ProviderConfig) { c.Temperature = 2.5 },
			wantErr: true,
		},
		{
			name:    "max tokens above 32000 rejected",
			mutate:  func(c *ProviderConfig) { c.MaxTokens = 64000 },
			wantErr: true,
		},
		{
			name:    "zero max tokens rejected",
			mutate:  func(c *ProviderConfig) { c.MaxTokens = 0 },
			wantErr: true,
		},
		{
			name:    "ollama without base_url rejected",
			mutate:  func(c *ProviderConfig) { c.BaseURL = "" },
			wantErr: true,
		},
		{
			name:    "malformed base_url rejected",
			mutate:  func(c *ProviderConfig) { c.BaseURL = "not a url" },
			wantErr: true,
		},
		{
			name:    "negative rate limit rejected",
			mutate:  func(c *ProviderConfig) { c.RequestsPerSecond = -1 },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewClient_OllamaFromConfig(t *testing.T) {
	cfg := DefaultConfig()
	client, err := NewClient(cfg)
	require.NoError(t, err)
	assert.Equal(t, ProviderOllama, client.Provider())
}

func TestNewClient_ThrottleWrapsProvider(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RequestsPerSecond = 2
	client, err := NewClient(cfg)
	require.NoError(t, err)

	// The throttle wrapper must still report the inner provider.
	assert.Equal(t, ProviderOllama, client.Provider())
	_, ok := client.(*throttledClient)
	assert.True(t, ok, "expected throttledClient wrapper when RPS > 0")
}

func TestNewClient_RejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Provider = "mystery"
	_, err := NewClient(cfg)
	assert.Error(t, err)
}

func TestHealthTracker(t *testing.T) {
	var h HealthTracker
	assert.Equal(t, StatusConnected, h.Status(), "zero value starts connected")

	h.RecordExhaustion()
	assert.Equal(t, StatusDegraded, h.Status())
	assert.EqualValues(t, 1, h.Exhaustions())

	h.RecordSuccess()
	assert.Equal(t, StatusConnected, h.Status())
	assert.Equal(t, "connected", h.Status().String())
}

package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const (
	anthropicAPIVersion     = "2023-06-01"
	anthropicDefaultBaseURL = "https://api.anthropic.com/v1/messages"
)

type anthropicRequest struct {
	Model       string             `json:"model"`
	Messages    []anthropicMessage `json:"messages"`
	System      string             `json:"system,omitempty"` // Top-level system prompt
	MaxTokens   int                `json:"max_tokens"`
	Temperature *float32           `json:"temperature,omitempty"`
	StopSeqs    []string           `json:"stop_sequences,omitempty"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	ID      string             `json:"id"`
	Type    string             `json:"type"`
	Role    string             `json:"role"`
	Content []anthropicContent `json:"content"`
	Usage   anthropicUsage     `json:"usage"`
	Error   *anthropicError    `json:"error,omitempty"`
}

type anthropicContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type anthropicUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

type anthropicError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// --- Client Implementation ---

type AnthropicClient struct {
	httpClient  *http.Client
	apiKey      string
	baseURL     string
	model       string
	temperature float32
	maxTokens   int
}

func NewAnthropicClient(cfg ProviderConfig) (*AnthropicClient, error) {
	apiKey := loadSecret(cfg.APIKey, "ANTHROPIC_API_KEY", "/run/secrets/anthropic_api_key")
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic API key not set")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = anthropicDefaultBaseURL
	}

	slog.Info("Initializing Anthropic client", "model", cfg.Model)
	return &AnthropicClient{
		// The per-attempt deadline comes from the caller's context; this
		// timeout is only a safety net against leaked connections.
		httpClient:  &http.Client{Timeout: 5 * time.Minute},
		apiKey:      apiKey,
		baseURL:     baseURL,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}, nil
}

// Chat implements the Client interface.
//
// Anthropic's messages API takes the system prompt as a top-level field,
// so system turns are lifted out of the conversation.
func (a *AnthropicClient) Chat(ctx context.Context, messages []Message, params Params) (*Result, error) {
	slog.Debug("Generating text via Anthropic", "model", a.model)

	payload := anthropicRequest{
		Model:     a.model,
		MaxTokens: a.maxTokens,
	}
	temp := a.temperature
	payload.Temperature = &temp
	if params.Temperature != nil {
		payload.Temperature = params.Temperature
	}
	if params.MaxTokens != nil {
		payload.MaxTokens = *params.MaxTokens
	}
	if len(params.Stop) > 0 {
		payload.StopSeqs = params.Stop
	}
	for _, m := range messages {
		if m.Role == RoleSystem {
			if payload.System != "" {
				payload.System += "\n\n"
			}
			payload.System += m.Content
			continue
		}
		payload.Messages = append(payload.Messages, anthropicMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	reqBody, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request to Anthropic: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL, bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to build Anthropic request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", a.apiKey)
	req.Header.Set("anthropic-version", anthropicAPIVersion)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		slog.Error("Anthropic API call failed", "error", err)
		return nil, fmt.Errorf("Anthropic API call failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read Anthropic response: %w", err)
	}

	var parsed anthropicResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode Anthropic response: %w", err)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("Anthropic API error (%s): %s", parsed.Error.Type, parsed.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Anthropic returned status %d", resp.StatusCode)
	}

	var text string
	for _, block := range parsed.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	if text == "" {
		return nil, fmt.Errorf("Anthropic returned no text content")
	}

	return &Result{
		Text: text,
		Usage: Usage{
			PromptTokens:     parsed.Usage.InputTokens,
			CompletionTokens: parsed.Usage.OutputTokens,
		},
	}, nil
}

// Provider implements the Client interface.
func (a *AnthropicClient) Provider() string { return ProviderAnthropic }

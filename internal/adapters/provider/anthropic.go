package provider

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gitdraft/gitdraft/internal/domain"
)

const (
	defaultAnthropicBaseURL = "https://api.anthropic.com"
	anthropicVersion        = "2023-06-01"
	anthropicMaxTokens      = 1024
)

var anthropicModelPrefixes = []string{"claude-"}

// Anthropic calls the messages API. Its wire format already matches the
// fragment-sequence content shape and the usage{input_tokens,output_tokens}
// metadata shape, so the decoded body is returned as-is.
type Anthropic struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
	logger     Logger
}

// NewAnthropic validates the configuration and builds the adapter.
func NewAnthropic(cfg *domain.Configuration, client *http.Client, log Logger) (*Anthropic, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: anthropic", domain.ErrMissingAPIKey)
	}
	if !hasAllowedPrefix(cfg.Model, anthropicModelPrefixes) {
		return nil, fmt.Errorf("%w: anthropic does not serve %q", domain.ErrUnsupportedModel, cfg.Model)
	}
	baseURL := strings.TrimSuffix(cfg.Endpoint, "/")
	if baseURL == "" {
		baseURL = defaultAnthropicBaseURL
	}
	return &Anthropic{
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		baseURL:    baseURL,
		httpClient: client,
		logger:     log,
	}, nil
}

// Name returns the provider identifier.
func (p *Anthropic) Name() string { return "anthropic" }

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Invoke posts the prompt to /v1/messages and returns the decoded body
// without reshaping.
func (p *Anthropic) Invoke(ctx context.Context, prompt string) (any, error) {
	reqBody := anthropicRequest{
		Model:     p.model,
		MaxTokens: anthropicMaxTokens,
		Messages: []anthropicMessage{
			{Role: "user", Content: prompt},
		},
	}
	p.logger.Debug(ctx, "invoking model", map[string]interface{}{
		"provider": p.Name(),
		"model":    p.model,
	})
	var decoded map[string]any
	err := postJSON(ctx, p.httpClient, p.baseURL+"/v1/messages", map[string]string{
		"x-api-key":         p.apiKey,
		"anthropic-version": anthropicVersion,
	}, reqBody, &decoded)
	if err != nil {
		return nil, err
	}
	return decoded, nil
}

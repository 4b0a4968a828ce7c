package provider

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gitdraft/gitdraft/internal/domain"
)

const defaultOllamaBaseURL = "http://localhost:11434"

// Ollama calls a local Ollama server. No API key is required and models are
// whatever the server has pulled, so validation only requires a non-empty
// model name.
type Ollama struct {
	model      string
	baseURL    string
	httpClient *http.Client
	logger     Logger
}

// NewOllama validates the configuration and builds the adapter.
func NewOllama(cfg *domain.Configuration, client *http.Client, log Logger) (*Ollama, error) {
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, fmt.Errorf("%w: ollama requires a model name", domain.ErrUnsupportedModel)
	}
	baseURL := strings.TrimSuffix(cfg.Endpoint, "/")
	if baseURL == "" {
		baseURL = defaultOllamaBaseURL
	}
	return &Ollama{
		model:      cfg.Model,
		baseURL:    baseURL,
		httpClient: client,
		logger:     log,
	}, nil
}

// Name returns the provider identifier.
func (p *Ollama) Name() string { return "ollama" }

type ollamaRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type ollamaResponse struct {
	Response string `json:"response"`
}

// Invoke posts the prompt to /api/generate. Ollama reports no token usage
// in the shapes the invoker understands, so the reply carries content only.
func (p *Ollama) Invoke(ctx context.Context, prompt string) (any, error) {
	reqBody := ollamaRequest{
		Model:  p.model,
		Prompt: prompt,
		Stream: false,
	}
	p.logger.Debug(ctx, "invoking model", map[string]interface{}{
		"provider": p.Name(),
		"model":    p.model,
	})
	var decoded ollamaResponse
	if err := postJSON(ctx, p.httpClient, p.baseURL+"/api/generate", nil, reqBody, &decoded); err != nil {
		return nil, err
	}
	return map[string]any{"content": decoded.Response}, nil
}

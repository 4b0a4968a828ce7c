package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gitdraft/gitdraft/internal/domain"
)

const defaultOpenAIBaseURL = "https://api.openai.com"

// openAIModelPrefixes is the model allow-list, checked by prefix so point
// releases do not need code changes.
var openAIModelPrefixes = []string{"gpt-4", "gpt-5", "o1", "o3", "o4", "chatgpt-"}

// OpenAI calls the chat completions API.
type OpenAI struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
	logger     Logger
}

// NewOpenAI validates the configuration and builds the adapter.
func NewOpenAI(cfg *domain.Configuration, client *http.Client, log Logger) (*OpenAI, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: openai", domain.ErrMissingAPIKey)
	}
	if !hasAllowedPrefix(cfg.Model, openAIModelPrefixes) {
		return nil, fmt.Errorf("%w: openai does not serve %q", domain.ErrUnsupportedModel, cfg.Model)
	}
	baseURL := strings.TrimSuffix(cfg.Endpoint, "/")
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}
	return &OpenAI{
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		baseURL:    baseURL,
		httpClient: client,
		logger:     log,
	}, nil
}

// Name returns the provider identifier.
func (p *OpenAI) Name() string { return "openai" }

type openAIRequest struct {
	Model    string          `json:"model"`
	Messages []openAIMessage `json:"messages"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// Invoke posts the prompt to /v1/chat/completions and reshapes the reply
// into the content + tokenUsage form the invoker extracts from.
func (p *OpenAI) Invoke(ctx context.Context, prompt string) (any, error) {
	reqBody := openAIRequest{
		Model: p.model,
		Messages: []openAIMessage{
			{Role: "user", Content: prompt},
		},
	}
	p.logger.Debug(ctx, "invoking model", map[string]interface{}{
		"provider": p.Name(),
		"model":    p.model,
	})
	var decoded openAIResponse
	err := postJSON(ctx, p.httpClient, p.baseURL+"/v1/chat/completions", map[string]string{
		"Authorization": "Bearer " + p.apiKey,
	}, reqBody, &decoded)
	if err != nil {
		return nil, err
	}
	if len(decoded.Choices) == 0 {
		return nil, fmt.Errorf("openai response had no choices")
	}
	return map[string]any{
		"content": decoded.Choices[0].Message.Content,
		"tokenUsage": map[string]any{
			"promptTokens":     decoded.Usage.PromptTokens,
			"completionTokens": decoded.Usage.CompletionTokens,
			"totalTokens":      decoded.Usage.TotalTokens,
		},
	}, nil
}

func hasAllowedPrefix(model string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if strings.HasPrefix(model, prefix) {
			return true
		}
	}
	return false
}

// postJSON sends body as JSON and decodes a 2xx reply into out. Non-2xx
// replies surface the status and a bounded slice of the response body.
func postJSON(ctx context.Context, client *http.Client, url string, headers map[string]string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

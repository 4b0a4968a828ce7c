package provider

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gitdraft/gitdraft/internal/domain"
)

const defaultGeminiBaseURL = "https://generativelanguage.googleapis.com"

var geminiModelPrefixes = []string{"gemini-"}

// Gemini calls the generateContent API.
type Gemini struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
	logger     Logger
}

// NewGemini validates the configuration and builds the adapter.
func NewGemini(cfg *domain.Configuration, client *http.Client, log Logger) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: gemini", domain.ErrMissingAPIKey)
	}
	if !hasAllowedPrefix(cfg.Model, geminiModelPrefixes) {
		return nil, fmt.Errorf("%w: gemini does not serve %q", domain.ErrUnsupportedModel, cfg.Model)
	}
	baseURL := strings.TrimSuffix(cfg.Endpoint, "/")
	if baseURL == "" {
		baseURL = defaultGeminiBaseURL
	}
	return &Gemini{
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		baseURL:    baseURL,
		httpClient: client,
		logger:     log,
	}, nil
}

// Name returns the provider identifier.
func (p *Gemini) Name() string { return "gemini" }

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
		TotalTokenCount      int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
}

// Invoke posts the prompt to the model's generateContent endpoint and
// reshapes the reply into the content + tokenUsage form.
func (p *Gemini) Invoke(ctx context.Context, prompt string) (any, error) {
	reqBody := geminiRequest{
		Contents: []geminiContent{
			{Parts: []geminiPart{{Text: prompt}}},
		},
	}
	p.logger.Debug(ctx, "invoking model", map[string]interface{}{
		"provider": p.Name(),
		"model":    p.model,
	})
	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", p.baseURL, p.model, p.apiKey)
	var decoded geminiResponse
	if err := postJSON(ctx, p.httpClient, url, nil, reqBody, &decoded); err != nil {
		return nil, err
	}
	if len(decoded.Candidates) == 0 {
		return nil, fmt.Errorf("gemini response had no candidates")
	}
	var b strings.Builder
	for _, part := range decoded.Candidates[0].Content.Parts {
		b.WriteString(part.Text)
	}
	return map[string]any{
		"content": b.String(),
		"tokenUsage": map[string]any{
			"promptTokens":     decoded.UsageMetadata.PromptTokenCount,
			"completionTokens": decoded.UsageMetadata.CandidatesTokenCount,
			"totalTokens":      decoded.UsageMetadata.TotalTokenCount,
		},
	}, nil
}

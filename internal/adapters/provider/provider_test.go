package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitdraft/gitdraft/internal/domain"
)

func providerTestConfig(name, model, endpoint string) *domain.Configuration {
	return &domain.Configuration{
		Provider: name,
		Model:    model,
		Endpoint: endpoint,
		APIKey:   "test-key",
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *domain.Configuration
		wantErr error
	}{
		{
			name: "openai",
			cfg:  providerTestConfig("openai", "gpt-4o", ""),
		},
		{
			name: "anthropic",
			cfg:  providerTestConfig("anthropic", "claude-sonnet-4-5", ""),
		},
		{
			name: "gemini",
			cfg:  providerTestConfig("gemini", "gemini-2.0-flash", ""),
		},
		{
			name: "ollama",
			cfg:  providerTestConfig("ollama", "llama3", ""),
		},
		{
			name:    "unknown provider",
			cfg:     providerTestConfig("mistral", "mistral-large", ""),
			wantErr: domain.ErrUnknownProvider,
		},
		{
			name:    "model not served by vendor",
			cfg:     providerTestConfig("openai", "claude-sonnet-4-5", ""),
			wantErr: domain.ErrUnsupportedModel,
		},
		{
			name: "missing api key",
			cfg: &domain.Configuration{
				Provider: "anthropic",
				Model:    "claude-sonnet-4-5",
			},
			wantErr: domain.ErrMissingAPIKey,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := New(tt.cfg, &mockLogger{})
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.cfg.Provider, p.Name())
		})
	}
}

func TestNew_OllamaNeedsNoKey(t *testing.T) {
	p, err := New(&domain.Configuration{Provider: "ollama", Model: "llama3"}, &mockLogger{})
	require.NoError(t, err)
	assert.Equal(t, "ollama", p.Name())
}

func TestOpenAI_Invoke(t *testing.T) {
	var gotAuth string
	var gotBody openAIRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.Equal(t, "/v1/chat/completions", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []any{map[string]any{"message": map[string]any{"content": `{"commits":["feat: x"]}`}}},
			"usage":   map[string]any{"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15},
		})
	}))
	defer srv.Close()

	p, err := NewOpenAI(providerTestConfig("openai", "gpt-4o", srv.URL), srv.Client(), &mockLogger{})
	require.NoError(t, err)

	raw, err := p.Invoke(context.Background(), "the prompt")
	require.NoError(t, err)

	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, "gpt-4o", gotBody.Model)
	require.Len(t, gotBody.Messages, 1)
	assert.Equal(t, "user", gotBody.Messages[0].Role)
	assert.Equal(t, "the prompt", gotBody.Messages[0].Content)

	assert.Equal(t, `{"commits":["feat: x"]}`, ExtractContent(raw))
	usage := ExtractTokenUsage(raw)
	require.NotNil(t, usage)
	assert.Equal(t, 15, usage.TotalTokens)
}

func TestOpenAI_Invoke_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":{"message":"invalid api key"}}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	p, err := NewOpenAI(providerTestConfig("openai", "gpt-4o", srv.URL), srv.Client(), &mockLogger{})
	require.NoError(t, err)

	_, err = p.Invoke(context.Background(), "prompt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 401")
	assert.Contains(t, err.Error(), "invalid api key")
}

func TestAnthropic_Invoke(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/messages", r.URL.Path)
		require.Equal(t, "test-key", r.Header.Get("x-api-key"))
		require.Equal(t, anthropicVersion, r.Header.Get("anthropic-version"))

		var body anthropicRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, anthropicMaxTokens, body.MaxTokens)

		_ = json.NewEncoder(w).Encode(map[string]any{
			"content": []any{
				map[string]any{"type": "text", "text": `{"commits":`},
				map[string]any{"type": "text", "text": `["fix: y"]}`},
			},
			"usage": map[string]any{"input_tokens": 80, "output_tokens": 20},
		})
	}))
	defer srv.Close()

	p, err := NewAnthropic(providerTestConfig("anthropic", "claude-sonnet-4-5", srv.URL), srv.Client(), &mockLogger{})
	require.NoError(t, err)

	raw, err := p.Invoke(context.Background(), "prompt")
	require.NoError(t, err)

	// The decoded body flows through untouched; the invoker extracts from it.
	assert.Equal(t, `{"commits":["fix: y"]}`, ExtractContent(raw))
	usage := ExtractTokenUsage(raw)
	require.NotNil(t, usage)
	assert.Equal(t, 100, usage.TotalTokens)
}

func TestGemini_Invoke(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1beta/models/gemini-2.0-flash:generateContent", r.URL.Path)
		require.Equal(t, "test-key", r.URL.Query().Get("key"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"candidates": []any{map[string]any{"content": map[string]any{"parts": []any{
				map[string]any{"text": "part one "},
				map[string]any{"text": "part two"},
			}}}},
			"usageMetadata": map[string]any{
				"promptTokenCount":     40,
				"candidatesTokenCount": 12,
				"totalTokenCount":      52,
			},
		})
	}))
	defer srv.Close()

	p, err := NewGemini(providerTestConfig("gemini", "gemini-2.0-flash", srv.URL), srv.Client(), &mockLogger{})
	require.NoError(t, err)

	raw, err := p.Invoke(context.Background(), "prompt")
	require.NoError(t, err)

	assert.Equal(t, "part one part two", ExtractContent(raw))
	usage := ExtractTokenUsage(raw)
	require.NotNil(t, usage)
	assert.Equal(t, 52, usage.TotalTokens)
}

func TestOllama_Invoke(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/generate", r.URL.Path)
		var body ollamaRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "llama3", body.Model)
		assert.False(t, body.Stream)
		_ = json.NewEncoder(w).Encode(map[string]any{"response": `{"commits":["chore: z"]}`})
	}))
	defer srv.Close()

	p, err := NewOllama(&domain.Configuration{Provider: "ollama", Model: "llama3", Endpoint: srv.URL}, srv.Client(), &mockLogger{})
	require.NoError(t, err)

	raw, err := p.Invoke(context.Background(), "prompt")
	require.NoError(t, err)

	assert.Equal(t, `{"commits":["chore: z"]}`, ExtractContent(raw))
	assert.Nil(t, ExtractTokenUsage(raw), "ollama reports no token usage")
}

func TestHasAllowedPrefix(t *testing.T) {
	assert.True(t, hasAllowedPrefix("gpt-4o-mini", openAIModelPrefixes))
	assert.True(t, hasAllowedPrefix("o3-mini", openAIModelPrefixes))
	assert.False(t, hasAllowedPrefix("claude-sonnet-4-5", openAIModelPrefixes))
	assert.True(t, hasAllowedPrefix("claude-sonnet-4-5", anthropicModelPrefixes))
	assert.False(t, hasAllowedPrefix("", anthropicModelPrefixes))
}

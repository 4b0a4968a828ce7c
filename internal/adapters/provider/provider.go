// Package provider contains the model vendor adapters and the timeout-raced
// invoker. Each adapter is a plain net/http client that owns its own request
// shaping and model allow-list; the set of vendors is closed.
package provider

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gitdraft/gitdraft/internal/domain"
)

// defaultHTTPTimeout bounds a single HTTP exchange. The pipeline-level
// deadline is enforced separately by the Invoker race.
const defaultHTTPTimeout = 90 * time.Second

// Logger defines the logging interface for the provider adapters.
type Logger interface {
	Debug(ctx context.Context, msg string, fields map[string]interface{})
	Warn(ctx context.Context, msg string, fields map[string]interface{})
}

// New creates the adapter for the configured provider. The provider set is
// closed; unknown names fail with domain.ErrUnknownProvider.
func New(cfg *domain.Configuration, log Logger) (domain.Provider, error) {
	client := &http.Client{Timeout: defaultHTTPTimeout}
	switch cfg.Provider {
	case "openai":
		return NewOpenAI(cfg, client, log)
	case "anthropic":
		return NewAnthropic(cfg, client, log)
	case "gemini":
		return NewGemini(cfg, client, log)
	case "ollama":
		return NewOllama(cfg, client, log)
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownProvider, cfg.Provider)
	}
}

package provider

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gitdraft/gitdraft/internal/domain"
)

// Invoker races a provider call against a fixed deadline. Whichever settles
// first wins; the losing goroutine is abandoned rather than cancelled, the
// caller just stops waiting for it.
type Invoker struct {
	timeout time.Duration
	logger  Logger
}

// NewInvoker creates an Invoker with the given deadline. A non-positive
// timeout falls back to the default of 60 seconds.
func NewInvoker(timeout time.Duration, log Logger) *Invoker {
	if timeout <= 0 {
		timeout = domain.DefaultInvokeTimeoutMS * time.Millisecond
	}
	return &Invoker{timeout: timeout, logger: log}
}

// Invoke sends the prompt through p and normalizes the raw response into
// content text and optional token usage. On deadline it fails with
// domain.ErrTimeout (retryable by re-running the pipeline).
func (i *Invoker) Invoke(ctx context.Context, p domain.Provider, prompt string) (*domain.ModelResponse, error) {
	type outcome struct {
		raw any
		err error
	}
	results := make(chan outcome, 1)
	go func() {
		raw, err := p.Invoke(ctx, prompt)
		results <- outcome{raw: raw, err: err}
	}()

	timer := time.NewTimer(i.timeout)
	defer timer.Stop()

	select {
	case o := <-results:
		if o.err != nil {
			return nil, fmt.Errorf("provider %s: %w", p.Name(), o.err)
		}
		resp := &domain.ModelResponse{
			Content: ExtractContent(o.raw),
			Usage:   ExtractTokenUsage(o.raw),
		}
		i.logger.Debug(ctx, "provider responded", map[string]interface{}{
			"provider":      p.Name(),
			"content_chars": len(resp.Content),
			"has_usage":     resp.Usage != nil,
		})
		return resp, nil
	case <-timer.C:
		return nil, fmt.Errorf("%w: provider %s exceeded %s", domain.ErrTimeout, p.Name(), i.timeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// ExtractContent pulls the textual content out of a raw provider response.
// Supported shapes: a plain string; an object whose content is a string; an
// object whose content is a fragment sequence where fragments may carry a
// text field (fragments without one count as empty). Fragments concatenate
// in order. Anything else yields an empty string.
func ExtractContent(raw any) string {
	switch v := raw.(type) {
	case string:
		return v
	case map[string]any:
		switch content := v["content"].(type) {
		case string:
			return content
		case []any:
			var b strings.Builder
			for _, frag := range content {
				m, ok := frag.(map[string]any)
				if !ok {
					continue
				}
				if text, ok := m["text"].(string); ok {
					b.WriteString(text)
				}
			}
			return b.String()
		}
	}
	return ""
}

// ExtractTokenUsage reads token accounting from either of the two known
// metadata shapes: tokenUsage{promptTokens,completionTokens,totalTokens} or
// usage{input_tokens,output_tokens} (summed into the total). Absence of
// both is not an error; the result is simply nil.
func ExtractTokenUsage(raw any) *domain.TokenUsage {
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil
	}
	if tu, ok := obj["tokenUsage"].(map[string]any); ok {
		return &domain.TokenUsage{
			PromptTokens:     nonNegativeInt(tu["promptTokens"]),
			CompletionTokens: nonNegativeInt(tu["completionTokens"]),
			TotalTokens:      nonNegativeInt(tu["totalTokens"]),
		}
	}
	if u, ok := obj["usage"].(map[string]any); ok {
		in := nonNegativeInt(u["input_tokens"])
		out := nonNegativeInt(u["output_tokens"])
		return &domain.TokenUsage{
			PromptTokens:     in,
			CompletionTokens: out,
			TotalTokens:      in + out,
		}
	}
	return nil
}

// nonNegativeInt coerces decoded JSON numbers (float64) and plain ints.
func nonNegativeInt(v any) int {
	var n int
	switch num := v.(type) {
	case float64:
		n = int(num)
	case int:
		n = num
	}
	if n < 0 {
		return 0
	}
	return n
}

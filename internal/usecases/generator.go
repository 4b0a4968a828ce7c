// Package usecases contains the application business logic: the generation
// orchestrator, the prompt builder, the response parser and the redactor.
package usecases

import (
	"context"
	"fmt"

	"github.com/gitdraft/gitdraft/internal/domain"
)

// Logger defines the logging interface required by the use cases.
// This abstracts the logger dependency to avoid coupling to a specific
// implementation.
type Logger interface {
	Info(ctx context.Context, msg string, fields map[string]interface{})
	Debug(ctx context.Context, msg string, fields map[string]interface{})
	Warn(ctx context.Context, msg string, fields map[string]interface{})
	Error(ctx context.Context, msg string, err error, fields map[string]interface{})
}

// CommitGenerator sequences the generation pipeline: context collection,
// redaction (inside collection), prompt building, model invocation and
// response parsing. It owns the GitContext for the duration of a request
// and threads the regeneration attempt count into the prompt.
type CommitGenerator struct {
	collector domain.ContextCollector
	provider  domain.Provider
	invoker   domain.Invoker
	display   domain.DisplaySink
	cfg       *domain.Configuration
	logger    Logger
}

// NewCommitGenerator creates a CommitGenerator with the given dependencies.
func NewCommitGenerator(
	collector domain.ContextCollector,
	prov domain.Provider,
	invoker domain.Invoker,
	display domain.DisplaySink,
	cfg *domain.Configuration,
	log Logger,
) *CommitGenerator {
	return &CommitGenerator{
		collector: collector,
		provider:  prov,
		invoker:   invoker,
		display:   display,
		cfg:       cfg,
		logger:    log,
	}
}

// Generate runs one generation attempt. When in.Context is nil a fresh
// context is collected; regeneration passes the previous context back so
// only prompt building onward re-runs. Parse and timeout failures surface
// as typed errors for the caller to act on; no automatic retry happens here.
func (g *CommitGenerator) Generate(ctx context.Context, in domain.GenerateInput) (*domain.GenerateOutput, error) {
	gc := in.Context
	if gc == nil {
		collected, err := g.collector.Collect(ctx, g.cfg.RedactSensitiveData)
		if err != nil {
			return nil, fmt.Errorf("collecting git context: %w", err)
		}
		gc = collected
	}
	gc.RegenerationAttempts = in.RegenerationAttempts

	g.logger.Info(ctx, "generating commit messages", map[string]interface{}{
		"provider":     g.provider.Name(),
		"staged_files": len(gc.StagedFiles),
		"attempts":     gc.RegenerationAttempts,
	})

	prompt, err := BuildPrompt(gc, g.cfg)
	if err != nil {
		return nil, err
	}

	resp, err := g.invoker.Invoke(ctx, g.provider, prompt)
	if err != nil {
		return nil, err
	}

	result, err := ParseResponse(resp.Content, g.cfg.MaxCommitLength, g.cfg.CommitChoicesCount)
	if err != nil {
		g.logger.Error(ctx, "response yielded no usable messages", err, map[string]interface{}{
			"provider": g.provider.Name(),
		})
		return nil, err
	}
	if result.UsedFallback {
		warnErr := g.display.Warning(fmt.Sprintf(
			"model response was not well-formed (%v); recovered %d message(s) heuristically",
			result.StructuredFailure, len(result.Candidates)))
		if warnErr != nil {
			g.logger.Warn(ctx, "could not write fallback warning", map[string]interface{}{
				"error": warnErr.Error(),
			})
		}
	}

	g.logger.Info(ctx, "generation complete", map[string]interface{}{
		"candidates":    len(result.Candidates),
		"used_fallback": result.UsedFallback,
	})

	return &domain.GenerateOutput{
		Candidates:   result.Candidates,
		Prompt:       prompt,
		Usage:        resp.Usage,
		UsedFallback: result.UsedFallback,
		Context:      gc,
	}, nil
}

// RenderPrompt exposes the literal prompt for dry-run display without any
// network call. What you see is what is sent.
func (g *CommitGenerator) RenderPrompt(gc *domain.GitContext) (string, error) {
	return BuildPrompt(gc, g.cfg)
}

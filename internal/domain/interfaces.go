// Package domain defines the core business entities and interfaces for gitdraft.
// This package contains no external dependencies and represents the innermost
// layer of the CLEAN architecture.
package domain

import (
	"context"
	"errors"
)

// Environment errors, detected before the pipeline runs. Fatal to the
// current command; no retry.
var (
	// ErrGitNotInstalled indicates the git binary is not available.
	ErrGitNotInstalled = errors.New("git is not installed or not on PATH")

	// ErrNotARepository indicates the working directory is not inside a git repository.
	ErrNotARepository = errors.New("not a git repository")

	// ErrNoStagedChanges indicates there is nothing in the index to describe.
	ErrNoStagedChanges = errors.New("no staged changes found")
)

// Provider and configuration errors.
var (
	// ErrTimeout indicates the provider call exceeded the deadline.
	// Retryable: the caller may re-invoke the pipeline.
	ErrTimeout = errors.New("model request timed out")

	// ErrUnknownProvider indicates the configured provider name is not a
	// known variant.
	ErrUnknownProvider = errors.New("unknown provider")

	// ErrUnsupportedModel indicates the model is not in the provider's allow-list.
	ErrUnsupportedModel = errors.New("model not supported by provider")

	// ErrMissingAPIKey indicates no API key could be resolved for a provider
	// that requires one.
	ErrMissingAPIKey = errors.New("missing provider API key")
)

// Response parse errors. Each kind is errors.Is-distinguishable so failure
// paths can be asserted exactly. All are non-fatal to the surrounding
// command; the caller decides whether to prompt for regeneration.
var (
	// ErrNotJSONObject indicates the response is not a JSON object.
	ErrNotJSONObject = errors.New("response is not a JSON object")

	// ErrMissingCommitsArray indicates the object has no commits array
	// (absent key, or a value that is not an array).
	ErrMissingCommitsArray = errors.New("response has no commits array")

	// ErrEmptyCommitsArray indicates the commits array is present but empty.
	ErrEmptyCommitsArray = errors.New("response commits array is empty")

	// ErrNoValidMessages indicates no element survived trimming and
	// length filtering.
	ErrNoValidMessages = errors.New("no valid commit messages in response")

	// ErrFallbackFailed indicates the heuristic extraction also produced
	// nothing; it wraps the structured-parse cause.
	ErrFallbackFailed = errors.New("could not extract commit messages from response")
)

// ShellRunner executes an external command and returns its captured output.
// Implementations run commands sequentially and synchronously.
type ShellRunner interface {
	// Run executes name with args and returns stdout, stderr and the
	// process exit code. err is non-nil when the command could not be
	// started or exited non-zero.
	Run(ctx context.Context, name string, args ...string) (stdout string, stderr string, exitCode int, err error)
}

// Redactor scrubs secrets and PII from text before it leaves the machine.
// Redact is pure, never fails, and is idempotent.
type Redactor interface {
	Redact(text string) string
}

// ContextCollector gathers the git context for one generation request.
type ContextCollector interface {
	// Preflight verifies git is installed and the working directory is a
	// repository. Returns ErrGitNotInstalled or ErrNotARepository.
	Preflight(ctx context.Context) error

	// Collect gathers staged files, branch, truncated diff and the recent
	// commit sample. When redact is true the diff is scrubbed after
	// truncation. An empty staged-file list is valid; the caller decides
	// whether that is an error.
	Collect(ctx context.Context, redact bool) (*GitContext, error)

	// AuthorIdentity returns a display name for the committer, combining
	// git config user.name with the local part of user.email, falling back
	// to the USER/USERNAME environment variables. Used only for reporting.
	AuthorIdentity(ctx context.Context) string
}

// Provider is one model vendor adapter. The raw return value is the decoded
// wire response; its shape varies by vendor and is normalized by the Invoker.
type Provider interface {
	// Name returns the provider identifier for logs and error context.
	Name() string

	// Invoke sends the prompt and returns the decoded response. The shape
	// is not guaranteed: it may be a plain string or an object exposing
	// content as a string or a fragment sequence.
	Invoke(ctx context.Context, prompt string) (any, error)
}

// Invoker races a provider call against a deadline and normalizes the raw
// response into content text and optional token usage.
type Invoker interface {
	Invoke(ctx context.Context, p Provider, prompt string) (*ModelResponse, error)
}

// Generator runs the full generation pipeline for one attempt.
type Generator interface {
	// Generate sequences collection, prompt building, invocation and
	// parsing. Context is reused from input when present so regeneration
	// does not re-collect.
	Generate(ctx context.Context, in GenerateInput) (*GenerateOutput, error)

	// RenderPrompt returns the literal prompt that Generate would send for
	// the given context, for dry-run display. What you see is what is sent.
	RenderPrompt(gc *GitContext) (string, error)
}

// DisplaySink writes user-facing text. It is the boundary to the
// interactive presentation layer.
type DisplaySink interface {
	// Candidates renders the numbered candidate list.
	Candidates(list []string) error

	// Message writes a plain informational line.
	Message(msg string) error

	// Warning writes a highlighted warning line.
	Warning(msg string) error

	// Prompt echoes a rendered prompt verbatim (dry-run mode).
	Prompt(text string) error
}

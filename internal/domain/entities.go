// Package domain defines the core business entities and interfaces for gitdraft.
package domain

// GitContext contains all repository-derived information needed for one
// generation request. It is created once per request by the ContextCollector
// and owned by the orchestrator; the diff is already truncated (and redacted
// when redaction is enabled) at construction time.
type GitContext struct {
	// StagedFiles are the relative paths of files staged for commit.
	StagedFiles []string

	// Branch is the current branch name (empty string when detached;
	// displayed as "unknown" downstream).
	Branch string

	// Diff is the staged diff, truncated and optionally redacted.
	Diff string

	// RecentCommits is a deduplicated sample of historical commit subjects,
	// at most the configured sample size, in insertion order.
	RecentCommits []string

	// RegenerationAttempts counts how many times the user has asked for a
	// fresh set of candidates using this same context.
	RegenerationAttempts int
}

// Configuration holds the settings consumed by the generation pipeline.
// It is loaded once per invocation and read-only afterwards.
type Configuration struct {
	// Provider selects the model vendor (openai, anthropic, gemini, ollama).
	Provider string

	// Model is the vendor model identifier, validated by the provider adapter.
	Model string

	// Endpoint overrides the provider base URL (required for ollama,
	// optional elsewhere).
	Endpoint string

	// APIKey authenticates against the provider. Resolved from the
	// environment or Vault; empty for providers that need none.
	APIKey string

	// MaxCommitLength is the per-candidate character ceiling (50-100).
	MaxCommitLength int

	// CommitChoicesCount is how many candidates to request (1-10).
	CommitChoicesCount int

	// CustomRules are extra prompt rules, one bullet each.
	CustomRules []string

	// RedactSensitiveData controls whether the diff is scrubbed before it
	// leaves the machine.
	RedactSensitiveData bool

	// CommitLanguage is the target language code for generated messages.
	CommitLanguage string

	// MaxInteractiveIterations bounds the selection/regeneration loop.
	MaxInteractiveIterations int

	// LogLevel is the logging level (debug, info, error).
	LogLevel string

	// LogAppName is the application name for log context.
	LogAppName string
}

// TokenUsage reports provider token consumption for one invocation.
// It is nil on ModelResponse when the provider exposed no usage metadata.
type TokenUsage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// ModelResponse is the normalized result of one provider invocation.
type ModelResponse struct {
	// Content is the concatenated textual content of the response.
	Content string

	// Usage is best-effort token accounting; nil when unavailable.
	Usage *TokenUsage
}

// GenerateInput carries the parameters for one generation attempt.
type GenerateInput struct {
	// Context is the collected git context. When nil the generator collects
	// a fresh one; callers reuse it across regenerations.
	Context *GitContext

	// RegenerationAttempts is threaded into the prompt so the regeneration
	// note reflects the current attempt count.
	RegenerationAttempts int
}

// GenerateOutput is the result of one generation attempt.
type GenerateOutput struct {
	// Candidates is the bounded, validated commit-message list, in the
	// model's own order.
	Candidates []string

	// Prompt is the literal rendered prompt that was sent.
	Prompt string

	// Usage is token accounting when the provider reported it.
	Usage *TokenUsage

	// UsedFallback is true when the heuristic parse path produced the list.
	UsedFallback bool

	// Context is the git context used, returned so callers can reuse it
	// for regeneration without re-collecting.
	Context *GitContext
}

// Defaults and valid ranges for Configuration fields.
const (
	DefaultMaxCommitLength = 72
	MinMaxCommitLength     = 50
	MaxMaxCommitLength     = 100

	DefaultCommitChoicesCount = 5
	MinCommitChoicesCount     = 1
	MaxCommitChoicesCount     = 10

	DefaultCommitLanguage = "en"

	// DefaultRecentCommitTarget is the sample size for historical subjects.
	DefaultRecentCommitTarget = 10

	// DefaultDiffMaxChars is the collector-side diff truncation limit.
	DefaultDiffMaxChars = 10000

	// PromptDiffCeiling is the prompt builder's own re-truncation limit,
	// independent of the collector's truncation.
	PromptDiffCeiling = 20000

	// DefaultMaxInteractiveIterations bounds the selection loop so the
	// command terminates even under persistent regeneration.
	DefaultMaxInteractiveIterations = 25
)

// DefaultInvokeTimeoutMS is the provider call deadline in milliseconds.
const DefaultInvokeTimeoutMS = 60000

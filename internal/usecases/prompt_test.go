package usecases

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitdraft/gitdraft/internal/domain"
)

func promptTestConfig() *domain.Configuration {
	return &domain.Configuration{
		MaxCommitLength:    72,
		CommitChoicesCount: 5,
		CommitLanguage:     domain.DefaultCommitLanguage,
	}
}

func promptTestContext() *domain.GitContext {
	return &domain.GitContext{
		StagedFiles:   []string{"internal/server/handler.go", "internal/server/handler_test.go"},
		Branch:        "feature/tracing",
		Diff:          "+func TraceRequest() {}",
		RecentCommits: []string{"feat: add metrics endpoint", "fix: close idle connections"},
	}
}

func TestBuildPrompt_ContainsAllSections(t *testing.T) {
	prompt, err := BuildPrompt(promptTestContext(), promptTestConfig())
	require.NoError(t, err)

	assert.Contains(t, prompt, "Recent commit messages from this repository")
	assert.Contains(t, prompt, "- feat: add metrics endpoint")
	assert.Contains(t, prompt, "- fix: close idle connections")
	assert.Contains(t, prompt, "at most 72 characters")
	assert.Contains(t, prompt, "Branch: feature/tracing")
	assert.Contains(t, prompt, "Staged files: internal/server/handler.go, internal/server/handler_test.go")
	assert.Contains(t, prompt, "```diff\n+func TraceRequest() {}\n```")
	assert.Contains(t, prompt, `{"commits": ["message", ...]}`)
	assert.Contains(t, prompt, "exactly 5 candidate messages")
}

func TestBuildPrompt_OmitsEmptySections(t *testing.T) {
	gc := promptTestContext()
	gc.RecentCommits = nil
	gc.RegenerationAttempts = 0

	prompt, err := BuildPrompt(gc, promptTestConfig())
	require.NoError(t, err)

	assert.NotContains(t, prompt, "Recent commit messages")
	assert.NotContains(t, prompt, "rejected")
}

func TestBuildPrompt_DetachedHeadShowsUnknown(t *testing.T) {
	gc := promptTestContext()
	gc.Branch = ""

	prompt, err := BuildPrompt(gc, promptTestConfig())
	require.NoError(t, err)
	assert.Contains(t, prompt, "Branch: unknown")
}

func TestBuildPrompt_RegenerationNoteEscalates(t *testing.T) {
	tests := []struct {
		name     string
		attempts int
		want     string
		absent   string
	}{
		{
			name:     "first generation has no note",
			attempts: 0,
			absent:   "rejected",
		},
		{
			name:     "first regeneration",
			attempts: 1,
			want:     "rejected the previous suggestions",
		},
		{
			name:     "second regeneration",
			attempts: 2,
			want:     "rejected two rounds",
		},
		{
			name:     "later regenerations carry the count",
			attempts: 4,
			want:     "rejected 4 rounds",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gc := promptTestContext()
			gc.RegenerationAttempts = tt.attempts
			prompt, err := BuildPrompt(gc, promptTestConfig())
			require.NoError(t, err)
			if tt.want != "" {
				assert.Contains(t, prompt, tt.want)
			}
			if tt.absent != "" {
				assert.NotContains(t, prompt, tt.absent)
			}
		})
	}
}

func TestBuildPrompt_CustomRulesAndLanguage(t *testing.T) {
	cfg := promptTestConfig()
	cfg.CustomRules = []string{"Reference the ticket number when known", "Avoid the word 'update'"}
	cfg.CommitLanguage = "de"

	prompt, err := BuildPrompt(promptTestContext(), cfg)
	require.NoError(t, err)

	assert.Contains(t, prompt, "- Reference the ticket number when known")
	assert.Contains(t, prompt, "- Avoid the word 'update'")
	assert.Contains(t, prompt, `language with code "de"`)
}

func TestBuildPrompt_DefaultLanguageOmitsRule(t *testing.T) {
	prompt, err := BuildPrompt(promptTestContext(), promptTestConfig())
	require.NoError(t, err)
	assert.NotContains(t, prompt, "language with code")
}

func TestBuildPrompt_Deterministic(t *testing.T) {
	a, err := BuildPrompt(promptTestContext(), promptTestConfig())
	require.NoError(t, err)
	b, err := BuildPrompt(promptTestContext(), promptTestConfig())
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestBuildPrompt_DiffCeiling(t *testing.T) {
	gc := promptTestContext()
	gc.Diff = strings.Repeat("a", domain.PromptDiffCeiling+500)

	prompt, err := BuildPrompt(gc, promptTestConfig())
	require.NoError(t, err)
	assert.Contains(t, prompt, "... (truncated)")
	assert.NotContains(t, prompt, strings.Repeat("a", domain.PromptDiffCeiling+1))
}

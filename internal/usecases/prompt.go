package usecases

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/gitdraft/gitdraft/internal/domain"
)

// commitPromptTemplate is the single prompt shape sent to every provider.
// Sections are omitted entirely when their data is absent so the rendered
// text stays deterministic for a given context and configuration.
const commitPromptTemplate = `You are an expert software engineer writing commit messages for staged changes.
{{- if .RecentCommits}}

Recent commit messages from this repository, for style reference:
{{- range .RecentCommits}}
- {{.}}
{{- end}}
{{- end}}
{{- if .RegenerationNote}}

{{.RegenerationNote}}
{{- end}}

Rules:
- Each message is a single line of at most {{.MaxLength}} characters.
- Use the imperative mood and do not end the message with a period.
{{- range .CustomRules}}
- {{.}}
{{- end}}
{{- if .LanguageRule}}
- {{.LanguageRule}}
{{- end}}

Branch: {{.Branch}}
Staged files: {{.Files}}

Staged diff:
` + "```diff\n{{.Diff}}\n```" + `

Respond with a JSON object of the form {"commits": ["message", ...]} containing exactly {{.Count}} candidate messages ordered from best to worst. Output only the JSON object.`

var promptTmpl = template.Must(template.New("commit-prompt").Parse(commitPromptTemplate))

type promptData struct {
	RecentCommits    []string
	RegenerationNote string
	CustomRules      []string
	LanguageRule     string
	Branch           string
	Files            string
	Diff             string
	MaxLength        int
	Count            int
}

// BuildPrompt renders the generation prompt for the given context and
// configuration. It is pure: the same inputs always yield the same string,
// and the returned text is exactly what dry-run mode displays and what the
// provider receives.
func BuildPrompt(gc *domain.GitContext, cfg *domain.Configuration) (string, error) {
	branch := gc.Branch
	if branch == "" {
		branch = "unknown"
	}

	data := promptData{
		RecentCommits:    gc.RecentCommits,
		RegenerationNote: regenerationNote(gc.RegenerationAttempts),
		CustomRules:      cfg.CustomRules,
		LanguageRule:     languageRule(cfg.CommitLanguage),
		Branch:           branch,
		Files:            strings.Join(gc.StagedFiles, ", "),
		Diff:             truncatePromptDiff(gc.Diff),
		MaxLength:        cfg.MaxCommitLength,
		Count:            cfg.CommitChoicesCount,
	}

	var b strings.Builder
	if err := promptTmpl.Execute(&b, data); err != nil {
		return "", fmt.Errorf("rendering prompt: %w", err)
	}
	return b.String(), nil
}

// regenerationNote intensifies with the attempt count; absent on the first
// generation.
func regenerationNote(attempts int) string {
	switch {
	case attempts <= 0:
		return ""
	case attempts == 1:
		return "The user rejected the previous suggestions. Offer noticeably different alternatives."
	case attempts == 2:
		return "The user rejected two rounds of suggestions. Take a different angle: change the emphasis, scope or framing of the messages."
	default:
		return fmt.Sprintf("The user has rejected %d rounds of suggestions. Propose substantially different messages that reconsider what the change is really about.", attempts)
	}
}

// languageRule is omitted for the default language.
func languageRule(lang string) string {
	if lang == "" || lang == domain.DefaultCommitLanguage {
		return ""
	}
	return fmt.Sprintf("Write every commit message in the language with code %q.", lang)
}

// truncatePromptDiff enforces the prompt-side ceiling, independent of the
// collector's own truncation.
func truncatePromptDiff(diff string) string {
	if len(diff) <= domain.PromptDiffCeiling {
		return diff
	}
	return diff[:domain.PromptDiffCeiling] + "\n... (truncated)"
}

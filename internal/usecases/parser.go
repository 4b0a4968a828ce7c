package usecases

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/gitdraft/gitdraft/internal/domain"
)

// ParseResult is the outcome of converting a raw model response into
// commit-message candidates.
type ParseResult struct {
	// Candidates preserves the source order; no ranking or dedup is applied.
	Candidates []string

	// UsedFallback is true when the heuristic line-extraction path produced
	// the candidates.
	UsedFallback bool

	// StructuredFailure is the reason the structured path failed; set only
	// when UsedFallback is true.
	StructuredFailure error
}

var (
	numberedLinePattern   = regexp.MustCompile(`^\d+\.`)
	conventionalTypePrefix = regexp.MustCompile(`^(feat|fix|docs|style|refactor|perf|test|build|ci|chore)\b`)
)

// ParseResponse converts raw model output into a bounded, length-filtered
// candidate list. The structured JSON path runs first; any failure there
// falls back to heuristic line extraction. Only when both tiers yield
// nothing does it return an error (ErrFallbackFailed wrapping the
// structured cause).
func ParseResponse(text string, maxLen, maxCount int) (*ParseResult, error) {
	candidates, structuredErr := parseStructured(text, maxLen, maxCount)
	if structuredErr == nil {
		return &ParseResult{Candidates: candidates}, nil
	}

	fallback := parseHeuristic(text, maxLen, maxCount)
	if len(fallback) == 0 {
		return nil, fmt.Errorf("%w: %w", domain.ErrFallbackFailed, structuredErr)
	}
	return &ParseResult{
		Candidates:        fallback,
		UsedFallback:      true,
		StructuredFailure: structuredErr,
	}, nil
}

// parseStructured expects, after optional code-fence stripping, a JSON
// object with a commits array of non-empty strings.
func parseStructured(text string, maxLen, maxCount int) ([]string, error) {
	body := stripCodeFence(strings.TrimSpace(text))

	var decoded any
	if err := json.Unmarshal([]byte(body), &decoded); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrNotJSONObject, err)
	}
	obj, ok := decoded.(map[string]any)
	if !ok {
		return nil, domain.ErrNotJSONObject
	}

	raw, ok := obj["commits"]
	if !ok {
		return nil, domain.ErrMissingCommitsArray
	}
	arr, ok := raw.([]any)
	if !ok {
		return nil, domain.ErrMissingCommitsArray
	}
	if len(arr) == 0 {
		return nil, domain.ErrEmptyCommitsArray
	}

	// Non-string and empty elements are dropped silently; the cap applies
	// before the length filter.
	var taken []string
	for _, elem := range arr {
		if len(taken) >= maxCount {
			break
		}
		s, ok := elem.(string)
		if !ok || strings.TrimSpace(s) == "" {
			continue
		}
		taken = append(taken, s)
	}

	var out []string
	for _, s := range taken {
		s = strings.TrimSuffix(strings.TrimSpace(s), ".")
		if s == "" || len(s) > maxLen {
			continue
		}
		out = append(out, s)
	}
	if len(out) == 0 {
		return nil, domain.ErrNoValidMessages
	}
	return out, nil
}

// stripCodeFence removes one leading and one trailing ``` fence (the
// leading fence may carry a json tag).
func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// parseHeuristic extracts plausible commit-message lines from arbitrary
// text. Order is preserved from the source.
func parseHeuristic(text string, maxLen, maxCount int) []string {
	var survivors []string
	for _, line := range strings.Split(text, "\n") {
		if len(survivors) >= maxCount {
			break
		}
		line = strings.TrimSpace(line)
		if !keepHeuristicLine(line) {
			continue
		}
		survivors = append(survivors, line)
	}

	var out []string
	for _, line := range survivors {
		// Trailing commas are JSON artifacts and go before quote stripping.
		line = strings.TrimSuffix(line, ",")
		line = stripSurroundingQuotes(line)
		line = strings.TrimSuffix(line, ".")
		line = strings.TrimSpace(line)
		if line == "" || len(line) > maxLen {
			continue
		}
		out = append(out, line)
	}
	return out
}

func keepHeuristicLine(line string) bool {
	if line == "" || strings.HasPrefix(line, "-") || strings.HasPrefix(line, "Here are") {
		return false
	}
	if strings.Contains(line, "commit messages") || strings.Contains(line, "describing") {
		return false
	}
	if numberedLinePattern.MatchString(line) {
		return false
	}
	switch line {
	case "[", "]", "{", "}":
		return false
	}
	if strings.Contains(line, `"commits"`) {
		return false
	}
	return strings.Contains(line, ":") || conventionalTypePrefix.MatchString(line)
}

// stripSurroundingQuotes removes one layer of matching quotes.
func stripSurroundingQuotes(s string) string {
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if first == last && (first == '"' || first == '\'' || first == '`') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

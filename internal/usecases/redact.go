package usecases

import (
	"fmt"
	"hash/fnv"
	"regexp"
	"strings"
)

// SecretRedactor scrubs secrets and PII from text before it leaves the
// machine. Matched values are replaced by deterministic fingerprint tokens
// so the same secret always maps to the same token; the fingerprint is a
// correlation aid, not a security control. Redaction is idempotent: no rule
// matches the replacement tokens themselves.
type SecretRedactor struct{}

// NewSecretRedactor creates a SecretRedactor.
func NewSecretRedactor() *SecretRedactor {
	return &SecretRedactor{}
}

var (
	// keyValueSecretPattern matches assignments like api_key=..., token: "...".
	// Group 4 is the secret value. The value class excludes '[' so already
	// redacted assignments never re-match.
	keyValueSecretPattern = regexp.MustCompile(
		`(?i)\b(api[_-]?key|apikey|access[_-]?key|secret|token|password|passwd|pwd)(\s*[:=]\s*)(["']?)([A-Za-z0-9_\-./+]{8,})`)

	// bearerTokenPattern matches Authorization-style bearer credentials.
	bearerTokenPattern = regexp.MustCompile(`(?i)\bbearer\s+([A-Za-z0-9\-._~+/]{16,}=*)`)

	// emailPattern matches plain email addresses. Candidates directly
	// preceded by ':' are left for the URL-credential pass.
	emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)

	// urlCredentialsPattern matches scheme://user:pass@; group 2 is the
	// password segment. The first password byte excludes '[' so redacted
	// URLs never re-match.
	urlCredentialsPattern = regexp.MustCompile(`(?i)\b([a-z][a-z0-9+.-]*://[^/\s:@]+:)([^@\s/\[][^@\s/]*)@`)

	// vendorKeyPatterns match vendor-prefixed token formats by fixed prefix
	// plus minimum length. Order matters: the sk-ant- form must run before
	// the generic sk- form.
	vendorKeyPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\bsk-ant-[A-Za-z0-9_\-]{16,}\b`),
		regexp.MustCompile(`\bsk-[A-Za-z0-9]{20,}\b`),
		regexp.MustCompile(`\bgh[pousr]_[A-Za-z0-9]{20,}\b`),
		regexp.MustCompile(`\bxox[abprs]-[A-Za-z0-9-]{10,}\b`),
		regexp.MustCompile(`\bAKIA[0-9A-Z]{16}\b`),
	}

	// cardPattern matches 16-digit payment-card-like sequences, spaced or
	// hyphenated.
	cardPattern = regexp.MustCompile(`\b\d{4}[ -]\d{4}[ -]\d{4}[ -]\d{4}\b`)

	// uuidPattern matches RFC-4122 UUIDs.
	uuidPattern = regexp.MustCompile(
		`\b[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}\b`)

	// ipv6Pattern matches full (non-abbreviated) IPv6 addresses: exactly
	// eight colon-separated hex groups. Boundary and range exclusions are
	// applied per match.
	ipv6Pattern = regexp.MustCompile(`(?:[0-9a-fA-F]{1,4}:){7}[0-9a-fA-F]{1,4}`)
)

// Redact applies all redaction passes in order. Empty input returns empty
// output; unmatched or ambiguous input passes through unchanged. It never
// fails.
func (r *SecretRedactor) Redact(text string) string {
	if text == "" {
		return ""
	}
	text = redactGroup(text, keyValueSecretPattern, 4)
	text = redactGroup(text, bearerTokenPattern, 1)
	text = redactEmails(text)
	text = redactGroup(text, urlCredentialsPattern, 2)
	for _, p := range vendorKeyPatterns {
		text = redactWhole(text, p, "REDACTED")
	}
	text = redactWhole(text, cardPattern, "REDACTED")
	text = redactWhole(text, uuidPattern, "REDACTED_UUID")
	text = redactIPv6(text)
	return text
}

// fingerprint returns a deterministic, fixed-width hex digest of s.
// FNV-1a is deliberate: stable, cheap and non-cryptographic.
func fingerprint(s string) string {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return fmt.Sprintf("%016x", h.Sum64())
}

func redactToken(tag, value string) string {
	return "[" + tag + ":" + fingerprint(value) + "]"
}

// redactWhole replaces every full match of re with a tagged fingerprint token.
func redactWhole(text string, re *regexp.Regexp, tag string) string {
	return re.ReplaceAllStringFunc(text, func(m string) string {
		return redactToken(tag, m)
	})
}

// redactGroup replaces only the given capture group of each match,
// preserving the surrounding text verbatim.
func redactGroup(text string, re *regexp.Regexp, group int) string {
	matches := re.FindAllStringSubmatchIndex(text, -1)
	if matches == nil {
		return text
	}
	var b strings.Builder
	last := 0
	for _, m := range matches {
		start, end := m[2*group], m[2*group+1]
		if start < 0 {
			continue
		}
		b.WriteString(text[last:start])
		b.WriteString(redactToken("REDACTED", text[start:end]))
		last = end
	}
	b.WriteString(text[last:])
	return b.String()
}

func redactEmails(text string) string {
	locs := emailPattern.FindAllStringIndex(text, -1)
	if locs == nil {
		return text
	}
	var b strings.Builder
	last := 0
	for _, loc := range locs {
		// user:pass@host credentials are handled by the URL pass.
		if loc[0] > 0 && text[loc[0]-1] == ':' {
			continue
		}
		b.WriteString(text[last:loc[0]])
		b.WriteString(redactToken("REDACTED", text[loc[0]:loc[1]]))
		last = loc[1]
	}
	if last == 0 {
		return text
	}
	b.WriteString(text[last:])
	return b.String()
}

func redactIPv6(text string) string {
	locs := ipv6Pattern.FindAllStringIndex(text, -1)
	if locs == nil {
		return text
	}
	var b strings.Builder
	last := 0
	for _, loc := range locs {
		match := text[loc[0]:loc[1]]
		if !ipv6Redactable(text, loc[0], loc[1], match) {
			continue
		}
		b.WriteString(text[last:loc[0]])
		b.WriteString(redactToken("REDACTED_IPV6", match))
		last = loc[1]
	}
	if last == 0 {
		return text
	}
	b.WriteString(text[last:])
	return b.String()
}

// ipv6Redactable filters out matches that are not standalone public IPv6
// addresses: pieces of longer colon runs (host:port tails), link-local,
// loopback and unique-local ranges. The fc/fd prefix test is a lowercase
// string check, a known approximation rather than a precise RFC range check.
func ipv6Redactable(text string, start, end int, match string) bool {
	if start > 0 && (text[start-1] == ':' || isHexByte(text[start-1])) {
		return false
	}
	if end < len(text) && text[end] == ':' {
		return false
	}
	lower := strings.ToLower(match)
	if strings.HasPrefix(lower, "fe80:") {
		return false
	}
	if strings.HasPrefix(lower, "fc") || strings.HasPrefix(lower, "fd") {
		return false
	}
	return true
}

func isHexByte(c byte) bool {
	switch {
	case c >= '0' && c <= '9':
		return true
	case c >= 'a' && c <= 'f':
		return true
	case c >= 'A' && c <= 'F':
		return true
	}
	return false
}

// Package git provides the adapter that gathers generation context from a
// local repository. It implements domain.ContextCollector by shelling out to
// the git binary through domain.ShellRunner; only the author-identity lookup
// reads git config through go-git.
package git

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"

	"github.com/gitdraft/gitdraft/internal/domain"
)

// Logger defines the logging interface for the git adapter.
type Logger interface {
	Debug(ctx context.Context, msg string, fields map[string]interface{})
	Warn(ctx context.Context, msg string, fields map[string]interface{})
}

// Collector gathers staged files, branch, truncated diff and a diverse
// sample of historical commit subjects.
type Collector struct {
	runner   domain.ShellRunner
	redactor domain.Redactor
	logger   Logger
	path     string
}

// NewCollector creates a Collector rooted at path.
func NewCollector(path string, runner domain.ShellRunner, redactor domain.Redactor, log Logger) *Collector {
	return &Collector{
		runner:   runner,
		redactor: redactor,
		logger:   log,
		path:     path,
	}
}

// Preflight verifies the git binary exists and the path is inside a
// repository. These are environment errors: fatal, not retryable.
func (c *Collector) Preflight(ctx context.Context) error {
	if _, _, _, err := c.runner.Run(ctx, "git", "--version"); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrGitNotInstalled, err)
	}
	if _, stderr, _, err := c.runner.Run(ctx, "git", "rev-parse", "--git-dir"); err != nil {
		return fmt.Errorf("%w: %s", domain.ErrNotARepository, strings.TrimSpace(stderr))
	}
	return nil
}

// Collect gathers the GitContext for one generation request. The diff is
// truncated before redaction; an empty staged-file list and an empty branch
// are both valid results.
func (c *Collector) Collect(ctx context.Context, redact bool) (*domain.GitContext, error) {
	stagedOut, _, _, err := c.runner.Run(ctx, "git", "diff", "--cached", "--name-only")
	if err != nil {
		return nil, fmt.Errorf("listing staged files: %w", err)
	}
	files := splitNonEmptyLines(stagedOut)

	branchOut, _, _, err := c.runner.Run(ctx, "git", "branch", "--show-current")
	if err != nil {
		return nil, fmt.Errorf("reading current branch: %w", err)
	}
	branch := strings.TrimSpace(branchOut)

	diffOut, _, _, err := c.runner.Run(ctx, "git", "diff", "--cached")
	if err != nil {
		return nil, fmt.Errorf("reading staged diff: %w", err)
	}
	diff := truncateWithMarker(diffOut, domain.DefaultDiffMaxChars)
	if redact {
		diff = c.redactor.Redact(diff)
	}

	recent := c.sampleRecentCommits(ctx, domain.DefaultRecentCommitTarget)

	c.logger.Debug(ctx, "collected git context", map[string]interface{}{
		"staged_files":   len(files),
		"branch":         branch,
		"diff_chars":     len(diff),
		"recent_commits": len(recent),
		"redacted":       redact,
	})

	return &domain.GitContext{
		StagedFiles:   files,
		Branch:        branch,
		Diff:          diff,
		RecentCommits: recent,
	}, nil
}

// AuthorIdentity combines git config user.name with the local part of
// user.email, falling back to the USER/USERNAME environment variables.
// Reporting only; never fails.
func (c *Collector) AuthorIdentity(ctx context.Context) string {
	if repo, err := gogit.PlainOpenWithOptions(c.path, &gogit.PlainOpenOptions{DetectDotGit: true}); err == nil {
		if cfg, err := repo.ConfigScoped(gitconfig.SystemScope); err == nil {
			name := strings.TrimSpace(cfg.User.Name)
			local := emailLocalPart(cfg.User.Email)
			switch {
			case name != "" && local != "":
				return name + " <" + local + ">"
			case name != "":
				return name
			case local != "":
				return local
			}
		}
	} else {
		c.logger.Debug(ctx, "could not open repository for author lookup", map[string]interface{}{
			"path":  c.path,
			"error": err.Error(),
		})
	}
	if user := os.Getenv("USER"); user != "" {
		return user
	}
	if user := os.Getenv("USERNAME"); user != "" {
		return user
	}
	return "unknown"
}

func emailLocalPart(email string) string {
	email = strings.TrimSpace(email)
	if at := strings.Index(email, "@"); at > 0 {
		return email[:at]
	}
	return ""
}

func splitNonEmptyLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

func truncateWithMarker(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "\n... (truncated)"
}

// Scan window multipliers for the three sampling strategies.
const (
	mergeScanFactor     = 3
	diversityScanFactor = 4
	fallbackScanFactor  = 3
)

var (
	// botSubjectPattern matches automation-generated subjects.
	botSubjectPattern = regexp.MustCompile(
		`(?i)dependabot|renovate|greenkeeper|snyk-bot|github-actions|\[bot\]|\[skip ci\]|\[ci skip\]|^bump `)

	// mergeBoilerplatePattern matches subjects that carry no descriptive
	// content beyond the merge itself.
	mergeBoilerplatePattern = regexp.MustCompile(
		`(?i)^merge pull request #\d+ from |\(#\d+\)$|^merge branch ['"].+['"]|^merge remote-tracking branch `)

	// authorBodyLinePattern matches body first lines that are attribution
	// trailers rather than descriptive titles.
	authorBodyLinePattern = regexp.MustCompile(`(?i)^(co-authored-by|signed-off-by|reviewed-by|authored-by):`)
)

// subjectSet accumulates commit subjects with case-sensitive exact-string
// deduplication, preserving insertion order and refusing additions once the
// target is reached.
type subjectSet struct {
	target  int
	seen    map[string]struct{}
	ordered []string
}

func newSubjectSet(target int) *subjectSet {
	return &subjectSet{
		target: target,
		seen:   make(map[string]struct{}),
	}
}

func (s *subjectSet) add(subject string) {
	subject = strings.TrimSpace(subject)
	if subject == "" || s.full() {
		return
	}
	if _, ok := s.seen[subject]; ok {
		return
	}
	s.seen[subject] = struct{}{}
	s.ordered = append(s.ordered, subject)
}

func (s *subjectSet) full() bool {
	return len(s.ordered) >= s.target
}

// sampleRecentCommits folds the three sampling strategies into a single
// accumulating set: merge-derived subjects first, then an author/branch
// diversity pass, then plain recency. Each strategy fails soft.
func (c *Collector) sampleRecentCommits(ctx context.Context, target int) []string {
	set := newSubjectSet(target)
	strategies := []func(context.Context, int, *subjectSet){
		c.sampleMergeSubjects,
		c.sampleDiverseSubjects,
		c.sampleFallbackSubjects,
	}
	for _, strategy := range strategies {
		if set.full() {
			break
		}
		strategy(ctx, target, set)
	}
	return set.ordered
}

// sampleMergeSubjects scans recent merge commits. Bot merges are skipped;
// when the merge body has a descriptive first line it is preferred over the
// merge subject, and pure merge boilerplate is dropped.
func (c *Collector) sampleMergeSubjects(ctx context.Context, target int, set *subjectSet) {
	out, _, _, err := c.runner.Run(ctx, "git", "log", "--all", "--merges",
		"--pretty=format:%s|%b", "-n", strconv.Itoa(mergeScanFactor*target))
	if err != nil {
		c.logger.Debug(ctx, "merge sampling unavailable", map[string]interface{}{"error": err.Error()})
		return
	}
	for _, line := range strings.Split(out, "\n") {
		if set.full() {
			return
		}
		line = strings.TrimSpace(line)
		// Body continuation lines carry no separator and are not records.
		if line == "" || !strings.Contains(line, "|") {
			continue
		}
		parts := strings.SplitN(line, "|", 2)
		subject := strings.TrimSpace(parts[0])
		if subject == "" || botSubjectPattern.MatchString(subject) {
			continue
		}
		candidate := subject
		if bodyFirst := strings.TrimSpace(firstLine(parts[1])); bodyFirst != "" && !authorBodyLinePattern.MatchString(bodyFirst) {
			candidate = bodyFirst
		}
		if botSubjectPattern.MatchString(candidate) || mergeBoilerplatePattern.MatchString(candidate) {
			continue
		}
		set.add(candidate)
	}
}

// sampleDiverseSubjects greedily keeps a commit when its author is not yet
// represented, when it references a not-yet-seen upstream branch ref, or
// when the accumulator is still empty.
func (c *Collector) sampleDiverseSubjects(ctx context.Context, target int, set *subjectSet) {
	out, _, _, err := c.runner.Run(ctx, "git", "log", "--all",
		"--pretty=format:%s|%an|%D", "--no-merges", "-n", strconv.Itoa(diversityScanFactor*target))
	if err != nil {
		c.logger.Debug(ctx, "diversity sampling unavailable", map[string]interface{}{"error": err.Error()})
		return
	}
	seenAuthors := make(map[string]struct{})
	seenRefs := make(map[string]struct{})
	for _, line := range strings.Split(out, "\n") {
		if set.full() {
			return
		}
		subject, author, decorations, ok := splitDiversityRecord(line)
		if !ok {
			continue
		}
		refs := upstreamBranchRefs(decorations)

		keep := len(set.ordered) == 0
		if _, ok := seenAuthors[author]; !ok && author != "" {
			keep = true
		}
		for _, ref := range refs {
			if _, ok := seenRefs[ref]; !ok {
				keep = true
				break
			}
		}
		if !keep {
			continue
		}
		set.add(subject)
		if author != "" {
			seenAuthors[author] = struct{}{}
		}
		for _, ref := range refs {
			seenRefs[ref] = struct{}{}
		}
	}
}

// sampleFallbackSubjects keeps any non-automated subject in recency order.
func (c *Collector) sampleFallbackSubjects(ctx context.Context, target int, set *subjectSet) {
	out, _, _, err := c.runner.Run(ctx, "git", "log", "--all",
		"--pretty=format:%s", "--no-merges", "-n", strconv.Itoa(fallbackScanFactor*target))
	if err != nil {
		c.logger.Debug(ctx, "fallback sampling unavailable", map[string]interface{}{"error": err.Error()})
		return
	}
	for _, line := range strings.Split(out, "\n") {
		if set.full() {
			return
		}
		subject := strings.TrimSpace(line)
		if subject == "" || botSubjectPattern.MatchString(subject) {
			continue
		}
		set.add(subject)
	}
}

// splitDiversityRecord parses a "%s|%an|%D" line from the right so subjects
// containing '|' stay intact.
func splitDiversityRecord(line string) (subject, author, decorations string, ok bool) {
	line = strings.TrimRight(line, "\r")
	last := strings.LastIndex(line, "|")
	if last < 0 {
		return "", "", "", false
	}
	decorations = line[last+1:]
	rest := line[:last]
	mid := strings.LastIndex(rest, "|")
	if mid < 0 {
		return "", "", "", false
	}
	author = strings.TrimSpace(rest[mid+1:])
	subject = strings.TrimSpace(rest[:mid])
	if subject == "" {
		return "", "", "", false
	}
	return subject, author, decorations, true
}

// upstreamBranchRefs extracts remote-tracking refs (origin/main and the
// like) from a %D decoration list.
func upstreamBranchRefs(decorations string) []string {
	var refs []string
	for _, entry := range strings.Split(decorations, ",") {
		entry = strings.TrimSpace(entry)
		entry = strings.TrimPrefix(entry, "HEAD -> ")
		if entry == "" || strings.HasPrefix(entry, "tag:") {
			continue
		}
		if strings.Contains(entry, "/") {
			refs = append(refs, entry)
		}
	}
	return refs
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return s[:idx]
	}
	return s
}

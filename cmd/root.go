// Package cmd provides the CLI commands for gitdraft.
package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gitdraft/gitdraft/internal/domain"
)

// Logger defines the logging interface used by the command.
type Logger interface {
	Info(ctx context.Context, msg string, fields map[string]interface{})
	Debug(ctx context.Context, msg string, fields map[string]interface{})
	Warn(ctx context.Context, msg string, fields map[string]interface{})
	Error(ctx context.Context, msg string, err error, fields map[string]interface{})
}

// Dependencies holds all injectable dependencies for the command.
// This enables testing by allowing mock implementations to be injected.
type Dependencies struct {
	// LoggerFactory creates a logger instance.
	LoggerFactory func() Logger

	// ConfigLoader loads application configuration.
	ConfigLoader func() (*domain.Configuration, error)

	// ShellRunnerFactory creates a ShellRunner rooted at the given path.
	ShellRunnerFactory func(path string, log Logger) domain.ShellRunner

	// CollectorFactory creates a ContextCollector for the given path.
	CollectorFactory func(path string, runner domain.ShellRunner, cfg *domain.Configuration, log Logger) domain.ContextCollector

	// ProviderFactory creates the model provider from the configuration.
	ProviderFactory func(cfg *domain.Configuration, log Logger) (domain.Provider, error)

	// InvokerFactory creates the deadline-enforcing invoker.
	InvokerFactory func(log Logger) domain.Invoker

	// DisplayFactory creates the display sink writing to out.
	DisplayFactory func(out io.Writer) domain.DisplaySink

	// GeneratorFactory creates the generation orchestrator.
	GeneratorFactory func(
		collector domain.ContextCollector,
		prov domain.Provider,
		invoker domain.Invoker,
		display domain.DisplaySink,
		cfg *domain.Configuration,
		log Logger,
	) domain.Generator

	// Stdin is the reader for interactive input.
	Stdin io.Reader

	// Stdout is the writer for standard output (candidates, prompts).
	Stdout io.Writer

	// Stderr is the writer for standard error (warnings/errors).
	Stderr io.Writer
}

// Command-line flags.
var (
	dryRun     bool
	autoCommit bool
	noRedact   bool
	verbose    bool
)

// defaultDeps holds the production dependencies.
// This is set by the production wiring in main or via SetDefaultDependencies.
var defaultDeps *Dependencies

// SetDefaultDependencies sets the default dependencies for production use.
// This should be called from main() before Execute().
func SetDefaultDependencies(deps *Dependencies) {
	defaultDeps = deps
}

// NewRootCmd creates the root command for gitdraft.
func NewRootCmd() *cobra.Command {
	return NewRootCmdWithDeps(defaultDeps)
}

// NewRootCmdWithDeps creates the root command with explicit dependencies.
// This is the primary constructor that enables testing via dependency injection.
func NewRootCmdWithDeps(deps *Dependencies) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "gitdraft [path]",
		Short: "Generate commit messages for staged changes using a language model",
		Long: `gitdraft reads the staged diff, branch and recent commit history from a
local Git repository, asks the configured model provider for commit message
candidates, and lets you pick one interactively.

Sensitive values in the diff (keys, tokens, passwords, emails) are redacted
before anything leaves the machine unless --no-redact is given.

Examples:
  # Generate candidates for the current directory
  gitdraft

  # Generate for a specific repository
  gitdraft /path/to/repo

  # Review the exact prompt before it is sent
  gitdraft --dry-run

  # Commit the selected message directly
  gitdraft --commit`,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, args, deps)
		},
	}

	// Define flags
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false,
		"Show the rendered prompt and confirm before sending it")
	rootCmd.Flags().BoolVar(&autoCommit, "commit", false,
		"Run 'git commit -m' with the selected message")
	rootCmd.Flags().BoolVar(&noRedact, "no-redact", false,
		"Disable sensitive-data redaction of the staged diff")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false,
		"Enable verbose/debug logging")

	return rootCmd
}

// runGenerate executes the generation flow with injected dependencies.
func runGenerate(cmd *cobra.Command, args []string, deps *Dependencies) error {
	if deps == nil {
		return errors.New("dependencies not configured")
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	// Determine repository path
	repoPath := "."
	if len(args) > 0 {
		repoPath = args[0]
	}

	stdin := deps.Stdin
	if stdin == nil {
		stdin = os.Stdin
	}
	stdout := deps.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	stderr := deps.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}

	// Set log level based on verbose flag (best-effort)
	if verbose {
		if err := os.Setenv("LOG_LEVEL", "debug"); err != nil {
			writeWarningf(stderr, "warning: could not set log level: %v\n", err)
		}
	}

	// Initialize logger
	log := deps.LoggerFactory()

	log.Info(ctx, "starting gitdraft", map[string]interface{}{
		"path":    repoPath,
		"dry_run": dryRun,
		"commit":  autoCommit,
		"verbose": verbose,
	})

	// Load configuration
	cfg, err := deps.ConfigLoader()
	if err != nil {
		log.Error(ctx, "failed to load configuration", err, nil)
		return fmt.Errorf("configuration error: %w", err)
	}
	if noRedact {
		cfg.RedactSensitiveData = false
	}

	runner := deps.ShellRunnerFactory(repoPath, log)
	collector := deps.CollectorFactory(repoPath, runner, cfg, log)

	// Environment checks before any model work
	if err := collector.Preflight(ctx); err != nil {
		log.Error(ctx, "preflight failed", err, map[string]interface{}{"path": repoPath})
		if errors.Is(err, domain.ErrGitNotInstalled) {
			return fmt.Errorf("git is not installed or not on PATH")
		}
		if errors.Is(err, domain.ErrNotARepository) {
			return fmt.Errorf("not a git repository: %s", repoPath)
		}
		return err
	}

	gc, err := collector.Collect(ctx, cfg.RedactSensitiveData)
	if err != nil {
		log.Error(ctx, "failed to collect git context", err, nil)
		return err
	}
	if len(gc.StagedFiles) == 0 {
		return fmt.Errorf("%w: stage files with 'git add' first", domain.ErrNoStagedChanges)
	}

	display := deps.DisplayFactory(stdout)

	prov, err := deps.ProviderFactory(cfg, log)
	if err != nil {
		log.Error(ctx, "failed to initialize provider", err, map[string]interface{}{
			"provider": cfg.Provider,
			"model":    cfg.Model,
		})
		return fmt.Errorf("provider error: %w", err)
	}

	invoker := deps.InvokerFactory(log)
	gen := deps.GeneratorFactory(collector, prov, invoker, display, cfg, log)

	input := bufio.NewScanner(stdin)

	if dryRun {
		prompt, err := gen.RenderPrompt(gc)
		if err != nil {
			return err
		}
		if err := display.Message(prompt); err != nil {
			return fmt.Errorf("output error: %w", err)
		}
		if err := display.Prompt(fmt.Sprintf("Send this prompt to %s? [y/N] ", prov.Name())); err != nil {
			return fmt.Errorf("output error: %w", err)
		}
		answer, ok := readLine(input)
		if !ok || !isAffirmative(answer) {
			return display.Message("Aborted.")
		}
	}

	return selectionLoop(ctx, gen, collector, runner, display, log, cfg, gc, input)
}

// selectionLoop generates candidates and drives the pick/regenerate/refresh
// prompt until a selection, a quit, or the iteration ceiling.
func selectionLoop(
	ctx context.Context,
	gen domain.Generator,
	collector domain.ContextCollector,
	runner domain.ShellRunner,
	display domain.DisplaySink,
	log Logger,
	cfg *domain.Configuration,
	gc *domain.GitContext,
	input *bufio.Scanner,
) error {
	attempts := 0
	needGenerate := true
	var out *domain.GenerateOutput

	for iter := 0; iter < cfg.MaxInteractiveIterations; iter++ {
		if needGenerate {
			generated, err := gen.Generate(ctx, domain.GenerateInput{
				Context:              gc,
				RegenerationAttempts: attempts,
			})
			if err != nil {
				if errors.Is(err, domain.ErrTimeout) {
					return fmt.Errorf("the model did not answer in time; try again or switch providers: %w", err)
				}
				return err
			}
			out = generated
			gc = out.Context
			if out.Usage != nil {
				log.Info(ctx, "token usage", map[string]interface{}{
					"prompt_tokens":     out.Usage.PromptTokens,
					"completion_tokens": out.Usage.CompletionTokens,
					"total_tokens":      out.Usage.TotalTokens,
				})
			}
			if err := display.Candidates(out.Candidates); err != nil {
				return fmt.Errorf("output error: %w", err)
			}
			needGenerate = false
		}

		prompt := fmt.Sprintf("Pick 1-%d, r to regenerate, f to refresh context, q to quit: ", len(out.Candidates))
		if err := display.Prompt(prompt); err != nil {
			return fmt.Errorf("output error: %w", err)
		}
		line, ok := readLine(input)
		if !ok {
			// EOF on stdin ends the session without a selection.
			return nil
		}

		switch choice := strings.ToLower(strings.TrimSpace(line)); choice {
		case "q", "quit":
			return display.Message("No commit message selected.")
		case "r":
			attempts++
			needGenerate = true
		case "f":
			fresh, err := collector.Collect(ctx, cfg.RedactSensitiveData)
			if err != nil {
				return err
			}
			if len(fresh.StagedFiles) == 0 {
				return fmt.Errorf("%w: staging area is now empty", domain.ErrNoStagedChanges)
			}
			gc = fresh
			attempts = 0
			needGenerate = true
		default:
			n, err := strconv.Atoi(choice)
			if err != nil || n < 1 || n > len(out.Candidates) {
				if warnErr := display.Warning(fmt.Sprintf("enter a number between 1 and %d, r, f or q", len(out.Candidates))); warnErr != nil {
					return fmt.Errorf("output error: %w", warnErr)
				}
				continue
			}
			if err := display.Message(sessionReport(ctx, collector, gc, out.Usage)); err != nil {
				return fmt.Errorf("output error: %w", err)
			}
			return finishSelection(ctx, runner, display, log, out.Candidates[n-1])
		}
	}

	return fmt.Errorf("interactive session exceeded %d iterations without a selection", cfg.MaxInteractiveIterations)
}

// sessionReport is the closing line printed once a candidate is selected.
func sessionReport(ctx context.Context, collector domain.ContextCollector, gc *domain.GitContext, usage *domain.TokenUsage) string {
	branch := gc.Branch
	if branch == "" {
		branch = "unknown"
	}
	report := fmt.Sprintf("branch: %s | author: %s", branch, collector.AuthorIdentity(ctx))
	if usage != nil {
		report += fmt.Sprintf(" | tokens: %d", usage.TotalTokens)
	}
	return report
}

// finishSelection either commits with the chosen message or echoes it for
// the user to commit themselves.
func finishSelection(ctx context.Context, runner domain.ShellRunner, display domain.DisplaySink, log Logger, message string) error {
	if !autoCommit {
		return display.Message(message)
	}

	stdout, stderr, exitCode, err := runner.Run(ctx, "git", "commit", "-m", message)
	if err != nil || exitCode != 0 {
		log.Error(ctx, "git commit failed", err, map[string]interface{}{
			"exit_code": exitCode,
			"stderr":    strings.TrimSpace(stderr),
		})
		return fmt.Errorf("git commit failed: %s", strings.TrimSpace(stderr))
	}
	return display.Message(strings.TrimSpace(stdout))
}

// Execute runs the root command.
func Execute() {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func readLine(s *bufio.Scanner) (string, bool) {
	if !s.Scan() {
		return "", false
	}
	return s.Text(), true
}

func isAffirmative(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	return false
}

// writeWarningf writes a warning message to the given writer.
// This is a best-effort operation; errors are intentionally ignored
// because there is no recovery action if stderr writes fail.
func writeWarningf(w io.Writer, format string, args ...any) {
	_, err := fmt.Fprintf(w, format, args...)
	if err != nil {
		// Intentionally ignored: no recovery action for failed stderr writes
		return
	}
}

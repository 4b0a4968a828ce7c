// Package shell provides an adapter for running external commands.
// It implements the domain.ShellRunner interface using os/exec.
package shell

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
)

// Logger defines the logging interface for the shell adapter.
type Logger interface {
	Debug(ctx context.Context, msg string, fields map[string]interface{})
}

// Runner executes commands in a fixed working directory.
type Runner struct {
	dir    string
	logger Logger
}

// NewRunner creates a Runner that executes commands with dir as the working
// directory. An empty dir means the process working directory.
func NewRunner(dir string, log Logger) *Runner {
	return &Runner{dir: dir, logger: log}
}

// Run executes name with args and returns captured stdout, stderr and the
// exit code. A non-zero exit is reported both through exitCode and err;
// a command that could not be started yields exit code -1.
func (r *Runner) Run(ctx context.Context, name string, args ...string) (string, string, int, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = r.dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	exitCode := 0
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		} else {
			exitCode = -1
		}
	}

	r.logger.Debug(ctx, "ran command", map[string]interface{}{
		"command":   name,
		"args":      strings.Join(args, " "),
		"exit_code": exitCode,
	})

	return stdout.String(), stderr.String(), exitCode, err
}

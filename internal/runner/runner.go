// Package runner executes external OS commands on behalf of tool handlers
// and captures their text output. It is the only place in winbridge that
// spawns child processes.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DefaultTimeout bounds a single external command invocation unless the
// server is configured otherwise.
const DefaultTimeout = 30 * time.Second

// CommandRunner runs a single external command and returns its captured
// standard output. Implementations must honor context cancellation.
// A non-zero exit is reported as an error carrying the process's own
// diagnostic text verbatim.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) (string, error)
	RunPowerShell(ctx context.Context, script string) (string, error)
}

// Runner is the exec-backed CommandRunner used in production.
type Runner struct {
	logger  *zap.Logger
	timeout time.Duration
}

// Option configures a Runner.
type Option func(*Runner)

// WithTimeout overrides the per-invocation timeout.
func WithTimeout(d time.Duration) Option {
	return func(r *Runner) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// New creates a Runner that logs each invocation through the given logger.
func New(logger *zap.Logger, opts ...Option) *Runner {
	r := &Runner{
		logger:  logger,
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes a single command with the configured timeout and returns its
// captured stdout. On failure the error message preserves whatever the
// process wrote to stderr (or stdout, if stderr is empty) so callers can
// propagate the underlying diagnostic unchanged.
func (r *Runner) Run(ctx context.Context, name string, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	started := time.Now()

	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	r.logger.Debug("external command finished",
		zap.String("command", name),
		zap.Duration("elapsed", time.Since(started)),
		zap.Bool("failed", err != nil),
	)

	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("command %s timed out after %s", name, r.timeout)
		}
		return "", fmt.Errorf("command %s failed: %s", name, commandDiagnostic(err, &stderr, &stdout))
	}
	return stdout.String(), nil
}

// RunPowerShell executes a PowerShell snippet in a fresh, non-interactive
// session. The profile is skipped so output stays deterministic.
func (r *Runner) RunPowerShell(ctx context.Context, script string) (string, error) {
	return r.Run(ctx, "powershell.exe", "-NoProfile", "-NonInteractive", "-Command", script)
}

// commandDiagnostic picks the most useful failure text: the process's own
// stderr first, then stdout, then the Go-level exec error.
func commandDiagnostic(err error, stderr, stdout *bytes.Buffer) string {
	if msg := strings.TrimSpace(stderr.String()); msg != "" {
		return msg
	}
	if msg := strings.TrimSpace(stdout.String()); msg != "" {
		return msg
	}
	return err.Error()
}

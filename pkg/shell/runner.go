package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	macerrors "github.com/arthur-debert/macsetup/pkg/errors"
	"github.com/arthur-debert/macsetup/pkg/logging"
	"github.com/rs/zerolog"
)

// Exit codes reported for commands that did not exit on their own
const (
	// ExitTimeout matches the code coreutils timeout(1) uses
	ExitTimeout = 124
	// ExitNotStarted is reported when the process could not be started
	ExitNotStarted = -1
)

// waitDelay bounds how long Run waits for output pipes after the process is
// killed, since grandchildren may keep them open.
const waitDelay = 2 * time.Second

// checkTimeout bounds read-only queries
const checkTimeout = time.Minute

// Result is the captured outcome of a command
type Result struct {
	Command  string
	Stdout   string
	Stderr   string
	ExitCode int
	TimedOut bool
	DryRun   bool
	Duration time.Duration
}

// Runner executes external commands
type Runner interface {
	// Run executes name with args. A zero timeout means no limit. A non-zero
	// exit returns both the populated Result and an error.
	Run(ctx context.Context, name string, args []string, timeout time.Duration) (Result, error)
	// Check executes a command that has no side effects. It runs even in
	// dry-run mode so that a dry run sees the real state of the machine.
	Check(ctx context.Context, name string, args ...string) (Result, error)
	// RunDry reports an action that would have been performed
	RunDry(description string)
	// DryRun reports whether Run is replaced by RunDry
	DryRun() bool
}

// Options configures an ExecRunner
type Options struct {
	DryRun bool
	// Out receives "would execute" lines. Defaults to os.Stdout.
	Out io.Writer
	// Stdin is attached to every command when set
	Stdin  io.Reader
	Dir    string
	Env    []string
	Logger zerolog.Logger
	// Detached names commands that run in their own process group without
	// stdin, so a Ctrl-C at the terminal reaches macsetup but not them.
	Detached []string
}

// ExecRunner runs commands with os/exec
type ExecRunner struct {
	dryRun   bool
	out      io.Writer
	stdin    io.Reader
	dir      string
	env      []string
	detached map[string]bool
	logger   zerolog.Logger
}

// New creates an ExecRunner
func New(opts Options) *ExecRunner {
	logger := opts.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = logging.GetLogger("shell")
	}
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	detached := make(map[string]bool, len(opts.Detached))
	for _, name := range opts.Detached {
		detached[name] = true
	}
	return &ExecRunner{
		dryRun:   opts.DryRun,
		out:      out,
		stdin:    opts.Stdin,
		dir:      opts.Dir,
		env:      opts.Env,
		detached: detached,
		logger:   logger,
	}
}

// DryRun reports whether commands are only described
func (r *ExecRunner) DryRun() bool {
	return r.dryRun
}

// RunDry prints and logs a would-be action
func (r *ExecRunner) RunDry(description string) {
	logging.WouldDo(r.logger, description)
	_, _ = fmt.Fprintf(r.out, "would execute: %s\n", description)
}

// Run executes the command, or describes it in dry-run mode
func (r *ExecRunner) Run(ctx context.Context, name string, args []string, timeout time.Duration) (Result, error) {
	if r.dryRun {
		command := Describe(name, args)
		r.RunDry(command)
		return Result{Command: command, DryRun: true}, nil
	}
	return r.execute(ctx, name, args, timeout)
}

// Check executes a read-only query, also in dry-run mode
func (r *ExecRunner) Check(ctx context.Context, name string, args ...string) (Result, error) {
	return r.execute(ctx, name, args, checkTimeout)
}

func (r *ExecRunner) execute(ctx context.Context, name string, args []string, timeout time.Duration) (Result, error) {
	command := Describe(name, args)
	runCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, name, args...)
	cmd.Dir = r.dir
	if len(r.env) > 0 {
		cmd.Env = append(os.Environ(), r.env...)
	}
	switch {
	case r.detached[name]:
		detach(cmd)
	case r.stdin != nil:
		cmd.Stdin = r.stdin
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay

	logging.LogCommand(r.logger, name, args)
	start := time.Now()
	err := cmd.Run()

	result := Result{
		Command:  command,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	switch {
	case err == nil:
		r.logger.Debug().
			Str("command", command).
			Dur("duration", result.Duration).
			Msg("Command finished")
		return result, nil

	case timeout > 0 && errors.Is(runCtx.Err(), context.DeadlineExceeded):
		result.ExitCode = ExitTimeout
		result.TimedOut = true
		r.logger.Warn().
			Str("command", command).
			Dur("timeout", timeout).
			Msg("Command timed out")
		return result, macerrors.Wrapf(err, macerrors.ErrCommandTimeout, "%s timed out after %s", name, timeout)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		result.ExitCode = exitErr.ExitCode()
	} else {
		result.ExitCode = ExitNotStarted
	}

	r.logger.Debug().
		Str("command", command).
		Int("exit_code", result.ExitCode).
		Str("stderr", Tail(result.Stderr, 5)).
		Msg("Command failed")

	failure := &macerrors.Error{
		Code:    macerrors.ErrCommandFailed,
		Message: fmt.Sprintf("%s exited with code %d", name, result.ExitCode),
		Details: map[string]interface{}{},
		Wrapped: err,
	}
	return result, failure.WithDetail("exit_code", result.ExitCode).WithDetail("stderr", result.Stderr)
}

// Describe renders a command line for logs and dry-run output
func Describe(name string, args []string) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, name)
	for _, arg := range args {
		if arg == "" || strings.ContainsAny(arg, " \t\"'") {
			arg = fmt.Sprintf("%q", arg)
		}
		parts = append(parts, arg)
	}
	return strings.Join(parts, " ")
}

// Tail returns the last n non-empty lines of s
func Tail(s string, n int) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		if strings.TrimSpace(line) != "" {
			kept = append(kept, line)
		}
	}
	if len(kept) > n {
		kept = kept[len(kept)-n:]
	}
	return strings.Join(kept, "\n")
}

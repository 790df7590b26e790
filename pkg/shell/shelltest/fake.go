// Package shelltest provides a scripted shell.Runner for tests.
package shelltest

import (
	"context"
	"strings"
	"sync"
	"time"

	macerrors "github.com/arthur-debert/macsetup/pkg/errors"
	"github.com/arthur-debert/macsetup/pkg/shell"
)

// Response is the scripted outcome of a command
type Response struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Fake records commands instead of executing them. Commands are matched by
// their shell.Describe form; unscripted commands succeed with no output.
type Fake struct {
	mu        sync.Mutex
	dryRun    bool
	responses map[string]Response
	runs      []string
	checks    []string
	dry       []string
}

// New returns a Fake. In dry-run mode Run records to Dry and only Check
// consults the scripted responses.
func New(dryRun bool) *Fake {
	return &Fake{dryRun: dryRun, responses: make(map[string]Response)}
}

// On scripts the response for a command
func (f *Fake) On(command string, resp Response) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[command] = resp
	return f
}

// Fail scripts a command to exit with code 1 and the given stderr
func (f *Fake) Fail(command, stderr string) *Fake {
	return f.On(command, Response{ExitCode: 1, Stderr: stderr})
}

// Run implements shell.Runner
func (f *Fake) Run(ctx context.Context, name string, args []string, timeout time.Duration) (shell.Result, error) {
	command := shell.Describe(name, args)
	if f.dryRun {
		f.RunDry(command)
		return shell.Result{Command: command, DryRun: true}, nil
	}
	f.mu.Lock()
	f.runs = append(f.runs, command)
	f.mu.Unlock()
	return f.respond(command)
}

// Check implements shell.Runner
func (f *Fake) Check(ctx context.Context, name string, args ...string) (shell.Result, error) {
	command := shell.Describe(name, args)
	f.mu.Lock()
	f.checks = append(f.checks, command)
	f.mu.Unlock()
	return f.respond(command)
}

// RunDry implements shell.Runner
func (f *Fake) RunDry(description string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dry = append(f.dry, description)
}

// DryRun implements shell.Runner
func (f *Fake) DryRun() bool { return f.dryRun }

// Runs returns the commands Run executed, in order
func (f *Fake) Runs() []string { return f.snapshot(&f.runs) }

// Checks returns the queries Check executed, in order
func (f *Fake) Checks() []string { return f.snapshot(&f.checks) }

// Dry returns the descriptions reported in dry-run mode
func (f *Fake) Dry() []string { return f.snapshot(&f.dry) }

// Ran reports whether Run executed a command starting with prefix
func (f *Fake) Ran(prefix string) bool {
	for _, c := range f.Runs() {
		if strings.HasPrefix(c, prefix) {
			return true
		}
	}
	return false
}

func (f *Fake) snapshot(list *[]string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), *list...)
}

func (f *Fake) respond(command string) (shell.Result, error) {
	f.mu.Lock()
	resp := f.responses[command]
	f.mu.Unlock()

	result := shell.Result{
		Command:  command,
		Stdout:   resp.Stdout,
		Stderr:   resp.Stderr,
		ExitCode: resp.ExitCode,
	}
	if resp.ExitCode != 0 {
		err := macerrors.Newf(macerrors.ErrCommandFailed, "%s exited with code %d", command, resp.ExitCode).
			WithDetail("exit_code", resp.ExitCode).
			WithDetail("stderr", resp.Stderr)
		return result, err
	}
	return result, nil
}

var _ shell.Runner = (*Fake)(nil)

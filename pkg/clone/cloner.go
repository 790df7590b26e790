package clone

import (
	"context"
	"time"

	"github.com/arthur-debert/macsetup/pkg/shell"
)

// Cloner performs a single clone into target
type Cloner interface {
	Clone(ctx context.Context, task Task, target string, timeout time.Duration) (shell.Result, error)
}

// GitCloner clones with the git binary through a shell.Runner
type GitCloner struct {
	runner shell.Runner
}

// NewGitCloner returns a cloner running git through runner
func NewGitCloner(runner shell.Runner) *GitCloner {
	return &GitCloner{runner: runner}
}

// Clone runs git clone, checking out task.Branch when set
func (c *GitCloner) Clone(ctx context.Context, task Task, target string, timeout time.Duration) (shell.Result, error) {
	return c.runner.Run(ctx, "git", CloneArgs(task, target), timeout)
}

// CloneArgs returns the git arguments for task
func CloneArgs(task Task, target string) []string {
	args := []string{"clone"}
	if task.Branch != "" {
		args = append(args, "--branch", task.Branch)
	}
	return append(args, "--", task.CloneURL, target)
}

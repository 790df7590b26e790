package clone

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/arthur-debert/macsetup/pkg/errors"
	"github.com/arthur-debert/macsetup/pkg/filesystem"
	"github.com/arthur-debert/macsetup/pkg/logging"
	"github.com/arthur-debert/macsetup/pkg/shell"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"golang.org/x/sync/semaphore"
)

// Observer is notified from worker goroutines; implementations must be safe
// for concurrent use.
type Observer interface {
	TaskStarted(t Task)
	TaskFinished(t Task)
}

// Options configures a Scheduler
type Options struct {
	MaxParallel int
	// Timeout bounds each clone; zero means no limit
	Timeout  time.Duration
	DryRun   bool
	Observer Observer
}

// Scheduler clones tasks with bounded parallelism
type Scheduler struct {
	cloner Cloner
	fs     afero.Fs
	opts   Options
	logger zerolog.Logger
}

// NewScheduler validates opts and returns a scheduler
func NewScheduler(cloner Cloner, fs afero.Fs, opts Options) (*Scheduler, error) {
	if cloner == nil {
		return nil, errors.New(errors.ErrInvalidInput, "cloner is nil")
	}
	if fs == nil {
		return nil, errors.New(errors.ErrInvalidInput, "filesystem is nil")
	}
	if opts.MaxParallel < 1 {
		return nil, errors.Newf(errors.ErrInvalidInput, "parallelism must be >= 1, got %d", opts.MaxParallel)
	}
	return &Scheduler{
		cloner: cloner,
		fs:     fs,
		opts:   opts,
		logger: logging.GetLogger("clone"),
	}, nil
}

type outcome struct {
	index int
	task  Task
}

// Run clones every task and returns once all dispatched clones have finished.
// The input slice is not modified. Cancelling ctx stops dispatch: clones in
// flight run to completion under their own timeout and tasks never dispatched
// end Failed with reason "cancelled".
func (s *Scheduler) Run(ctx context.Context, tasks []Task) Result {
	out := make([]Task, len(tasks))
	copy(out, tasks)

	queue := s.plan(out)

	s.logger.Info().
		Int("tasks", len(out)).
		Int("queued", len(queue)).
		Int("parallel", s.opts.MaxParallel).
		Dur("timeout", s.opts.Timeout).
		Bool("dry_run", s.opts.DryRun).
		Msg("Starting clones")

	sem := semaphore.NewWeighted(int64(s.opts.MaxParallel))
	results := make(chan outcome, len(queue))
	workCtx := context.WithoutCancel(ctx)

	var wg sync.WaitGroup
	dispatched := 0
	for _, i := range queue {
		if ctx.Err() != nil {
			break
		}
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		dispatched++

		wg.Add(1)
		go func(i int, task Task) {
			defer wg.Done()
			defer sem.Release(1)
			defer func() {
				if r := recover(); r != nil {
					task.Status = Failed
					task.Reason = fmt.Sprintf("panic: %v", r)
					results <- outcome{index: i, task: task}
				}
			}()
			results <- outcome{index: i, task: s.clone(workCtx, task)}
		}(i, out[i])
	}

	for _, i := range queue[dispatched:] {
		cancelled(&out[i])
	}

	wg.Wait()
	close(results)
	for r := range results {
		out[r.index] = r.task
	}

	res := summarize(out)
	s.logger.Info().
		Int("succeeded", res.Succeeded).
		Int("failed", res.Failed).
		Int("already_present", res.AlreadyPresent).
		Int("would_clone", res.WouldClone).
		Int("cancelled", res.Cancelled).
		Msg("Clones finished")
	return res
}

// plan settles tasks that need no clone and returns the indexes to dispatch
func (s *Scheduler) plan(out []Task) []int {
	var queue []int
	targets := make(map[string]string, len(out))

	for i := range out {
		t := &out[i]
		t.Status = Pending
		t.AlreadyPresent = false
		t.WouldClone = false
		t.Reason = ""
		t.Diagnostic = nil

		target := t.Target()
		if owner, dup := targets[target]; dup {
			t.Status = Failed
			t.Reason = fmt.Sprintf("target %s is also the target of %s", target, owner)
			continue
		}
		targets[target] = t.CloneURL

		if s.present(*t) {
			t.Status = Succeeded
			t.AlreadyPresent = true
			s.logger.Debug().Str("repository", t.RepoName).Str("target", target).Msg("Already cloned")
			continue
		}

		if s.opts.DryRun {
			t.Status = Succeeded
			t.WouldClone = true
			logging.WouldDo(s.logger, shell.Describe("git", CloneArgs(*t, target)))
			continue
		}

		queue = append(queue, i)
	}
	return queue
}

func (s *Scheduler) clone(ctx context.Context, task Task) Task {
	task.Status = Running
	if s.opts.Observer != nil {
		s.opts.Observer.TaskStarted(task)
	}

	target := task.Target()
	command := shell.Describe("git", CloneArgs(task, target))
	log := s.logger.With().Str("repository", task.RepoName).Str("target", target).Logger()

	if err := s.fs.MkdirAll(task.Destination, 0755); err != nil {
		task.Status = Failed
		task.Diagnostic = &Diagnostic{
			Command:     command,
			ExitCode:    shell.ExitNotStarted,
			ExitClass:   ExitError,
			Stderr:      err.Error(),
			Category:    CategoryUnknown,
			Remediation: "Check permissions on " + task.Destination,
		}
		task.Reason = "cannot create destination"
		return s.finish(task)
	}

	log.Debug().Msg("Cloning")
	result, err := s.invoke(ctx, task, target)
	if result.Command == "" {
		result.Command = command
	}

	switch {
	case err != nil || result.ExitCode != 0:
		if result.Stderr == "" && err != nil {
			result.Stderr = err.Error()
		}
		task.Status = Failed
		task.Diagnostic = Diagnose(result)
		if task.Diagnostic.ExitClass == ExitOK {
			task.Diagnostic.ExitClass = ExitError
		}
		task.Reason = string(task.Diagnostic.Category)
		log.Warn().
			Int("exit_code", result.ExitCode).
			Str("category", task.Reason).
			Str("stderr", shell.Tail(result.Stderr, 3)).
			Msg("Clone failed")

	case !s.present(task):
		task.Status = Failed
		task.Diagnostic = verificationDiagnostic(result.Command, task.Marker())
		task.Reason = string(CategoryVerification)
		log.Warn().Str("marker", task.Marker()).Msg("Clone reported success but repository is missing")

	default:
		task.Status = Succeeded
		log.Info().Dur("duration", result.Duration).Msg("Cloned")
	}

	return s.finish(task)
}

// invoke runs the cloner, turning a panic into a failed result so one bad
// clone cannot take the other workers down with it.
func (s *Scheduler) invoke(ctx context.Context, task Task, target string) (result shell.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = shell.Result{ExitCode: shell.ExitNotStarted, Stderr: fmt.Sprintf("panic: %v", r)}
			err = errors.Newf(errors.ErrInternal, "cloner panicked on %s: %v", task.RepoName, r)
		}
	}()
	return s.cloner.Clone(ctx, task, target, s.opts.Timeout)
}

func (s *Scheduler) finish(task Task) Task {
	if s.opts.Observer != nil {
		s.opts.Observer.TaskFinished(task)
	}
	return task
}

func (s *Scheduler) present(task Task) bool {
	return filesystem.Exists(s.fs, task.Marker())
}

func cancelled(t *Task) {
	t.Status = Failed
	t.Reason = string(CategoryCancelled)
	t.Diagnostic = &Diagnostic{
		ExitCode:    shell.ExitNotStarted,
		ExitClass:   ExitError,
		Category:    CategoryCancelled,
		Remediation: "Re-run to clone the remaining repositories",
	}
}

func summarize(tasks []Task) Result {
	res := Result{Tasks: tasks}
	for _, t := range tasks {
		switch {
		case t.Status == Failed:
			res.Failed++
			if t.Reason == string(CategoryCancelled) {
				res.Cancelled++
			}
		case t.AlreadyPresent:
			res.AlreadyPresent++
		case t.WouldClone:
			res.WouldClone++
		default:
			res.Succeeded++
		}
	}
	return res
}

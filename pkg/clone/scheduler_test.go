package clone

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/arthur-debert/macsetup/pkg/errors"
	"github.com/arthur-debert/macsetup/pkg/shell"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCloner creates the repository marker on fs and records concurrency
type fakeCloner struct {
	fs    afero.Fs
	delay time.Duration

	// fail maps a repository name to the result returned for it
	fail map[string]shell.Result
	// noMarker lists repositories that "succeed" without creating the marker
	noMarker map[string]bool
	// onStart runs at the start of every clone
	onStart func(task Task)

	calls    atomic.Int32
	inFlight atomic.Int32
	maxSeen  atomic.Int32

	mu      sync.Mutex
	targets []string
}

func (f *fakeCloner) Clone(ctx context.Context, task Task, target string, timeout time.Duration) (shell.Result, error) {
	f.calls.Add(1)
	now := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		seen := f.maxSeen.Load()
		if now <= seen || f.maxSeen.CompareAndSwap(seen, now) {
			break
		}
	}

	if f.onStart != nil {
		f.onStart(task)
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	f.mu.Lock()
	f.targets = append(f.targets, target)
	f.mu.Unlock()

	if res, ok := f.fail[task.RepoName]; ok {
		return res, errors.New(errors.ErrCommandFailed, "clone failed")
	}
	if !f.noMarker[task.RepoName] {
		if err := f.fs.MkdirAll(filepath.Join(target, MarkerDir), 0755); err != nil {
			return shell.Result{ExitCode: 1, Stderr: err.Error()}, err
		}
	}
	return shell.Result{Command: "git clone " + task.CloneURL}, nil
}

func makeTasks(n int, dest string) []Task {
	tasks := make([]Task, n)
	for i := range tasks {
		name := fmt.Sprintf("repo-%02d", i)
		tasks[i] = Task{
			RepoName:    name,
			Org:         "acme",
			CloneURL:    "git@github.com:acme/" + name + ".git",
			Destination: dest,
		}
	}
	return tasks
}

func newScheduler(t *testing.T, cloner Cloner, fs afero.Fs, opts Options) *Scheduler {
	t.Helper()
	s, err := NewScheduler(cloner, fs, opts)
	require.NoError(t, err)
	return s
}

func snapshot(t *testing.T, fs afero.Fs) []string {
	t.Helper()
	var entries []string
	require.NoError(t, afero.Walk(fs, "/", func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		entries = append(entries, fmt.Sprintf("%s %v %d", path, info.IsDir(), info.Size()))
		return nil
	}))
	sort.Strings(entries)
	return entries
}

func TestAllTasksSucceed(t *testing.T) {
	fs := afero.NewMemMapFs()
	cloner := &fakeCloner{fs: fs}
	s := newScheduler(t, cloner, fs, Options{MaxParallel: 3})

	res := s.Run(context.Background(), makeTasks(7, "/dev/acme"))

	assert.Equal(t, 7, res.Succeeded)
	assert.Zero(t, res.Failed)
	assert.Equal(t, int32(7), cloner.calls.Load())
	for _, task := range res.Tasks {
		assert.Equal(t, Succeeded, task.Status)
		ok, _ := afero.DirExists(fs, task.Marker())
		assert.True(t, ok, task.RepoName)
	}
}

func TestIdempotence(t *testing.T) {
	fs := afero.NewMemMapFs()
	cloner := &fakeCloner{fs: fs}
	s := newScheduler(t, cloner, fs, Options{MaxParallel: 4})
	tasks := makeTasks(6, "/dev/acme")

	first := s.Run(context.Background(), tasks)
	require.Equal(t, 6, first.Succeeded)
	require.Equal(t, int32(6), cloner.calls.Load())

	second := s.Run(context.Background(), tasks)
	assert.Equal(t, int32(6), cloner.calls.Load(), "second run must not clone")
	assert.Equal(t, 6, second.AlreadyPresent)
	for _, task := range second.Tasks {
		assert.Equal(t, Succeeded, task.Status)
		assert.True(t, task.AlreadyPresent)
	}
}

func TestBoundedConcurrency(t *testing.T) {
	for _, n := range []int{1, 2, 5, 50} {
		below := n - 1
		if below < 1 {
			below = 1
		}
		for _, count := range []int{below, n*2 + 3} {
			t.Run(fmt.Sprintf("parallel=%d tasks=%d", n, count), func(t *testing.T) {
				fs := afero.NewMemMapFs()
				cloner := &fakeCloner{fs: fs, delay: 5 * time.Millisecond}
				s := newScheduler(t, cloner, fs, Options{MaxParallel: n})

				res := s.Run(context.Background(), makeTasks(count, "/dev/acme"))

				assert.LessOrEqual(t, int(cloner.maxSeen.Load()), n)
				assert.Equal(t, count, res.Succeeded)
				assert.Zero(t, cloner.inFlight.Load())
			})
		}
	}
}

type runningObserver struct {
	mu      sync.Mutex
	running int
	max     int
	started int
	ended   int
}

func (o *runningObserver) TaskStarted(t Task) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.started++
	o.running++
	if o.running > o.max {
		o.max = o.running
	}
}

func (o *runningObserver) TaskFinished(t Task) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.ended++
	o.running--
}

func TestRunningStateNeverExceedsLimit(t *testing.T) {
	fs := afero.NewMemMapFs()
	obs := &runningObserver{}
	cloner := &fakeCloner{fs: fs, delay: 2 * time.Millisecond}
	s := newScheduler(t, cloner, fs, Options{MaxParallel: 3, Observer: obs})

	s.Run(context.Background(), makeTasks(20, "/dev/acme"))

	assert.LessOrEqual(t, obs.max, 3)
	assert.Equal(t, 20, obs.started)
	assert.Equal(t, 20, obs.ended)
	assert.Zero(t, obs.running)
}

func TestFullJoin(t *testing.T) {
	fs := afero.NewMemMapFs()
	cloner := &fakeCloner{
		fs:    fs,
		delay: 3 * time.Millisecond,
		fail: map[string]shell.Result{
			"repo-03": {ExitCode: 128, Stderr: "fatal: repository not found"},
			"repo-07": {ExitCode: 128, Stderr: "fatal: could not read Username"},
		},
	}
	s := newScheduler(t, cloner, fs, Options{MaxParallel: 4})
	tasks := makeTasks(12, "/dev/acme")

	res := s.Run(context.Background(), tasks)

	require.Len(t, res.Tasks, 12)
	for _, task := range res.Tasks {
		assert.True(t, task.Status.Terminal(), "%s is %s", task.RepoName, task.Status)
	}
	assert.Equal(t, 10, res.Succeeded)
	assert.Equal(t, 2, res.Failed)
	assert.Equal(t, res.Succeeded+res.Failed, len(tasks))

	for _, task := range tasks {
		assert.Empty(t, task.Status, "input slice must not be modified")
	}
}

func TestFailureIsIsolated(t *testing.T) {
	fs := afero.NewMemMapFs()
	cloner := &fakeCloner{
		fs: fs,
		fail: map[string]shell.Result{
			"repo-00": {Command: "git clone x", ExitCode: 128, Stderr: "fatal: Remote branch nope not found in upstream origin\n"},
		},
	}
	s := newScheduler(t, cloner, fs, Options{MaxParallel: 1})

	res := s.Run(context.Background(), makeTasks(3, "/dev/acme"))

	failed := res.FailedTasks()
	require.Len(t, failed, 1)
	d := failed[0].Diagnostic
	require.NotNil(t, d)
	assert.Equal(t, CategoryBranchNotFound, d.Category)
	assert.Equal(t, ExitFatal, d.ExitClass)
	assert.Equal(t, 128, d.ExitCode)
	assert.Equal(t, "git clone x", d.Command)
	assert.Contains(t, d.Stderr, "Remote branch")
	assert.NotEmpty(t, d.Remediation)
	assert.Equal(t, 2, res.Succeeded)
}

func TestClonerPanicFailsOnlyItsTask(t *testing.T) {
	fs := afero.NewMemMapFs()
	cloner := &fakeCloner{
		fs: fs,
		onStart: func(task Task) {
			if task.RepoName == "repo-01" {
				panic("boom")
			}
		},
	}
	s := newScheduler(t, cloner, fs, Options{MaxParallel: 2})

	res := s.Run(context.Background(), makeTasks(4, "/dev/acme"))

	assert.Equal(t, 3, res.Succeeded)
	failed := res.FailedTasks()
	require.Len(t, failed, 1)
	assert.Equal(t, "repo-01", failed[0].RepoName)
	require.NotNil(t, failed[0].Diagnostic)
	assert.Contains(t, failed[0].Diagnostic.Stderr, "boom")
	assert.Zero(t, cloner.inFlight.Load())
}

func TestDryRunPerformsNoIO(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/dev/existing", 0755))
	before := snapshot(t, fs)

	cloner := &fakeCloner{fs: fs}
	s := newScheduler(t, cloner, fs, Options{MaxParallel: 3, DryRun: true})

	res := s.Run(context.Background(), makeTasks(10, "/dev/acme"))

	assert.Equal(t, 10, res.WouldClone)
	wouldClone := 0
	for _, task := range res.Tasks {
		if task.WouldClone {
			wouldClone++
		}
		assert.Equal(t, Succeeded, task.Status)
	}
	assert.Equal(t, 10, wouldClone)
	assert.Zero(t, cloner.calls.Load())
	assert.Equal(t, before, snapshot(t, fs))
}

func TestDestinationCollision(t *testing.T) {
	fs := afero.NewMemMapFs()
	cloner := &fakeCloner{fs: fs, delay: time.Millisecond}
	s := newScheduler(t, cloner, fs, Options{MaxParallel: 2})

	tasks := []Task{
		{RepoName: "a", CloneURL: "git@github.com:x/a.git", Destination: "/dev/x/a"},
		{RepoName: "b", CloneURL: "git@github.com:x/b.git", Destination: "/dev/x/a"},
	}
	res := s.Run(context.Background(), tasks)

	assert.Equal(t, 2, res.Succeeded)
	sort.Strings(cloner.targets)
	assert.Equal(t, []string{"/dev/x/a/a", "/dev/x/a/b"}, cloner.targets)
	for _, target := range []string{"/dev/x/a/a/.git", "/dev/x/a/b/.git"} {
		ok, _ := afero.DirExists(fs, target)
		assert.True(t, ok, target)
	}
}

func TestDuplicateTargetFails(t *testing.T) {
	fs := afero.NewMemMapFs()
	cloner := &fakeCloner{fs: fs}
	s := newScheduler(t, cloner, fs, Options{MaxParallel: 2})

	tasks := []Task{
		{RepoName: "a", CloneURL: "git@github.com:x/a.git", Destination: "/dev/x"},
		{RepoName: "a", CloneURL: "git@gitlab.com:y/a.git", Destination: "/dev/x"},
	}
	res := s.Run(context.Background(), tasks)

	assert.Equal(t, Succeeded, res.Tasks[0].Status)
	assert.Equal(t, Failed, res.Tasks[1].Status)
	assert.Contains(t, res.Tasks[1].Reason, "git@github.com:x/a.git")
	assert.Equal(t, int32(1), cloner.calls.Load())
}

func TestVerificationCatch(t *testing.T) {
	fs := afero.NewMemMapFs()
	cloner := &fakeCloner{fs: fs, noMarker: map[string]bool{"repo-01": true}}
	s := newScheduler(t, cloner, fs, Options{MaxParallel: 2})

	res := s.Run(context.Background(), makeTasks(3, "/dev/acme"))

	task := res.Tasks[1]
	assert.Equal(t, Failed, task.Status)
	require.NotNil(t, task.Diagnostic)
	assert.Equal(t, CategoryVerification, task.Diagnostic.Category)
	assert.Equal(t, 0, task.Diagnostic.ExitCode)
	assert.Equal(t, 2, res.Succeeded)
	assert.Equal(t, 1, res.Failed)
}

func TestCancellationStopsDispatch(t *testing.T) {
	fs := afero.NewMemMapFs()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var once sync.Once
	cloner := &fakeCloner{
		fs:      fs,
		delay:   20 * time.Millisecond,
		onStart: func(Task) { once.Do(cancel) },
	}
	s := newScheduler(t, cloner, fs, Options{MaxParallel: 1})

	res := s.Run(ctx, makeTasks(5, "/dev/acme"))

	assert.Equal(t, int32(1), cloner.calls.Load())
	assert.Equal(t, Succeeded, res.Tasks[0].Status, "in-flight clone finishes")
	for _, task := range res.Tasks[1:] {
		assert.Equal(t, Failed, task.Status)
		assert.Equal(t, string(CategoryCancelled), task.Reason)
	}
	assert.Equal(t, 4, res.Cancelled)
}

func TestCancelledBeforeStart(t *testing.T) {
	fs := afero.NewMemMapFs()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cloner := &fakeCloner{fs: fs}
	s := newScheduler(t, cloner, fs, Options{MaxParallel: 3})
	res := s.Run(ctx, makeTasks(4, "/dev/acme"))

	assert.Zero(t, cloner.calls.Load())
	assert.Equal(t, 4, res.Cancelled)
}

func TestTimeoutIsAFailure(t *testing.T) {
	fs := afero.NewMemMapFs()
	cloner := &fakeCloner{
		fs: fs,
		fail: map[string]shell.Result{
			"repo-00": {ExitCode: shell.ExitTimeout, TimedOut: true},
		},
	}
	s := newScheduler(t, cloner, fs, Options{MaxParallel: 2, Timeout: time.Second})

	res := s.Run(context.Background(), makeTasks(2, "/dev/acme"))

	require.Equal(t, Failed, res.Tasks[0].Status)
	assert.Equal(t, CategoryTimeout, res.Tasks[0].Diagnostic.Category)
	assert.Equal(t, ExitTimeout, res.Tasks[0].Diagnostic.ExitClass)
	assert.Equal(t, Succeeded, res.Tasks[1].Status)
}

func TestNewSchedulerValidation(t *testing.T) {
	fs := afero.NewMemMapFs()

	_, err := NewScheduler(nil, fs, Options{MaxParallel: 1})
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))

	_, err = NewScheduler(&fakeCloner{fs: fs}, fs, Options{MaxParallel: 0})
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))

	_, err = NewScheduler(&fakeCloner{fs: fs}, nil, Options{MaxParallel: 1})
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))
}

package clone

import (
	"context"
	"testing"
	"time"

	"github.com/arthur-debert/macsetup/pkg/shell"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestClassifyExit(t *testing.T) {
	tests := []struct {
		code int
		want ExitClass
	}{
		{0, ExitOK},
		{124, ExitTimeout},
		{128, ExitFatal},
		{255, ExitAuth},
		{1, ExitError},
		{-1, ExitError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyExit(tt.code), "code %d", tt.code)
	}
}

func TestDiagnose(t *testing.T) {
	tests := []struct {
		name   string
		result shell.Result
		want   Category
	}{
		{
			name:   "timeout by exit code",
			result: shell.Result{ExitCode: 124},
			want:   CategoryTimeout,
		},
		{
			name:   "timeout flag wins over stderr",
			result: shell.Result{ExitCode: -1, TimedOut: true, Stderr: "Could not resolve host"},
			want:   CategoryTimeout,
		},
		{
			name:   "ssh key rejected",
			result: shell.Result{ExitCode: 128, Stderr: "git@github.com: Permission denied (publickey).\nfatal: Could not read from remote repository."},
			want:   CategoryAuth,
		},
		{
			name:   "https credentials",
			result: shell.Result{ExitCode: 128, Stderr: "fatal: could not read Username for 'https://github.com': terminal prompts disabled"},
			want:   CategoryAuth,
		},
		{
			name:   "branch before repository",
			result: shell.Result{ExitCode: 128, Stderr: "warning: Could not find remote branch dev to clone.\nfatal: Remote branch dev not found in upstream origin"},
			want:   CategoryBranchNotFound,
		},
		{
			name:   "github repository missing",
			result: shell.Result{ExitCode: 128, Stderr: "ERROR: Repository not found.\nfatal: Could not read from remote repository."},
			want:   CategoryRepoNotFound,
		},
		{
			name:   "gitlab project missing",
			result: shell.Result{ExitCode: 128, Stderr: "remote: The project you were looking for could not be found or you don't have permission to view it."},
			want:   CategoryRepoNotFound,
		},
		{
			name:   "dns failure",
			result: shell.Result{ExitCode: 128, Stderr: "fatal: unable to access 'https://github.com/x/y/': Could not resolve host: github.com"},
			want:   CategoryNetwork,
		},
		{
			name:   "https forbidden is auth",
			result: shell.Result{ExitCode: 128, Stderr: "fatal: unable to access 'https://github.com/x/y/': The requested URL returned error: 403"},
			want:   CategoryAuth,
		},
		{
			name:   "https unauthorized is auth",
			result: shell.Result{ExitCode: 128, Stderr: "fatal: unable to access 'https://gitlab.com/x/y.git/': The requested URL returned error: 401"},
			want:   CategoryAuth,
		},
		{
			name:   "https missing is repository",
			result: shell.Result{ExitCode: 128, Stderr: "fatal: unable to access 'https://example.com/x/y.git/': The requested URL returned error: 404"},
			want:   CategoryRepoNotFound,
		},
		{
			name:   "target not empty",
			result: shell.Result{ExitCode: 128, Stderr: "fatal: destination path 'y' already exists and is not an empty directory."},
			want:   CategoryNotEmpty,
		},
		{
			name:   "unrecognized",
			result: shell.Result{ExitCode: 7, Stderr: "something odd happened"},
			want:   CategoryUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Diagnose(tt.result)
			assert.Equal(t, tt.want, d.Category)
			assert.NotEmpty(t, d.Remediation)
			assert.Equal(t, tt.result.Stderr, d.Stderr, "raw stderr is kept")
			assert.Equal(t, tt.result.ExitCode, d.ExitCode, "raw exit code is kept")
		})
	}
}

func TestDiagnosisRulesAreComplete(t *testing.T) {
	seen := map[Category]bool{}
	for _, rule := range diagnosisRules {
		assert.False(t, seen[rule.category], "duplicate rule for %s", rule.category)
		seen[rule.category] = true
		assert.NotEmpty(t, rule.remediation, rule.category)
		assert.True(t, len(rule.patterns) > 0 || len(rule.exitCodes) > 0, rule.category)
	}
}

type mockRunner struct {
	mock.Mock
}

func (m *mockRunner) Run(ctx context.Context, name string, args []string, timeout time.Duration) (shell.Result, error) {
	called := m.Called(name, args, timeout)
	return called.Get(0).(shell.Result), called.Error(1)
}

func (m *mockRunner) Check(ctx context.Context, name string, args ...string) (shell.Result, error) {
	called := m.Called(name, args)
	return called.Get(0).(shell.Result), called.Error(1)
}

func (m *mockRunner) RunDry(description string) { m.Called(description) }

func (m *mockRunner) DryRun() bool { return m.Called().Bool(0) }

func TestGitCloner(t *testing.T) {
	runner := &mockRunner{}
	runner.On("Run", "git",
		[]string{"clone", "--branch", "main", "--", "git@github.com:acme/api.git", "/dev/acme/api"},
		time.Minute,
	).Return(shell.Result{}, nil).Once()

	c := NewGitCloner(runner)
	task := Task{RepoName: "api", CloneURL: "git@github.com:acme/api.git", Branch: "main", Destination: "/dev/acme"}
	_, err := c.Clone(context.Background(), task, task.Target(), time.Minute)
	require.NoError(t, err)
	runner.AssertExpectations(t)
}

func TestCloneArgsWithoutBranch(t *testing.T) {
	task := Task{RepoName: "api", CloneURL: "https://github.com/acme/api.git"}
	assert.Equal(t, []string{"clone", "--", "https://github.com/acme/api.git", "/t"}, CloneArgs(task, "/t"))
}

package automations

import (
	"context"
	"errors"
	"testing"

	"github.com/arthur-debert/macsetup/pkg/config"
	macerrors "github.com/arthur-debert/macsetup/pkg/errors"
	"github.com/arthur-debert/macsetup/pkg/registry"
	"github.com/arthur-debert/macsetup/pkg/shell/shelltest"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEnv(t *testing.T, runner *shelltest.Fake, values map[string]interface{}) Env {
	t.Helper()
	store, err := config.FromMap(values)
	require.NoError(t, err)
	return Env{
		Runner: runner,
		Fs:     afero.NewMemMapFs(),
		Store:  store,
		Home:   "/Users/me",
		Shell:  "/bin/bash",
		Logger: zerolog.Nop(),
	}
}

func TestBuiltinOrder(t *testing.T) {
	reg := Builtin()
	assert.Equal(t, []string{SSHKey, GitIdentity, DefaultShell}, reg.Ordered())
}

func TestSSHKey(t *testing.T) {
	t.Run("generates a missing key", func(t *testing.T) {
		runner := shelltest.New(false)
		env := testEnv(t, runner, map[string]interface{}{
			"automations": map[string]interface{}{
				"ssh-key": map[string]interface{}{"comment": "me@mac"},
			},
		})

		require.NoError(t, sshKey(context.Background(), env))
		assert.Equal(t, []string{`ssh-keygen -q -t ed25519 -N "" -C me@mac -f /Users/me/.ssh/id_ed25519`}, runner.Runs())
		exists, _ := afero.DirExists(env.Fs, "/Users/me/.ssh")
		assert.True(t, exists)
	})

	t.Run("keeps an existing key", func(t *testing.T) {
		runner := shelltest.New(false)
		env := testEnv(t, runner, nil)
		require.NoError(t, afero.WriteFile(env.Fs, "/Users/me/.ssh/id_ed25519", []byte("key"), 0600))

		require.NoError(t, sshKey(context.Background(), env))
		assert.Empty(t, runner.Runs())
	})

	t.Run("dry run creates nothing", func(t *testing.T) {
		runner := shelltest.New(true)
		env := testEnv(t, runner, nil)
		env.Fs = afero.NewReadOnlyFs(afero.NewMemMapFs())

		require.NoError(t, sshKey(context.Background(), env))
		require.Len(t, runner.Dry(), 1)
		assert.Contains(t, runner.Dry()[0], "ssh-keygen")
	})
}

func TestGitIdentity(t *testing.T) {
	runner := shelltest.New(false).
		On("git config --global user.name", shelltest.Response{Stdout: "Ada Lovelace\n"})
	env := testEnv(t, runner, map[string]interface{}{
		"automations": map[string]interface{}{
			"git": map[string]interface{}{
				"name":  "Ada Lovelace",
				"email": "ada@example.com",
			},
		},
	})

	require.NoError(t, gitIdentity(context.Background(), env))
	assert.Equal(t, []string{"git config --global user.email ada@example.com"}, runner.Runs())
}

func TestDefaultShell(t *testing.T) {
	runner := shelltest.New(false)
	env := testEnv(t, runner, nil)

	require.NoError(t, defaultShell(context.Background(), env))
	assert.Equal(t, []string{"chsh -s /bin/zsh"}, runner.Runs())

	runner = shelltest.New(false)
	env = testEnv(t, runner, nil)
	env.Shell = DefaultLoginShell
	require.NoError(t, defaultShell(context.Background(), env))
	assert.Empty(t, runner.Runs())
}

func TestRunCollectsFailures(t *testing.T) {
	var order []string
	reg := registry.New[Func]()
	registry.MustRegister(reg, "first", Func(func(ctx context.Context, env Env) error {
		order = append(order, "first")
		return errors.New("boom")
	}))
	registry.MustRegister(reg, "second", Func(func(ctx context.Context, env Env) error {
		order = append(order, "second")
		return nil
	}))

	env := testEnv(t, shelltest.New(false), nil)
	err := Run(context.Background(), reg, []string{"first", "missing", "second"}, env)

	require.Error(t, err)
	assert.True(t, macerrors.IsErrorCode(err, macerrors.ErrModuleFailed))
	assert.Contains(t, err.Error(), "2 of 3 automations failed")
	assert.Contains(t, err.Error(), "missing: unknown automation")
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestRunStopsWhenCancelled(t *testing.T) {
	reg := Builtin()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Run(ctx, reg, []string{SSHKey}, testEnv(t, shelltest.New(false), nil))
	assert.True(t, macerrors.IsErrorCode(err, macerrors.ErrInterrupted))
}

func TestRunScript(t *testing.T) {
	runner := shelltest.New(false)
	env := testEnv(t, runner, nil)
	require.NoError(t, afero.WriteFile(env.Fs, "/Users/me/bin/setup.sh", []byte("echo hi"), 0755))

	require.NoError(t, RunScript(context.Background(), env, "bin/setup.sh"))
	assert.Equal(t, []string{"/bin/sh /Users/me/bin/setup.sh"}, runner.Runs())

	err := RunScript(context.Background(), env, "/nope.sh")
	assert.True(t, macerrors.IsErrorCode(err, macerrors.ErrNotFound))
}

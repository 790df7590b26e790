package automations

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/arthur-debert/macsetup/pkg/config"
	macerrors "github.com/arthur-debert/macsetup/pkg/errors"
	"github.com/arthur-debert/macsetup/pkg/filesystem"
	"github.com/arthur-debert/macsetup/pkg/paths"
	"github.com/arthur-debert/macsetup/pkg/registry"
	"github.com/arthur-debert/macsetup/pkg/shell"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// Built-in automation names
const (
	SSHKey       = "ssh-key"
	GitIdentity  = "git-identity"
	DefaultShell = "default-shell"
)

// Store keys read by the built-in automations
var (
	SSHKeyCommentKey = config.Key("automations", SSHKey, "comment")
	GitNameKey       = config.Key("automations", "git", "name")
	GitEmailKey      = config.Key("automations", "git", "email")
	ShellKey         = config.Key("automations", "shell")
)

// DefaultLoginShell is used when automations.shell is not set
const DefaultLoginShell = "/bin/zsh"

// Env is everything an automation may use
type Env struct {
	Runner shell.Runner
	Fs     afero.Fs
	Store  config.Store
	Home   string
	// Shell is the user's current login shell
	Shell  string
	Logger zerolog.Logger
}

// Func runs one automation
type Func func(ctx context.Context, env Env) error

// Builtin returns the registration table of built-in automations
func Builtin() registry.Registry[Func] {
	reg := registry.New[Func]()
	registry.MustRegister(reg, SSHKey, Func(sshKey))
	registry.MustRegister(reg, GitIdentity, Func(gitIdentity))
	registry.MustRegister(reg, DefaultShell, Func(defaultShell))
	return reg
}

// Run runs the named automations in the given order. An unknown name or a
// failing automation does not stop the others; all failures are reported
// together.
func Run(ctx context.Context, reg registry.Registry[Func], names []string, env Env) error {
	var failures []string
	for _, name := range names {
		if ctx.Err() != nil {
			return macerrors.Wrap(ctx.Err(), macerrors.ErrInterrupted, "automations interrupted")
		}
		fn, err := reg.Get(name)
		if err != nil {
			failures = append(failures, name+": unknown automation")
			continue
		}
		env.Logger.Info().Str("automation", name).Msg("running automation")
		if err := fn(ctx, env); err != nil {
			env.Logger.Error().Err(err).Str("automation", name).Msg("automation failed")
			failures = append(failures, name+": "+err.Error())
		}
	}
	if len(failures) > 0 {
		return macerrors.Newf(macerrors.ErrModuleFailed, "%d of %d automations failed: %s",
			len(failures), len(names), strings.Join(failures, "; "))
	}
	return nil
}

// RunScript runs a user script with /bin/sh
func RunScript(ctx context.Context, env Env, script string) error {
	path := paths.ExpandPath(script)
	if !filepath.IsAbs(path) {
		path = filepath.Join(env.Home, path)
	}
	if !filesystem.Exists(env.Fs, path) {
		return macerrors.Newf(macerrors.ErrNotFound, "script %s does not exist", path)
	}
	_, err := env.Runner.Run(ctx, "/bin/sh", []string{path}, 0)
	return err
}

func sshKey(ctx context.Context, env Env) error {
	dir := filepath.Join(env.Home, ".ssh")
	key := filepath.Join(dir, "id_ed25519")
	if filesystem.Exists(env.Fs, key) {
		env.Logger.Debug().Str("key", key).Msg("ssh key already present")
		return nil
	}

	if !env.Runner.DryRun() {
		if err := env.Fs.MkdirAll(dir, 0700); err != nil {
			return macerrors.Wrapf(err, macerrors.ErrInternal, "failed to create %s", dir)
		}
	}

	comment, _ := env.Store.GetString(SSHKeyCommentKey)
	_, err := env.Runner.Run(ctx, "ssh-keygen", []string{"-q", "-t", "ed25519", "-N", "", "-C", comment, "-f", key}, 0)
	return err
}

func gitIdentity(ctx context.Context, env Env) error {
	settings := []struct {
		key   string
		field string
	}{
		{GitNameKey, "user.name"},
		{GitEmailKey, "user.email"},
	}
	for _, s := range settings {
		want, ok := env.Store.GetString(s.key)
		if !ok || want == "" {
			continue
		}
		current, err := env.Runner.Check(ctx, "git", "config", "--global", s.field)
		if err == nil && strings.TrimSpace(current.Stdout) == want {
			continue
		}
		if _, err := env.Runner.Run(ctx, "git", []string{"config", "--global", s.field, want}, 0); err != nil {
			return err
		}
	}
	return nil
}

func defaultShell(ctx context.Context, env Env) error {
	want, ok := env.Store.GetString(ShellKey)
	if !ok || want == "" {
		want = DefaultLoginShell
	}
	if env.Shell == want {
		return nil
	}
	_, err := env.Runner.Run(ctx, "chsh", []string{"-s", want}, 0)
	return err
}

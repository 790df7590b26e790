package modules

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	macerrors "github.com/arthur-debert/macsetup/pkg/errors"
	"github.com/arthur-debert/macsetup/pkg/filesystem"
	"github.com/arthur-debert/macsetup/pkg/logging"
	"github.com/arthur-debert/macsetup/pkg/paths"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// Store keys read by the dotfiles module
const (
	DotfilesSourceKey   = "dotfiles.source"
	DotfilesTargetKey   = "dotfiles.target"
	DotfilesPackagesKey = "dotfiles.packages"
)

// BackupSuffix is appended to plain files that would block a link
const BackupSuffix = ".macsetup-backup"

type dotfilesModule struct {
	deps Deps
}

func (m *dotfilesModule) Run(ctx context.Context) error {
	logger := logging.GetLogger("modules.dotfiles")
	store, err := m.deps.Config.Store()
	if err != nil {
		return err
	}

	source, _ := store.GetString(DotfilesSourceKey)
	source = paths.ExpandPath(source)
	target, _ := store.GetString(DotfilesTargetKey)
	target = paths.ExpandPath(target)
	if target == "" {
		target = m.deps.Home
	}
	if !filesystem.IsDir(m.deps.Fs, source) {
		return macerrors.Newf(macerrors.ErrNotFound, "dotfiles source %s does not exist", source)
	}

	packages, ok := store.GetStringArray(DotfilesPackagesKey)
	if !ok {
		if packages, err = m.discover(source); err != nil {
			return err
		}
	}
	if len(packages) == 0 {
		logger.Info().Str("source", source).Msg("no dotfile packages to link")
		return nil
	}

	settings := m.deps.Settings
	failed := failures{what: "dotfile packages", total: len(packages)}
	for _, pkg := range packages {
		if err := interrupted(ctx); err != nil {
			return err
		}
		dir := filepath.Join(source, pkg)
		if !filesystem.IsDir(m.deps.Fs, dir) {
			failed.add(pkg, macerrors.Newf(macerrors.ErrNotFound, "package directory %s does not exist", dir))
			continue
		}
		if !settings.Adopt {
			if err := m.clearConflicts(logger, dir, target); err != nil {
				failed.add(pkg, err)
				continue
			}
		}
		if _, err := m.deps.Runner.Run(ctx, "stow", StowArgs(source, target, pkg, settings.Adopt), 0); err != nil {
			failed.add(pkg, err)
		}
	}
	return failed.err()
}

// StowArgs builds the stow invocation for one package
func StowArgs(source, target, pkg string, adopt bool) []string {
	args := []string{"--restow", "--dir", source, "--target", target}
	if adopt {
		args = append(args, "--adopt")
	}
	return append(args, pkg)
}

// discover lists the non-hidden directories of source
func (m *dotfilesModule) discover(source string) ([]string, error) {
	entries, err := afero.ReadDir(m.deps.Fs, source)
	if err != nil {
		return nil, macerrors.Wrapf(err, macerrors.ErrNotFound, "cannot list dotfiles source %s", source)
	}
	var packages []string
	for _, entry := range entries {
		if entry.IsDir() && !strings.HasPrefix(entry.Name(), ".") {
			packages = append(packages, entry.Name())
		}
	}
	return packages, nil
}

// clearConflicts moves plain files that would block stow's links out of the
// way. Symlinks and directories are left to stow. A directory stow folded
// into a single link is skipped whole: the files below it resolve into the
// package itself.
func (m *dotfilesModule) clearConflicts(logger zerolog.Logger, dir, target string) error {
	fs := m.deps.Fs
	return afero.Walk(fs, dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		dest := filepath.Join(target, rel)
		if info.IsDir() {
			if rel != "." && filesystem.IsSymlink(fs, dest) {
				return filepath.SkipDir
			}
			return nil
		}
		existing, err := filesystem.Lstat(fs, dest)
		if err != nil || !existing.Mode().IsRegular() {
			return nil
		}

		if m.deps.Settings.NoBackup {
			logger.Warn().Str("file", dest).Msg("existing file blocks link and backups are disabled")
			return nil
		}
		backup := dest + BackupSuffix
		if m.deps.Runner.DryRun() {
			m.deps.Runner.RunDry("move " + dest + " to " + backup)
			return nil
		}
		logger.Info().Str("file", dest).Str("backup", backup).Msg("backing up conflicting file")
		if err := fs.Rename(dest, backup); err != nil {
			return macerrors.Wrapf(err, macerrors.ErrInternal, "failed to back up %s", dest)
		}
		return nil
	})
}

package modules

import (
	"context"
	"path"

	"github.com/arthur-debert/macsetup/pkg/filesystem"
	"github.com/arthur-debert/macsetup/pkg/shell"
	"github.com/spf13/afero"
)

// brewLocations are where the installer puts brew on Apple silicon and Intel
var brewLocations = []string{"/opt/homebrew/bin/brew", "/usr/local/bin/brew"}

// brew finds the brew executable. A fresh install is not on PATH until the
// user's shell profile is reloaded, so the known locations are checked too.
type brew struct {
	fs       afero.Fs
	lookPath func(string) (string, error)
}

func (b *brew) bin() string {
	if found, err := b.lookPath("brew"); err == nil {
		return found
	}
	for _, candidate := range brewLocations {
		if filesystem.Exists(b.fs, candidate) {
			return candidate
		}
	}
	return "brew"
}

type packageKind string

const (
	formulaKind packageKind = "formula"
	caskKind    packageKind = "cask"
)

// installed returns the names brew reports as installed for kind
func (b *brew) installed(ctx context.Context, runner shell.Runner, kind packageKind) (map[string]struct{}, error) {
	result, err := runner.Check(ctx, b.bin(), "list", "--"+string(kind), "-1")
	if err != nil {
		return nil, err
	}
	set := make(map[string]struct{})
	for _, name := range lines(result.Stdout) {
		set[name] = struct{}{}
	}
	return set, nil
}

// packageName strips the tap prefix of user/tap/name references
func packageName(ref string) string {
	return path.Base(ref)
}

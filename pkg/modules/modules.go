package modules

import (
	"context"
	"os/exec"
	"strings"

	"github.com/arthur-debert/macsetup/pkg/automations"
	"github.com/arthur-debert/macsetup/pkg/clone"
	"github.com/arthur-debert/macsetup/pkg/config"
	"github.com/arthur-debert/macsetup/pkg/destination"
	macerrors "github.com/arthur-debert/macsetup/pkg/errors"
	"github.com/arthur-debert/macsetup/pkg/pipeline"
	"github.com/arthur-debert/macsetup/pkg/registry"
	"github.com/arthur-debert/macsetup/pkg/selector"
	"github.com/arthur-debert/macsetup/pkg/shell"
	"github.com/spf13/afero"
)

// Module names, in pipeline order
const (
	Prerequisites = "prerequisites"
	Homebrew      = "homebrew"
	Dependencies  = "dependencies"
	Taps          = "taps"
	Formulae      = "formulae"
	Casks         = "casks"
	Dotfiles      = "dotfiles"
	Repositories  = "repositories"
	MacOS         = "macos"
	OhMyZsh       = "ohmyzsh"
	Automations   = "automations"
)

// Deps is everything the modules need from the outside world
type Deps struct {
	Settings *config.Settings
	Runner   shell.Runner
	// Fs is read-only in dry-run mode
	Fs     afero.Fs
	Config *config.Provider

	Selector      selector.Selector
	Memory        destination.Memory
	CloneObserver clone.Observer
	Automations   registry.Registry[automations.Func]

	Home string
	// Shell is the user's current login shell
	Shell string
	// LookPath finds executables; defaults to exec.LookPath
	LookPath func(file string) (string, error)
}

// Set is the registered module table
type Set struct {
	descriptors []pipeline.Descriptor
	// Repositories exposes the clone outcome for the final summary
	Repositories *RepositoriesModule
}

// Descriptors returns the modules in pipeline order
func (s *Set) Descriptors() []pipeline.Descriptor {
	return append([]pipeline.Descriptor(nil), s.descriptors...)
}

// Build returns the module table. The order here is the execution order.
func Build(d Deps) *Set {
	if d.LookPath == nil {
		d.LookPath = exec.LookPath
	}
	if d.Automations == nil {
		d.Automations = automations.Builtin()
	}
	b := &brew{fs: d.Fs, lookPath: d.LookPath}
	repos := newRepositoriesModule(d)

	return &Set{
		Repositories: repos,
		descriptors: []pipeline.Descriptor{
			{
				Name:        Prerequisites,
				DisplayName: "Xcode command line tools",
				Run:         newPrerequisitesModule(d).Run,
			},
			{
				Name:        Homebrew,
				DisplayName: "Homebrew",
				Run:         (&homebrewModule{deps: d, brew: b}).Run,
				DependsOn:   []string{Prerequisites},
			},
			{
				Name:        Dependencies,
				DisplayName: "Bootstrap dependencies",
				Run:         (&dependenciesModule{deps: d, brew: b}).Run,
				DependsOn:   []string{Homebrew},
				Bootstrap:   true,
			},
			{
				Name:        Taps,
				DisplayName: "Homebrew taps",
				Run:         (&tapsModule{deps: d, brew: b}).Run,
				DependsOn:   []string{Dependencies},
			},
			{
				Name:        Formulae,
				DisplayName: "Homebrew formulae",
				Run:         (&packagesModule{deps: d, brew: b, kind: formulaKind}).Run,
				DependsOn:   []string{Taps},
			},
			{
				Name:        Casks,
				DisplayName: "Homebrew casks",
				Run:         (&packagesModule{deps: d, brew: b, kind: caskKind}).Run,
				DependsOn:   []string{Taps},
			},
			{
				Name:        Dotfiles,
				DisplayName: "Dotfiles",
				Run:         (&dotfilesModule{deps: d}).Run,
				DependsOn:   []string{Dependencies},
			},
			{
				Name:        Repositories,
				DisplayName: "Repositories",
				Run:         repos.Run,
				DependsOn:   []string{Dependencies},
			},
			{
				Name:        MacOS,
				DisplayName: "macOS defaults",
				Run:         (&macosModule{deps: d}).Run,
				DependsOn:   []string{Dependencies},
			},
			{
				Name:        OhMyZsh,
				DisplayName: "Oh My Zsh",
				Run:         (&ohMyZshModule{deps: d}).Run,
				DependsOn:   []string{Dependencies},
			},
			{
				Name:        Automations,
				DisplayName: "Automations",
				Run:         (&automationsModule{deps: d}).Run,
				DependsOn:   []string{Dependencies},
			},
		},
	}
}

// failures collects per-item errors so one bad item does not stop the rest
type failures struct {
	what  string
	total int
	items []string
}

func (f *failures) add(item string, err error) {
	f.items = append(f.items, item+": "+err.Error())
}

func (f *failures) err() error {
	if len(f.items) == 0 {
		return nil
	}
	return macerrors.Newf(macerrors.ErrModuleFailed, "%d of %d %s failed: %s",
		len(f.items), f.total, f.what, strings.Join(f.items, "; "))
}

func interrupted(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return macerrors.Wrap(err, macerrors.ErrInterrupted, "interrupted")
	}
	return nil
}

// lines splits command output into trimmed, non-empty lines
func lines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

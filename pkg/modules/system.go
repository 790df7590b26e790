package modules

import (
	"context"
	"fmt"
	"time"

	"github.com/arthur-debert/macsetup/pkg/config"
	macerrors "github.com/arthur-debert/macsetup/pkg/errors"
	"github.com/arthur-debert/macsetup/pkg/logging"
	"github.com/rs/zerolog"
)

// prerequisitesModule makes sure the Xcode command line tools are installed
type prerequisitesModule struct {
	deps   Deps
	logger zerolog.Logger
	// the installer is a GUI dialog; poll until it finishes
	pollInterval time.Duration
	waitTimeout  time.Duration
}

func newPrerequisitesModule(d Deps) *prerequisitesModule {
	return &prerequisitesModule{
		deps:         d,
		logger:       logging.GetLogger("modules.prerequisites"),
		pollInterval: 15 * time.Second,
		waitTimeout:  30 * time.Minute,
	}
}

func (m *prerequisitesModule) Run(ctx context.Context) error {
	runner := m.deps.Runner
	if m.toolsPresent(ctx) {
		m.logger.Info().Msg("command line tools already installed")
		return nil
	}

	if _, err := runner.Run(ctx, "xcode-select", []string{"--install"}, 0); err != nil {
		return err
	}
	if runner.DryRun() {
		return nil
	}

	m.logger.Info().Msg("waiting for the command line tools installer")
	deadline := time.NewTimer(m.waitTimeout)
	defer deadline.Stop()
	ticker := time.NewTicker(m.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return interrupted(ctx)
		case <-deadline.C:
			return macerrors.Newf(macerrors.ErrCommandTimeout,
				"command line tools were not installed after %s; finish the installer and run again", m.waitTimeout)
		case <-ticker.C:
			if m.toolsPresent(ctx) {
				return nil
			}
		}
	}
}

func (m *prerequisitesModule) toolsPresent(ctx context.Context) bool {
	_, err := m.deps.Runner.Check(ctx, "xcode-select", "-p")
	return err == nil
}

// HomebrewInstallURL is the official install script
const HomebrewInstallURL = "https://raw.githubusercontent.com/Homebrew/install/HEAD/install.sh"

type homebrewModule struct {
	deps Deps
	brew *brew
}

func (m *homebrewModule) Run(ctx context.Context) error {
	logger := logging.GetLogger("modules.homebrew")
	runner := m.deps.Runner
	if result, err := runner.Check(ctx, m.brew.bin(), "--version"); err == nil {
		logger.Info().Str("version", firstLine(result.Stdout)).Msg("homebrew already installed")
		return nil
	}

	script := fmt.Sprintf(`NONINTERACTIVE=1 /bin/bash -c "$(curl -fsSL %s)"`, HomebrewInstallURL)
	if _, err := runner.Run(ctx, "/bin/bash", []string{"-c", script}, 0); err != nil {
		return err
	}
	if runner.DryRun() {
		return nil
	}

	if _, err := runner.Check(ctx, m.brew.bin(), "--version"); err != nil {
		return macerrors.Wrap(err, macerrors.ErrNotFound, "homebrew was installed but brew cannot be run")
	}
	return nil
}

// bootstrapTools are what the configuration-driven modules shell out to
var bootstrapTools = []string{"git", "stow"}

// dependenciesModule is the bootstrap module. Nothing after it can run
// unless it installs the tools and finds a valid configuration file.
type dependenciesModule struct {
	deps Deps
	brew *brew
}

func (m *dependenciesModule) Run(ctx context.Context) error {
	logger := logging.GetLogger("modules.dependencies")
	for _, tool := range bootstrapTools {
		if found, err := m.deps.LookPath(tool); err == nil {
			logger.Debug().Str("tool", tool).Str("path", found).Msg("tool present")
			continue
		}
		if _, err := m.deps.Runner.Run(ctx, m.brew.bin(), []string{"install", tool}, 0); err != nil {
			return macerrors.Wrapf(err, macerrors.ErrBootstrapFatal, "failed to install %s", tool)
		}
	}

	if err := config.ValidateFile(m.deps.Fs, m.deps.Settings.ConfigFile); err != nil {
		return err
	}
	logger.Info().Str("config", m.deps.Settings.ConfigFile).Msg("configuration file is valid")
	return nil
}

func firstLine(s string) string {
	if all := lines(s); len(all) > 0 {
		return all[0]
	}
	return ""
}

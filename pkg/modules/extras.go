package modules

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/arthur-debert/macsetup/pkg/automations"
	"github.com/arthur-debert/macsetup/pkg/filesystem"
	"github.com/arthur-debert/macsetup/pkg/logging"
)

// OhMyZshInstallURL is the official unattended install script
const OhMyZshInstallURL = "https://raw.githubusercontent.com/ohmyzsh/ohmyzsh/master/tools/install.sh"

type ohMyZshModule struct {
	deps Deps
}

func (m *ohMyZshModule) Run(ctx context.Context) error {
	dir := filepath.Join(m.deps.Home, ".oh-my-zsh")
	if filesystem.IsDir(m.deps.Fs, dir) {
		logger := logging.GetLogger("modules.ohmyzsh")
		logger.Info().Str("dir", dir).Msg("oh-my-zsh already installed")
		return nil
	}
	script := fmt.Sprintf(`sh -c "$(curl -fsSL %s)" "" --unattended`, OhMyZshInstallURL)
	_, err := m.deps.Runner.Run(ctx, "/bin/sh", []string{"-c", script}, 0)
	return err
}

// Store keys read by the automations module
const (
	AutomationsEnabledKey = "automations.enabled"
	AutomationsScriptsKey = "automations.scripts"
)

type automationsModule struct {
	deps Deps
}

func (m *automationsModule) Run(ctx context.Context) error {
	logger := logging.GetLogger("modules.automations")
	store, err := m.deps.Config.Store()
	if err != nil {
		return err
	}
	env := automations.Env{
		Runner: m.deps.Runner,
		Fs:     m.deps.Fs,
		Store:  store,
		Home:   m.deps.Home,
		Shell:  m.deps.Shell,
		Logger: logger,
	}

	enabled, _ := store.GetStringArray(AutomationsEnabledKey)
	scripts, _ := store.GetStringArray(AutomationsScriptsKey)

	failed := failures{what: "automation steps", total: len(scripts) + 1}
	if err := automations.Run(ctx, m.deps.Automations, enabled, env); err != nil {
		if err := interrupted(ctx); err != nil {
			return err
		}
		failed.add("built-in automations", err)
	}
	for _, script := range scripts {
		if err := interrupted(ctx); err != nil {
			return err
		}
		if err := automations.RunScript(ctx, env, script); err != nil {
			failed.add(script, err)
		}
	}
	return failed.err()
}

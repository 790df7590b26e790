package modules

import (
	"context"

	"github.com/arthur-debert/macsetup/pkg/logging"
)

// Store keys read by the homebrew modules
const (
	TapsKey     = "homebrew.taps"
	FormulaeKey = "homebrew.formulae"
	CasksKey    = "homebrew.casks"
)

type tapsModule struct {
	deps Deps
	brew *brew
}

func (m *tapsModule) Run(ctx context.Context) error {
	logger := logging.GetLogger("modules.taps")
	store, err := m.deps.Config.Store()
	if err != nil {
		return err
	}
	taps, _ := store.GetStringArray(TapsKey)
	if len(taps) == 0 {
		logger.Info().Msg("no taps configured")
		return nil
	}

	bin := m.brew.bin()
	existing := make(map[string]struct{})
	if result, err := m.deps.Runner.Check(ctx, bin, "tap"); err == nil {
		for _, tap := range lines(result.Stdout) {
			existing[tap] = struct{}{}
		}
	}

	failed := failures{what: "taps", total: len(taps)}
	for _, tap := range taps {
		if err := interrupted(ctx); err != nil {
			return err
		}
		if _, ok := existing[tap]; ok {
			logger.Debug().Str("tap", tap).Msg("already tapped")
			continue
		}
		if _, err := m.deps.Runner.Run(ctx, bin, []string{"tap", tap}, 0); err != nil {
			failed.add(tap, err)
		}
	}
	return failed.err()
}

// packagesModule installs the formulae or casks that are not installed yet
type packagesModule struct {
	deps Deps
	brew *brew
	kind packageKind
}

func (m *packagesModule) Run(ctx context.Context) error {
	key, what := FormulaeKey, "formulae"
	if m.kind == caskKind {
		key, what = CasksKey, "casks"
	}
	logger := logging.GetLogger("modules." + what)

	store, err := m.deps.Config.Store()
	if err != nil {
		return err
	}
	wanted, _ := store.GetStringArray(key)
	if len(wanted) == 0 {
		logger.Info().Msgf("no %s configured", what)
		return nil
	}

	installed, err := m.brew.installed(ctx, m.deps.Runner, m.kind)
	if err != nil {
		return err
	}

	bin := m.brew.bin()
	failed := failures{what: what, total: len(wanted)}
	for _, ref := range wanted {
		if err := interrupted(ctx); err != nil {
			return err
		}
		if _, ok := installed[packageName(ref)]; ok {
			logger.Debug().Str("package", ref).Msg("already installed")
			continue
		}
		args := []string{"install"}
		if m.kind == caskKind {
			args = append(args, "--cask")
		}
		args = append(args, ref)
		if _, err := m.deps.Runner.Run(ctx, bin, args, 0); err != nil {
			failed.add(ref, err)
		}
	}
	return failed.err()
}

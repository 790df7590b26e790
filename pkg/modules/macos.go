package modules

import (
	"context"
	"strings"

	macerrors "github.com/arthur-debert/macsetup/pkg/errors"
	"github.com/arthur-debert/macsetup/pkg/logging"
)

// Store keys read by the macos module
const (
	MacOSDefaultsKey = "macos.defaults"
	MacOSRestartKey  = "macos.restart"
)

// killallNoMatch is killall's exit code when no process matched
const killallNoMatch = 1

// Default is one `defaults write` entry
type Default struct {
	Domain string
	Key    string
	Type   string
	Value  string
}

// ParseDefault parses "<domain> <key> -<type> <value>". The value is the rest
// of the line and may contain spaces.
func ParseDefault(entry string) (Default, error) {
	fields := strings.Fields(entry)
	if len(fields) < 4 {
		return Default{}, macerrors.Newf(macerrors.ErrInvalidInput,
			"defaults entry %q must look like \"<domain> <key> -<type> <value>\"", entry)
	}
	if !strings.HasPrefix(fields[2], "-") {
		return Default{}, macerrors.Newf(macerrors.ErrInvalidInput,
			"defaults entry %q: type %q must start with -", entry, fields[2])
	}
	return Default{
		Domain: fields[0],
		Key:    fields[1],
		Type:   fields[2],
		Value:  strings.Join(fields[3:], " "),
	}, nil
}

// Args returns the defaults(1) arguments for the entry
func (d Default) Args() []string {
	return []string{"write", d.Domain, d.Key, d.Type, d.Value}
}

type macosModule struct {
	deps Deps
}

func (m *macosModule) Run(ctx context.Context) error {
	logger := logging.GetLogger("modules.macos")
	store, err := m.deps.Config.Store()
	if err != nil {
		return err
	}
	entries, _ := store.GetStringArray(MacOSDefaultsKey)
	restart, _ := store.GetStringArray(MacOSRestartKey)

	failed := failures{what: "macOS settings", total: len(entries) + len(restart)}
	for _, entry := range entries {
		if err := interrupted(ctx); err != nil {
			return err
		}
		def, err := ParseDefault(entry)
		if err != nil {
			failed.add(entry, err)
			continue
		}
		if _, err := m.deps.Runner.Run(ctx, "defaults", def.Args(), 0); err != nil {
			failed.add(def.Domain+" "+def.Key, err)
		}
	}

	for _, app := range restart {
		result, err := m.deps.Runner.Run(ctx, "killall", []string{app}, 0)
		if err != nil && result.ExitCode == killallNoMatch {
			logger.Debug().Str("app", app).Msg("not running, nothing to restart")
			continue
		}
		if err != nil {
			failed.add(app, err)
		}
	}
	return failed.err()
}

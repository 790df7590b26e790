package config

import (
	"sort"
	"strings"
	"time"

	macerrors "github.com/arthur-debert/macsetup/pkg/errors"
	"github.com/arthur-debert/macsetup/pkg/paths"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Settings is the run configuration. It is built once by LoadSettings and
// shared by pointer; nothing mutates it afterwards.
type Settings struct {
	DryRun       bool          `koanf:"dry_run"`
	Verbosity    int           `koanf:"verbosity"`
	OnlyModule   string        `koanf:"module"`
	SkipModules  []string      `koanf:"skip"`
	Adopt        bool          `koanf:"adopt"`
	NoBackup     bool          `koanf:"no_backup"`
	ConfigFile   string        `koanf:"config"`
	Parallel     int           `koanf:"parallel"`
	CloneTimeout time.Duration `koanf:"clone_timeout"`
	ReportFile   string        `koanf:"report_file"`
	Format       string        `koanf:"format"`
}

// Verbose reports whether any verbosity was requested
func (s *Settings) Verbose() bool {
	return s.Verbosity > 0
}

// SkipSet returns the skip list as a set
func (s *Settings) SkipSet() map[string]struct{} {
	set := make(map[string]struct{}, len(s.SkipModules))
	for _, name := range s.SkipModules {
		set[name] = struct{}{}
	}
	return set
}

// LoadSettings merges, in increasing precedence, built-in defaults, MACSETUP_*
// variables (single underscore names such as MACSETUP_CLONE_TIMEOUT) and the
// flags the user set explicitly.
func LoadSettings(flags map[string]interface{}) (*Settings, error) {
	k := koanf.New(".")

	defaults := map[string]interface{}{
		"config": paths.DefaultConfigFile(),
	}
	if err := k.Load(confmap.Provider(defaults, "."), nil); err != nil {
		return nil, macerrors.Wrap(err, macerrors.ErrConfigLoad, "failed to load settings defaults")
	}

	err := k.Load(env.Provider(EnvPrefix, ".", settingsEnvKey), nil)
	if err != nil {
		return nil, macerrors.Wrap(err, macerrors.ErrConfigLoad, "failed to load settings from environment")
	}

	if err := k.Load(confmap.Provider(flags, "."), nil); err != nil {
		return nil, macerrors.Wrap(err, macerrors.ErrConfigLoad, "failed to load settings from flags")
	}

	var s Settings
	unmarshalConf := koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           &s,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
		},
	}
	if err := k.UnmarshalWithConf("", &s, unmarshalConf); err != nil {
		return nil, macerrors.Wrap(err, macerrors.ErrConfigParse, "failed to decode settings")
	}

	s.ConfigFile = paths.ExpandPath(s.ConfigFile)
	s.SkipModules = normalizeNames(s.SkipModules)
	s.OnlyModule = strings.TrimSpace(s.OnlyModule)

	if s.Parallel < 0 {
		return nil, macerrors.Newf(macerrors.ErrInvalidInput, "parallel must be >= 1, got %d", s.Parallel)
	}
	if s.CloneTimeout < 0 {
		return nil, macerrors.Newf(macerrors.ErrInvalidInput, "clone timeout must be positive, got %s", s.CloneTimeout)
	}

	return &s, nil
}

// settingsEnvKey keeps single-underscore variables; store overrides use a
// double underscore and are handled by Load.
func settingsEnvKey(s string) string {
	trimmed := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	if strings.Contains(trimmed, "__") {
		return ""
	}
	return trimmed
}

func normalizeNames(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

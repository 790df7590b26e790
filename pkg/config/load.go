package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	macerrors "github.com/arthur-debert/macsetup/pkg/errors"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

//go:embed embedded/defaults.toml
var defaultConfig []byte

// EnvPrefix prefixes environment variables that override configuration
const EnvPrefix = "MACSETUP_"

type rawBytesProvider struct{ bytes []byte }

func (r *rawBytesProvider) ReadBytes() ([]byte, error) { return r.bytes, nil }
func (r *rawBytesProvider) Read() (map[string]interface{}, error) {
	return nil, errors.New("not implemented")
}

// LoadOptions selects the files that make up the store
type LoadOptions struct {
	// ConfigFile is the user's declarative configuration. It must exist.
	ConfigFile string
	// DestinationsFile holds remembered destinations; missing is fine.
	DestinationsFile string
}

// Load builds the store from, in increasing precedence: embedded defaults,
// remembered destinations, the user's file and MACSETUP_* variables using
// double underscores as separators (MACSETUP_SETTINGS__DEV_ROOT).
func Load(opts LoadOptions) (*KoanfStore, error) {
	k := koanf.New(".")

	if err := k.Load(&rawBytesProvider{bytes: defaultConfig}, toml.Parser()); err != nil {
		return nil, macerrors.Wrap(err, macerrors.ErrConfigLoad, "failed to load defaults")
	}

	if opts.DestinationsFile != "" {
		if _, err := os.Stat(opts.DestinationsFile); err == nil {
			if err := k.Load(file.Provider(opts.DestinationsFile), toml.Parser()); err != nil {
				return nil, macerrors.Wrapf(err, macerrors.ErrConfigLoad, "failed to load remembered destinations from %s", opts.DestinationsFile)
			}
		}
	}

	if opts.ConfigFile == "" {
		return nil, macerrors.New(macerrors.ErrConfigLoad, "no configuration file given")
	}
	if _, err := os.Stat(opts.ConfigFile); err != nil {
		return nil, macerrors.Wrapf(err, macerrors.ErrConfigLoad, "configuration file %s is not readable", opts.ConfigFile)
	}
	if err := k.Load(file.Provider(opts.ConfigFile), toml.Parser()); err != nil {
		return nil, macerrors.Wrapf(err, macerrors.ErrConfigParse, "failed to load configuration from %s", opts.ConfigFile)
	}

	err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil)
	if err != nil {
		return nil, macerrors.Wrap(err, macerrors.ErrConfigLoad, "failed to load environment overrides")
	}

	return newKoanfStore(k), nil
}

// envKey maps MACSETUP_SETTINGS__DEV_ROOT to settings.dev_root. Variables
// without a double underscore are run settings, not store keys, and are dropped.
func envKey(s string) string {
	trimmed := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	if !strings.Contains(trimmed, "__") {
		return ""
	}
	return strings.ReplaceAll(trimmed, "__", ".")
}

// FromMap builds a store from an in-memory tree, layered over the defaults
func FromMap(values map[string]interface{}) (*KoanfStore, error) {
	k := koanf.New(".")
	if err := k.Load(&rawBytesProvider{bytes: defaultConfig}, toml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}
	if err := k.Load(confmap.Provider(values, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load values: %w", err)
	}
	return newKoanfStore(k), nil
}

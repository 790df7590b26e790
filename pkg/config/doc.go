// Package config handles configuration management for macsetup.
//
// Two kinds of configuration exist and they are loaded at different times:
//
//   - Settings: the immutable run configuration built once at startup from
//     flags and MACSETUP_* environment variables. It never reads the
//     declarative file.
//   - Store: the declarative configuration (TOML) describing packages,
//     dotfiles, repositories and preferences. It becomes queryable only after
//     the bootstrap module has succeeded; modules reach it through a Provider.
//
// Store lookups take dotted paths. A segment containing a dot must be quoted;
// Key builds such paths so callers can pass repository or organization names
// verbatim.
package config

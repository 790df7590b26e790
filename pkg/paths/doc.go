// Package paths provides centralized path handling for macsetup.
//
// It expands user-supplied paths (~ and environment variables) and locates
// the XDG directories macsetup reads from and writes to:
//
//   - Config: $XDG_CONFIG_HOME/macsetup (config.toml)
//   - State:  $XDG_STATE_HOME/macsetup (log file, remembered destinations)
//
// # Environment Variables
//
//   - MACSETUP_CONFIG: explicit configuration file path
//   - XDG_CONFIG_HOME / XDG_STATE_HOME: standard overrides
package paths

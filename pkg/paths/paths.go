package paths

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/arthur-debert/macsetup/pkg/errors"
)

const (
	// AppDirName is the directory name used under every XDG base directory
	AppDirName = "macsetup"

	// ConfigFileName is the default configuration file name
	ConfigFileName = "config.toml"

	// LogFileName is the log file name inside the state directory
	LogFileName = "macsetup.log"

	// DestinationsFileName holds remembered clone destinations
	DestinationsFileName = "destinations.toml"

	// EnvConfig overrides the configuration file location
	EnvConfig = "MACSETUP_CONFIG"

	// EnvHome is consulted when os.UserHomeDir fails
	EnvHome = "HOME"
)

// GetHomeDirectory returns the user's home directory with proper error handling
func GetHomeDirectory() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		if home := os.Getenv(EnvHome); home != "" {
			return home, nil
		}
		return "", errors.Wrapf(err, errors.ErrNotFound, "failed to get home directory")
	}
	return homeDir, nil
}

// ExpandHome expands a leading ~ to the home directory.
// ~user forms are returned unchanged.
func ExpandHome(path string) string {
	if path == "" || path[0] != '~' {
		return path
	}

	homeDir, err := GetHomeDirectory()
	if err != nil {
		return path
	}

	if len(path) == 1 {
		return homeDir
	}

	if path[1] == '/' || path[1] == filepath.Separator {
		return filepath.Join(homeDir, path[2:])
	}

	return path
}

// ExpandPath expands ~ and environment variables in a path
func ExpandPath(path string) string {
	return ExpandHome(os.ExpandEnv(path))
}

// ConfigDir returns $XDG_CONFIG_HOME/macsetup
func ConfigDir() string {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, AppDirName)
	}
	return filepath.Join(xdg.ConfigHome, AppDirName)
}

// StateDir returns $XDG_STATE_HOME/macsetup
func StateDir() string {
	if stateHome := os.Getenv("XDG_STATE_HOME"); stateHome != "" {
		return filepath.Join(stateHome, AppDirName)
	}
	return filepath.Join(xdg.StateHome, AppDirName)
}

// DefaultConfigFile returns the configuration file to load when --config is not given
func DefaultConfigFile() string {
	if explicit := strings.TrimSpace(os.Getenv(EnvConfig)); explicit != "" {
		return ExpandPath(explicit)
	}
	return filepath.Join(ConfigDir(), ConfigFileName)
}

// LogFilePath returns the path to the macsetup log file
func LogFilePath() string {
	return filepath.Join(StateDir(), LogFileName)
}

// DestinationsFilePath returns the path of the remembered destinations file
func DestinationsFilePath() string {
	return filepath.Join(StateDir(), DestinationsFileName)
}

// IsWithin reports whether rel, once cleaned, stays inside its base directory
func IsWithin(rel string) bool {
	if rel == "" || filepath.IsAbs(rel) {
		return false
	}
	cleaned := filepath.Clean(rel)
	return cleaned != ".." && !strings.HasPrefix(cleaned, ".."+string(filepath.Separator))
}

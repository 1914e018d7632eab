// Package paths resolves configuration and data directory locations.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// AppName is the directory name used under the platform locations.
const AppName = "caprisystem"

// Environment variable names for directory overrides.
const (
	EnvConfigDir = "CAPRI_CONFIG_DIR"
	EnvDataDir   = "CAPRI_DATA_DIR"
)

// platform holds the OS lookups, overridden in tests.
var platform = struct {
	goos          string
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
}{
	goos:          runtime.GOOS,
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
}

// location is a per-user base directory: on Linux the XDG variable and its
// fallback under the home directory, elsewhere os.UserConfigDir.
type location struct {
	xdgEnv  string
	homeRel []string
}

var (
	configLocation = location{xdgEnv: "XDG_CONFIG_HOME", homeRel: []string{".config"}}
	dataLocation   = location{xdgEnv: "XDG_DATA_HOME", homeRel: []string{".local", "share"}}
)

func (l location) appDir() (string, error) {
	if platform.goos != "linux" {
		dir, err := platform.userConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, AppName), nil
	}
	if xdg := os.Getenv(l.xdgEnv); xdg != "" {
		return filepath.Join(xdg, AppName), nil
	}
	home, err := platform.homeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(append(append([]string{home}, l.homeRel...), AppName)...), nil
}

// DefaultConfigDir returns the platform default configuration directory:
// $XDG_CONFIG_HOME/caprisystem or ~/.config/caprisystem on Linux, and
// os.UserConfigDir()/caprisystem on macOS and Windows.
func DefaultConfigDir() (string, error) { return configLocation.appDir() }

// DefaultDataDir returns the platform default data directory:
// $XDG_DATA_HOME/caprisystem or ~/.local/share/caprisystem on Linux. macOS
// and Windows keep data next to the configuration.
func DefaultDataDir() (string, error) { return dataLocation.appDir() }

// firstSet returns the absolute form of the first non-empty candidate, or
// fallback() when all are empty.
func firstSet(fallback func() (string, error), candidates ...string) (string, error) {
	for _, c := range candidates {
		if c != "" {
			return filepath.Abs(c)
		}
	}
	return fallback()
}

// ResolveConfigDir returns the configuration directory:
// flag > CAPRI_CONFIG_DIR > DefaultConfigDir().
func ResolveConfigDir(flag string) (string, error) {
	return firstSet(DefaultConfigDir, flag, os.Getenv(EnvConfigDir))
}

// ResolveDataDir returns the data directory:
// flag > storage.data_dir from config.yaml > CAPRI_DATA_DIR > DefaultDataDir().
func ResolveDataDir(flag, configYAMLValue string) (string, error) {
	return firstSet(DefaultDataDir, flag, configYAMLValue, os.Getenv(EnvDataDir))
}

// Dirs is a resolved pair of directories.
type Dirs struct {
	Config string
	Data   string
}

// Resolve resolves both directories. configData loads the configuration
// found in the resolved config directory and returns its data directory,
// if any. It is always called so the caller can keep what it loaded.
func Resolve(configFlag, dataFlag string, configData func(configDir string) (string, error)) (Dirs, error) {
	cfg, err := ResolveConfigDir(configFlag)
	if err != nil {
		return Dirs{}, err
	}
	var fromConfig string
	if configData != nil {
		if fromConfig, err = configData(cfg); err != nil {
			return Dirs{}, err
		}
	}
	data, err := ResolveDataDir(dataFlag, fromConfig)
	if err != nil {
		return Dirs{}, err
	}
	return Dirs{Config: cfg, Data: data}, nil
}

// Package paths resolves the settings file and the embedded backend's data
// directory.
package paths

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
)

// File and directory names used when nothing overrides them.
const (
	SettingsFileName   = "appsettings.json"
	DefaultDataDirName = ".bookshelf-db"
	appDirName         = "bookshelf"
)

// Environment variable names for path overrides.
const (
	EnvSettings = "BOOKSHELF_SETTINGS"
	EnvDataDir  = "BOOKSHELF_DATA_DIR"
)

// platformDir holds platform-detection functions that can be overridden in tests.
var platformDir = struct {
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
	getwd         func() (string, error)
}{
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
	getwd:         os.Getwd,
}

// DefaultConfigDir returns the platform-specific configuration directory.
//
// Linux:   $XDG_CONFIG_HOME/bookshelf (fallback ~/.config/bookshelf)
// macOS:   ~/Library/Application Support/bookshelf
// Windows: %APPDATA%/bookshelf
func DefaultConfigDir() (string, error) {
	switch runtime.GOOS {
	case "linux":
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, appDirName), nil
		}
		home, err := platformDir.homeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".config", appDirName), nil
	default:
		dir, err := platformDir.userConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, appDirName), nil
	}
}

// ResolveSettingsFile returns the settings file path following the precedence
// chain: flag > BOOKSHELF_SETTINGS env > ./appsettings.json when it exists >
// DefaultConfigDir()/appsettings.json.
//
// The returned file need not exist; a missing settings file leaves every key
// at its default.
func ResolveSettingsFile(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(EnvSettings); env != "" {
		return filepath.Abs(env)
	}

	cwd, err := platformDir.getwd()
	if err != nil {
		return "", err
	}
	local := filepath.Join(cwd, SettingsFileName)
	if _, err := os.Stat(local); err == nil {
		return local, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", err
	}

	dir, err := DefaultConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, SettingsFileName), nil
}

// ResolveDataDir returns the SQLite data directory following the precedence
// chain: flag > settings value > BOOKSHELF_DATA_DIR env > $(CWD)/.bookshelf-db.
func ResolveDataDir(flag, settingsValue string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if settingsValue != "" {
		return filepath.Abs(settingsValue)
	}
	if env := os.Getenv(EnvDataDir); env != "" {
		return filepath.Abs(env)
	}
	cwd, err := platformDir.getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, DefaultDataDirName), nil
}

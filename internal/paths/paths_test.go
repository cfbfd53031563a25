package paths

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigDir_Linux(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("linux-only test")
	}

	t.Run("uses XDG_CONFIG_HOME when set", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg-config")
		got, err := DefaultConfigDir()
		require.NoError(t, err)
		assert.Equal(t, "/tmp/xdg-config/bookshelf", got)
	})

	t.Run("falls back to ~/.config when XDG unset", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "")
		home, err := os.UserHomeDir()
		require.NoError(t, err)

		got, err := DefaultConfigDir()
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(home, ".config", "bookshelf"), got)
	})
}

func TestDefaultConfigDir_Darwin(t *testing.T) {
	if runtime.GOOS != "darwin" {
		t.Skip("darwin-only test")
	}

	got, err := DefaultConfigDir()
	require.NoError(t, err)

	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "Library", "Application Support", "bookshelf"), got)
}

// withWorkDir points the getwd hook at dir for the duration of the test.
func withWorkDir(t *testing.T, dir string) {
	t.Helper()
	orig := platformDir.getwd
	platformDir.getwd = func() (string, error) { return dir, nil }
	t.Cleanup(func() { platformDir.getwd = orig })
}

func TestResolveSettingsFile(t *testing.T) {
	t.Run("flag wins over env", func(t *testing.T) {
		t.Setenv(EnvSettings, "/env/appsettings.json")
		got, err := ResolveSettingsFile("/explicit/settings.json")
		require.NoError(t, err)
		assert.Equal(t, "/explicit/settings.json", got)
	})

	t.Run("env wins when flag empty", func(t *testing.T) {
		t.Setenv(EnvSettings, "/env/appsettings.json")
		got, err := ResolveSettingsFile("")
		require.NoError(t, err)
		assert.Equal(t, "/env/appsettings.json", got)
	})

	t.Run("working directory file when present", func(t *testing.T) {
		t.Setenv(EnvSettings, "")
		dir := t.TempDir()
		withWorkDir(t, dir)
		local := filepath.Join(dir, SettingsFileName)
		require.NoError(t, os.WriteFile(local, []byte("{}"), 0o644))

		got, err := ResolveSettingsFile("")
		require.NoError(t, err)
		assert.Equal(t, local, got)
	})

	t.Run("platform default when nothing else", func(t *testing.T) {
		t.Setenv(EnvSettings, "")
		t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg-config")
		withWorkDir(t, t.TempDir())

		got, err := ResolveSettingsFile("")
		require.NoError(t, err)
		assert.Contains(t, got, "bookshelf")
		assert.Equal(t, SettingsFileName, filepath.Base(got))
	})

	t.Run("relative flag becomes absolute", func(t *testing.T) {
		got, err := ResolveSettingsFile("relative/appsettings.json")
		require.NoError(t, err)
		assert.True(t, filepath.IsAbs(got), "expected absolute path, got %s", got)
	})
}

func TestResolveDataDir(t *testing.T) {
	cwd := t.TempDir()
	withWorkDir(t, cwd)
	cwdDefault := filepath.Join(cwd, DefaultDataDirName)

	tests := []struct {
		name          string
		flag          string
		settingsValue string
		envVal        string
		want          string
	}{
		{
			name:          "flag wins over all",
			flag:          "/flag/data",
			settingsValue: "/config/data",
			envVal:        "/env/data",
			want:          "/flag/data",
		},
		{
			name:          "settings wins over env",
			settingsValue: "/config/data",
			envVal:        "/env/data",
			want:          "/config/data",
		},
		{
			name:   "env wins when flag and settings empty",
			envVal: "/env/data",
			want:   "/env/data",
		},
		{
			name: "CWD default when all empty",
			want: cwdDefault,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvDataDir, tt.envVal)
			got, err := ResolveDataDir(tt.flag, tt.settingsValue)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveDataDir_AbsolutePath(t *testing.T) {
	t.Run("relative flag becomes absolute", func(t *testing.T) {
		t.Setenv(EnvDataDir, "")
		got, err := ResolveDataDir("relative/path", "")
		require.NoError(t, err)
		assert.True(t, filepath.IsAbs(got), "expected absolute path, got %s", got)
	})

	t.Run("relative settings value becomes absolute", func(t *testing.T) {
		t.Setenv(EnvDataDir, "")
		got, err := ResolveDataDir("", "relative/config")
		require.NoError(t, err)
		assert.True(t, filepath.IsAbs(got), "expected absolute path, got %s", got)
	})
}

// Package settings loads appsettings.json: database connection, fixture
// location, and logging options. Keys are addressed with ':' as the
// delimiter ("db:server"), and any key can be overridden from the environment
// as BOOKSHELF_<SECTION>_<KEY> (for example BOOKSHELF_DB_PASSWORD). A .env
// file next to the settings file is loaded into the environment first.
package settings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/lizasixsixsix/m1001/pkg/types"
)

// Settings keys.
const (
	KeyBackend        = "db:backend"
	KeyServer         = "db:server"
	KeyDatabase       = "db:database"
	KeyAuthDatabase   = "db:authDatabase"
	KeyUsername       = "db:username"
	KeyPassword       = "db:password"
	KeyDataDir        = "db:dataDir"
	KeyConnectTimeout = "db:connectTimeout"

	KeyFixturePath       = "fixture:path"
	KeyFixtureCollection = "fixture:collection"

	KeyLogLevel  = "log:level"
	KeyLogFormat = "log:format"
)

// Defaults applied before the settings file is read.
const (
	DefaultBackend    = types.BackendMongo
	DefaultServer     = "localhost:27017"
	DefaultDatabase   = "mentoring"
	DefaultCollection = "Books"
	DefaultLogLevel   = "info"
	DefaultLogFormat  = "console"

	envPrefix = "BOOKSHELF"
	envFile   = ".env"
)

// Fixture locates the seed data. An empty Path selects the embedded fixture.
type Fixture struct {
	Path       string
	Collection string
}

// Log carries logger options.
type Log struct {
	Level  string
	Format string
}

// Settings is the resolved content of the settings file.
type Settings struct {
	// File is the settings file that was read, or "" when none existed.
	File    string
	DB      types.Config
	Fixture Fixture
	Log     Log
}

// Load reads the settings file at path. A missing file is not an error:
// defaults and environment overrides still apply.
func Load(path string) (*Settings, error) {
	if path != "" {
		if err := loadDotEnv(filepath.Dir(path)); err != nil {
			return nil, err
		}
	}

	v := newViper()

	var file string
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read settings %s: %w", path, err)
			}
			file = path
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("stat settings %s: %w", path, err)
		}
	}

	s := &Settings{
		File: file,
		DB: types.Config{
			Backend:        v.GetString(KeyBackend),
			Server:         v.GetString(KeyServer),
			Database:       v.GetString(KeyDatabase),
			AuthDatabase:   v.GetString(KeyAuthDatabase),
			Username:       v.GetString(KeyUsername),
			Password:       v.GetString(KeyPassword),
			DataDir:        v.GetString(KeyDataDir),
			ConnectTimeout: v.GetDuration(KeyConnectTimeout),
		},
		Fixture: Fixture{
			Path:       v.GetString(KeyFixturePath),
			Collection: v.GetString(KeyFixtureCollection),
		},
		Log: Log{
			Level:  v.GetString(KeyLogLevel),
			Format: v.GetString(KeyLogFormat),
		},
	}

	// A relative fixture path is relative to the settings file.
	if s.Fixture.Path != "" && file != "" && !filepath.IsAbs(s.Fixture.Path) {
		s.Fixture.Path = filepath.Join(filepath.Dir(file), s.Fixture.Path)
	}

	return s, nil
}

// WriteDefault writes a settings file holding the default values. It does
// not overwrite an existing file and reports whether it wrote one.
func WriteDefault(path string) (bool, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("create settings dir: %w", err)
	}

	v := newViper()
	v.Set(KeyUsername, "")
	v.Set(KeyPassword, "")
	if err := v.SafeWriteConfigAs(path); err != nil {
		var exists viper.ConfigFileAlreadyExistsError
		if errors.As(err, &exists) {
			return false, nil
		}
		return false, fmt.Errorf("write settings %s: %w", path, err)
	}
	return true, nil
}

// newViper returns a viper instance with the ':' delimiter, defaults, and
// environment binding in place.
func newViper() *viper.Viper {
	v := viper.NewWithOptions(viper.KeyDelimiter(":"))
	v.SetConfigType("json")

	v.SetDefault(KeyBackend, DefaultBackend)
	v.SetDefault(KeyServer, DefaultServer)
	v.SetDefault(KeyDatabase, DefaultDatabase)
	v.SetDefault(KeyConnectTimeout, types.DefaultConnectTimeout.String())
	v.SetDefault(KeyFixtureCollection, DefaultCollection)
	v.SetDefault(KeyLogLevel, DefaultLogLevel)
	v.SetDefault(KeyLogFormat, DefaultLogFormat)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(":", "_"))
	v.AutomaticEnv()
	return v
}

// loadDotEnv loads dir/.env into the process environment. Variables that are
// already set keep their values. A missing file is not an error.
func loadDotEnv(dir string) error {
	path := filepath.Join(dir, envFile)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

package types

import (
	"errors"
	"time"
)

// Config holds backend selection and connection parameters for Shelf.Attach.
type Config struct {
	Backend        string        `json:"backend"`
	Server         string        `json:"server"`
	Database       string        `json:"database"`
	AuthDatabase   string        `json:"authDatabase,omitempty"`
	Username       string        `json:"username,omitempty"`
	Password       string        `json:"password,omitempty"`
	DataDir        string        `json:"dataDir,omitempty"`
	ConnectTimeout time.Duration `json:"connectTimeout,omitempty"`
}

// Supported backend names.
const (
	BackendMongo  = "mongo"
	BackendSQLite = "sqlite"
)

// DefaultConnectTimeout bounds connecting and pinging when Config leaves it unset.
const DefaultConnectTimeout = 10 * time.Second

// Config validation errors.
var (
	ErrBackendEmpty          = errors.New("backend must not be empty")
	ErrBackendUnknown        = errors.New("unknown backend")
	ErrServerEmpty           = errors.New("server must not be empty")
	ErrDatabaseEmpty         = errors.New("database must not be empty")
	ErrCredentialsIncomplete = errors.New("password given without username")
	ErrTimeoutInvalid        = errors.New("connect timeout must not be negative")
)

// knownBackends lists the backends that Validate accepts.
var knownBackends = map[string]bool{
	BackendMongo:  true,
	BackendSQLite: true,
}

// Validate checks that the Config is well-formed for its backend. It returns
// a sentinel error from this package on failure.
func (c Config) Validate() error {
	if c.Backend == "" {
		return ErrBackendEmpty
	}
	if !knownBackends[c.Backend] {
		return ErrBackendUnknown
	}
	if c.ConnectTimeout < 0 {
		return ErrTimeoutInvalid
	}
	if c.Backend != BackendMongo {
		return nil
	}
	if c.Server == "" {
		return ErrServerEmpty
	}
	if c.Database == "" {
		return ErrDatabaseEmpty
	}
	if c.Password != "" && c.Username == "" {
		return ErrCredentialsIncomplete
	}
	return nil
}

// GetConnectTimeout returns the connect timeout, or DefaultConnectTimeout when unset.
func (c Config) GetConnectTimeout() time.Duration {
	if c.ConnectTimeout <= 0 {
		return DefaultConnectTimeout
	}
	return c.ConnectTimeout
}

// GetAuthDatabase returns the database credentials are checked against.
// Defaults to Database.
func (c Config) GetAuthDatabase() string {
	if c.AuthDatabase != "" {
		return c.AuthDatabase
	}
	return c.Database
}

// Redacted returns a copy safe to log.
func (c Config) Redacted() Config {
	if c.Password != "" {
		c.Password = "****"
	}
	return c
}

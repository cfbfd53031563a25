// Package cli implements the bookshelf command-line interface: seeding the
// books collection from its fixture and inspecting or adjusting it.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lizasixsixsix/m1001/internal/fixture"
	"github.com/lizasixsixsix/m1001/internal/logging"
	"github.com/lizasixsixsix/m1001/internal/paths"
	"github.com/lizasixsixsix/m1001/internal/settings"
	"github.com/lizasixsixsix/m1001/pkg/shelf"
	"github.com/lizasixsixsix/m1001/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	settingsFile string
	backend      string
	dataDir      string
	jsonMode     bool
	logLevel     string
}

// session is what PersistentPreRunE resolves for the subcommands.
type session struct {
	settings *settings.Settings
	log      *zap.Logger
}

var (
	flags rootFlags
	sess  session
)

// NewRootCmd creates the top-level "bookshelf" command with global flags
// and all subcommands registered.
func NewRootCmd() *cobra.Command {
	flags = rootFlags{}
	sess = session{}

	root := &cobra.Command{
		Use:     "bookshelf",
		Short:   "Seed and inspect the books collection",
		Long:    "Bookshelf loads the books fixture into MongoDB or an embedded SQLite\ndatabase and runs the queries the integration suites assert on.",
		Version: shelf.Version,
		// Do not print usage on errors returned by subcommands.
		SilenceUsage:      true,
		SilenceErrors:     true,
		Args:              usageArgs(cobra.NoArgs),
		PersistentPreRunE: setup,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError(err)
	})

	pf := root.PersistentFlags()
	pf.StringVar(&flags.settingsFile, "settings", "", "settings file (default: ./appsettings.json, then the user config dir)")
	pf.StringVar(&flags.backend, "backend", "", "storage backend: mongo or sqlite (overrides db:backend)")
	pf.StringVar(&flags.dataDir, "data-dir", "", "sqlite data directory (default: .bookshelf-db)")
	pf.BoolVar(&flags.jsonMode, "json", false, "output in JSON format")
	pf.StringVar(&flags.logLevel, "log-level", "", "log level: debug, info, warn, error (overrides log:level)")

	root.AddCommand(
		newVersionCmd(),
		newInitCmd(),
		newSeedCmd(),
		newStatsCmd(),
		newListCmd(),
		newRestockCmd(),
		newTagCmd(),
		newPruneCmd(),
		newDropCmd(),
	)
	return root
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	root := NewRootCmd()
	err := root.Execute()
	if sess.log != nil {
		_ = sess.log.Sync()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitCode(err))
	}
	os.Exit(exitSuccess)
}

// setup loads settings, applies flag overrides, and builds the logger.
func setup(cmd *cobra.Command, args []string) error {
	path, err := paths.ResolveSettingsFile(flags.settingsFile)
	if err != nil {
		return fmt.Errorf("resolve settings file: %w", err)
	}
	s, err := settings.Load(path)
	if err != nil {
		return err
	}
	if s.File == "" {
		s.File = path
	}

	if flags.backend != "" {
		s.DB.Backend = flags.backend
	}
	if flags.logLevel != "" {
		s.Log.Level = flags.logLevel
	}
	if s.DB.Backend == types.BackendSQLite {
		dir, err := paths.ResolveDataDir(flags.dataDir, s.DB.DataDir)
		if err != nil {
			return fmt.Errorf("resolve data dir: %w", err)
		}
		s.DB.DataDir = dir
	}

	log, err := logging.New(logging.Options{
		Level:  s.Log.Level,
		Format: s.Log.Format,
		Output: cmd.ErrOrStderr(),
	})
	if err != nil {
		return usageError(err)
	}

	sess = session{settings: s, log: log}
	log.Debug("settings loaded", zap.String("file", s.File), zap.Any("db", s.DB.Redacted()))
	return nil
}

// openShelf attaches the configured backend. The caller must Detach it.
func openShelf(ctx context.Context) (types.Shelf, error) {
	return shelf.Open(ctx, sess.settings.DB, sess.log)
}

// withCollection opens the shelf, hands the fixture collection to fn, and
// detaches afterwards.
func withCollection(ctx context.Context, fn func(types.Shelf, types.Collection) error) error {
	sh, err := openShelf(ctx)
	if err != nil {
		return err
	}
	defer sh.Detach(ctx)

	coll, err := sh.Collection(sess.settings.Fixture.Collection)
	if err != nil {
		return err
	}
	return fn(sh, coll)
}

// errUsage marks errors in how the command was invoked: bad flags,
// arguments, or flag combinations.
type errUsage struct{ err error }

func (e errUsage) Error() string { return e.err.Error() }
func (e errUsage) Unwrap() error { return e.err }

func usageError(err error) error {
	if err == nil {
		return nil
	}
	return errUsage{err: err}
}

// usageArgs marks positional argument errors from fn as usage errors.
func usageArgs(fn cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		return usageError(fn(cmd, args))
	}
}

// userErrors are the sentinels that mean the input was wrong.
var userErrors = []error{
	types.ErrBackendEmpty,
	types.ErrBackendUnknown,
	types.ErrServerEmpty,
	types.ErrDatabaseEmpty,
	types.ErrCredentialsIncomplete,
	types.ErrTimeoutInvalid,
	types.ErrInvalidCollectionName,
	types.ErrInvalidField,
	types.ErrInvalidFilter,
	types.ErrInvalidUpdate,
	types.ErrInvalidData,
	types.ErrNotFound,
	fixture.ErrNotArray,
	fixture.ErrEmpty,
}

func isUserError(err error) bool {
	var usage errUsage
	if errors.As(err, &usage) {
		return true
	}
	for _, target := range userErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// exitCode maps an error to the process exit code. Anything that is not a
// user error is a system error.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitSuccess
	case isUserError(err):
		return exitUserError
	default:
		return exitSysError
	}
}

package integration

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcmongo "github.com/testcontainers/testcontainers-go/modules/mongodb"
	"go.uber.org/zap/zaptest"

	"github.com/lizasixsixsix/m1001/internal/fixture"
	"github.com/lizasixsixsix/m1001/internal/mongodb"
	"github.com/lizasixsixsix/m1001/internal/settings"
	"github.com/lizasixsixsix/m1001/pkg/shelf"
	"github.com/lizasixsixsix/m1001/pkg/types"
)

const (
	// envSkipMongo disables every mongo-backed test when set.
	envSkipMongo = "BOOKSHELF_SKIP_MONGO"
	// envTestSettings names a settings file pointing at a real server.
	envTestSettings = "BOOKSHELF_TEST_SETTINGS"
	// realSettingsFile is picked up from the project root when present.
	realSettingsFile = "appsettings.real.json"

	mongoImage    = "mongo:7"
	testDatabase  = "bookshelf_test"
	booksFixture  = settings.DefaultCollection
	startupBudget = 2 * time.Minute
)

// mongoEnv is the server shared by every mongo test in the package. It is
// resolved once: a settings file wins, otherwise a container is started.
var mongoEnv struct {
	once      sync.Once
	config    types.Config
	container *tcmongo.MongoDBContainer
	skip      string
	err       error
}

// mongoConfig returns the config of the shared server, skipping the test when
// no server can be had.
func mongoConfig(t *testing.T) types.Config {
	t.Helper()
	if testing.Short() {
		t.Skip("mongo tests skipped in -short mode")
	}
	if os.Getenv(envSkipMongo) != "" {
		t.Skipf("%s is set", envSkipMongo)
	}

	mongoEnv.once.Do(startMongo)
	if mongoEnv.skip != "" {
		t.Skip(mongoEnv.skip)
	}
	require.NoError(t, mongoEnv.err, "mongo setup")
	return mongoEnv.config
}

func startMongo() {
	if cfg, ok, err := settingsMongo(); err != nil || ok {
		mongoEnv.config, mongoEnv.err = cfg, err
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), startupBudget)
	defer cancel()

	provider, err := testcontainers.NewDockerProvider()
	if err == nil {
		err = provider.Health(ctx)
		provider.Close()
	}
	if err != nil {
		mongoEnv.skip = fmt.Sprintf("no settings file and docker is unavailable: %v", err)
		return
	}

	container, err := tcmongo.Run(ctx, mongoImage)
	if err != nil {
		mongoEnv.err = fmt.Errorf("start %s: %w", mongoImage, err)
		return
	}
	mongoEnv.container = container

	uri, err := container.ConnectionString(ctx)
	if err != nil {
		mongoEnv.err = fmt.Errorf("connection string: %w", err)
		return
	}
	mongoEnv.config = types.Config{
		Backend:  types.BackendMongo,
		Server:   uri,
		Database: testDatabase,
	}
}

// settingsMongo reads the real-server settings file, if any.
func settingsMongo() (types.Config, bool, error) {
	path := os.Getenv(envTestSettings)
	if path == "" {
		root, err := FindProjectRoot()
		if err != nil {
			return types.Config{}, false, nil
		}
		path = filepath.Join(root, realSettingsFile)
	}

	s, err := settings.Load(path)
	if err != nil {
		return types.Config{}, false, err
	}
	if s.File == "" || s.DB.Backend != types.BackendMongo {
		return types.Config{}, false, nil
	}
	return s.DB, true, nil
}

// stopMongo terminates the container started by startMongo.
func stopMongo() {
	if mongoEnv.container == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	// Terminate the container (ignoring errors since we're cleaning up)
	_ = mongoEnv.container.Terminate(ctx)
}

// backend names a Shelf factory the typed suite runs against.
type backend struct {
	name string
	open func(t *testing.T) types.Shelf
}

// backends lists every backend the typed suite covers.
func backends() []backend {
	return []backend{
		{name: types.BackendSQLite, open: openSQLite},
		{name: types.BackendMongo, open: openMongo},
	}
}

func openSQLite(t *testing.T) types.Shelf {
	t.Helper()
	return attach(t, types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()})
}

func openMongo(t *testing.T) types.Shelf {
	t.Helper()
	return attach(t, mongoConfig(t))
}

func attach(t *testing.T, cfg types.Config) types.Shelf {
	t.Helper()
	ctx := context.Background()
	sh, err := shelf.Open(ctx, cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { sh.Detach(ctx) })
	return sh
}

// seed drops, recreates, and loads the books collection from the fixture.
func seed(t *testing.T, sh types.Shelf) types.Collection {
	t.Helper()
	set, err := fixture.Default()
	require.NoError(t, err)
	coll, err := fixture.Seed(context.Background(), sh, booksFixture, set, zaptest.NewLogger(t))
	require.NoError(t, err)
	return coll
}

// seedRaw seeds the books collection on mongo and returns the concrete handle
// for the extended-JSON operations.
func seedRaw(t *testing.T) *mongodb.Collection {
	t.Helper()
	ctx := context.Background()

	b := mongodb.NewBackend(zaptest.NewLogger(t))
	require.NoError(t, b.Attach(ctx, mongoConfig(t)))
	t.Cleanup(func() { b.Detach(ctx) })

	seed(t, b)
	coll, err := b.Raw(booksFixture)
	require.NoError(t, err)
	return coll
}

// Package shelf provides the public API for opening a bookshelf backend.
// It exposes the factory functions while keeping the backend implementations
// internal.
package shelf

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/lizasixsixsix/m1001/internal/mongodb"
	"github.com/lizasixsixsix/m1001/internal/sqlite"
	"github.com/lizasixsixsix/m1001/pkg/types"
)

// Version is the bookshelf release version.
const Version = "0.1.0"

// New creates a detached Shelf for the named backend. A nil logger discards
// output.
//
// Example:
//
//	sh, err := shelf.New(types.BackendSQLite, nil)
//	err = sh.Attach(ctx, types.Config{
//	    Backend: types.BackendSQLite,
//	    DataDir: ".bookshelf-db",
//	})
//	defer sh.Detach(ctx)
func New(backend string, log *zap.Logger) (types.Shelf, error) {
	switch backend {
	case types.BackendMongo:
		return mongodb.NewBackend(log), nil
	case types.BackendSQLite:
		return sqlite.NewBackend(log), nil
	case "":
		return nil, types.ErrBackendEmpty
	default:
		return nil, fmt.Errorf("%w: %q", types.ErrBackendUnknown, backend)
	}
}

// Open creates the Shelf named by config.Backend and attaches it. The caller
// must Detach the returned Shelf.
func Open(ctx context.Context, config types.Config, log *zap.Logger) (types.Shelf, error) {
	sh, err := New(config.Backend, log)
	if err != nil {
		return nil, err
	}
	if err := sh.Attach(ctx, config); err != nil {
		return nil, fmt.Errorf("attach %s: %w", config.Backend, err)
	}
	return sh, nil
}

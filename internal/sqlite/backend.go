// Package sqlite implements the embedded SQLite backend for the bookshelf
// storage layer. SQLite is the query engine; one JSONL snapshot per
// collection in DataDir is the source of truth across Attach cycles.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/lizasixsixsix/m1001/internal/logging"
	"github.com/lizasixsixsix/m1001/pkg/types"
)

// Backend implements types.Shelf on top of SQLite.
type Backend struct {
	mu          sync.RWMutex
	attached    bool
	config      types.Config
	dataDir     string
	db          *sql.DB
	log         *zap.Logger
	collections map[string]*Collection
}

// NewBackend creates a new SQLite backend instance. A nil logger discards
// output. The backend is not attached; call Attach with a Config to
// initialize.
func NewBackend(log *zap.Logger) *Backend {
	return &Backend{
		log:         logging.OrNop(log).Named("sqlite"),
		collections: make(map[string]*Collection),
	}
}

// Attach creates DataDir if needed, opens a fresh SQLite database, and loads
// every JSONL snapshot found in DataDir.
// Returns ErrAlreadyAttached if already attached.
func (b *Backend) Attach(ctx context.Context, config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}
	if err := config.Validate(); err != nil {
		return err
	}
	if config.Backend != types.BackendSQLite {
		return fmt.Errorf("%w: %q is not %q", types.ErrBackendUnknown, config.Backend, types.BackendSQLite)
	}

	dataDir := config.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return err
	}

	// The database is rebuilt from snapshots, never reused.
	dbPath := filepath.Join(dataDir, dbFileName)
	_ = os.Remove(dbPath)

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return err
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("open %s: %w", dbPath, err)
	}

	if err := loadSnapshots(ctx, db, dataDir); err != nil {
		db.Close()
		return fmt.Errorf("load snapshots: %w", err)
	}

	b.db = db
	b.config = config
	b.dataDir = dataDir
	b.attached = true

	b.log.Info("attached", zap.String("data_dir", dataDir))
	return nil
}

// Detach closes the SQLite connection. After Detach, all operations return
// ErrShelfDetached. Detach is idempotent.
func (b *Backend) Detach(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}

	if b.db != nil {
		if err := b.db.Close(); err != nil {
			return err
		}
		b.db = nil
	}

	b.attached = false
	b.collections = make(map[string]*Collection)

	b.log.Info("detached", zap.String("data_dir", b.dataDir))
	return nil
}

// Collection returns the named collection handle.
func (b *Backend) Collection(name string) (types.Collection, error) {
	if err := types.ValidateCollectionName(name); err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil, types.ErrShelfDetached
	}
	c, ok := b.collections[name]
	if !ok {
		c = &Collection{name: name, backend: b}
		b.collections[name] = c
	}
	return c, nil
}

// CreateCollection creates the collection's table and an empty snapshot.
func (b *Backend) CreateCollection(ctx context.Context, name string) error {
	if err := types.ValidateCollectionName(name); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return types.ErrShelfDetached
	}
	if _, err := b.tableExists(ctx, name); err != nil {
		return err
	}
	if _, err := b.db.ExecContext(ctx, createTableSQL(name)); err != nil {
		return fmt.Errorf("creating %s: %w", name, err)
	}

	path := snapshotPath(b.dataDir, name)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := writeJSONL(path, nil); err != nil {
			return err
		}
	}
	b.log.Debug("collection created", zap.String("collection", name))
	return nil
}

// DropCollection drops the table and removes its snapshot.
func (b *Backend) DropCollection(ctx context.Context, name string) error {
	if err := types.ValidateCollectionName(name); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return types.ErrShelfDetached
	}
	if _, err := b.tableExists(ctx, name); err != nil {
		return err
	}
	if _, err := b.db.ExecContext(ctx, "DROP TABLE IF EXISTS "+quoteIdent(name)); err != nil {
		return fmt.Errorf("dropping %s: %w", name, err)
	}
	if err := os.Remove(snapshotPath(b.dataDir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing snapshot of %s: %w", name, err)
	}
	b.log.Debug("collection dropped", zap.String("collection", name))
	return nil
}

// CollectionNames lists the collection tables in name order.
func (b *Backend) CollectionNames(ctx context.Context) ([]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrShelfDetached
	}

	rows, err := b.db.QueryContext(ctx,
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("listing collections: %w", err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// tableExists reports whether the collection's table has been created.
// SQLite matches table names without regard to case, so a table whose name
// differs from name only in case is reported as ErrInvalidCollectionName.
// The caller must hold b.mu.
func (b *Backend) tableExists(ctx context.Context, name string) (bool, error) {
	var existing string
	err := b.db.QueryRowContext(ctx,
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name = ? COLLATE NOCASE", name).Scan(&existing)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("checking table %s: %w", name, err)
	case existing != name:
		return false, fmt.Errorf("%w: %q differs from collection %q only in case",
			types.ErrInvalidCollectionName, name, existing)
	}
	return true, nil
}

// newUUID generates a UUID v7 string for record IDs.
func newUUID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

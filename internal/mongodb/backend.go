// Package mongodb implements the bookshelf storage layer on MongoDB through
// the official Go driver. Besides the typed Collection operations it exposes
// raw extended-JSON filters and the mapReduce command.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"github.com/lizasixsixsix/m1001/internal/logging"
	"github.com/lizasixsixsix/m1001/pkg/types"
)

// codeNamespaceExists is the server error returned by create on an existing
// collection.
const codeNamespaceExists = 48

// Backend implements types.Shelf on a MongoDB database.
type Backend struct {
	mu          sync.RWMutex
	attached    bool
	config      types.Config
	client      *mongo.Client
	db          *mongo.Database
	log         *zap.Logger
	collections map[string]*Collection
}

// NewBackend creates a detached MongoDB backend. A nil logger discards output.
func NewBackend(log *zap.Logger) *Backend {
	return &Backend{
		log:         logging.OrNop(log).Named("mongodb"),
		collections: make(map[string]*Collection),
	}
}

// Attach connects to the server named in config and pings it.
func (b *Backend) Attach(ctx context.Context, config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}
	if err := config.Validate(); err != nil {
		return err
	}
	if config.Backend != types.BackendMongo {
		return fmt.Errorf("%w: %q is not %q", types.ErrBackendUnknown, config.Backend, types.BackendMongo)
	}

	client, err := mongo.Connect(ctx, clientOptions(config))
	if err != nil {
		return fmt.Errorf("connect %s: %w", config.Server, err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, config.GetConnectTimeout())
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return fmt.Errorf("ping %s: %w", config.Server, err)
	}

	b.client = client
	b.db = client.Database(config.Database)
	b.config = config
	b.attached = true

	b.log.Info("attached",
		zap.String("server", config.Server),
		zap.String("database", config.Database),
		zap.Bool("auth", config.Username != ""))
	return nil
}

// Detach disconnects the client. Detach is idempotent.
func (b *Backend) Detach(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}
	if err := b.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("disconnect: %w", err)
	}

	b.client = nil
	b.db = nil
	b.attached = false
	b.collections = make(map[string]*Collection)

	b.log.Info("detached", zap.String("server", b.config.Server))
	return nil
}

// Collection returns the named collection handle.
func (b *Backend) Collection(name string) (types.Collection, error) {
	return b.Raw(name)
}

// Raw returns the concrete collection handle, which adds the extended-JSON
// and map-reduce operations to types.Collection.
func (b *Backend) Raw(name string) (*Collection, error) {
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

// CreateCollection creates an empty collection. An existing collection is
// left alone.
func (b *Backend) CreateCollection(ctx context.Context, name string) error {
	if err := types.ValidateCollectionName(name); err != nil {
		return err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return types.ErrShelfDetached
	}
	err := b.db.CreateCollection(ctx, name)
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) && cmdErr.Code == codeNamespaceExists {
		err = nil
	}
	if err != nil {
		return fmt.Errorf("creating %s: %w", name, err)
	}
	b.log.Debug("collection created", zap.String("collection", name))
	return nil
}

// DropCollection drops the collection. The driver ignores missing
// collections.
func (b *Backend) DropCollection(ctx context.Context, name string) error {
	if err := types.ValidateCollectionName(name); err != nil {
		return err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return types.ErrShelfDetached
	}
	if err := b.db.Collection(name).Drop(ctx); err != nil {
		return fmt.Errorf("dropping %s: %w", name, err)
	}
	b.log.Debug("collection dropped", zap.String("collection", name))
	return nil
}

// CollectionNames lists user collections in name order.
func (b *Backend) CollectionNames(ctx context.Context) ([]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrShelfDetached
	}
	names, err := b.db.ListCollectionNames(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("listing collections: %w", err)
	}
	names = slices.DeleteFunc(names, func(n string) bool { return strings.HasPrefix(n, "system.") })
	slices.Sort(names)
	return names, nil
}

// connectionURI turns the configured server into a connection string. A
// server that already carries a scheme is used as is.
func connectionURI(server string) string {
	if strings.HasPrefix(server, "mongodb://") || strings.HasPrefix(server, "mongodb+srv://") {
		return server
	}
	return "mongodb://" + server
}

// clientOptions builds driver options from config. Credentials are checked
// against the auth database, which defaults to the working database.
func clientOptions(config types.Config) *options.ClientOptions {
	timeout := config.GetConnectTimeout()
	opts := options.Client().
		ApplyURI(connectionURI(config.Server)).
		SetConnectTimeout(timeout).
		SetServerSelectionTimeout(timeout)

	if config.Username != "" {
		opts.SetAuth(options.Credential{
			Username:   config.Username,
			Password:   config.Password,
			AuthSource: config.GetAuthDatabase(),
		})
	}
	return opts
}

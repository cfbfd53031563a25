package mongodb

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lizasixsixsix/m1001/pkg/types"
)

func TestConnectionURI(t *testing.T) {
	assert.Equal(t, "mongodb://localhost:27017", connectionURI("localhost:27017"))
	assert.Equal(t, "mongodb://db:27017/?replicaSet=rs0", connectionURI("mongodb://db:27017/?replicaSet=rs0"))
	assert.Equal(t, "mongodb+srv://cluster.example.net", connectionURI("mongodb+srv://cluster.example.net"))
}

func TestClientOptions(t *testing.T) {
	t.Run("no credentials", func(t *testing.T) {
		opts := clientOptions(types.Config{Backend: types.BackendMongo, Server: "localhost:27017", Database: "mentoring"})
		assert.Nil(t, opts.Auth)
		require.NotNil(t, opts.ConnectTimeout)
		assert.Equal(t, types.DefaultConnectTimeout, *opts.ConnectTimeout)
		require.NotNil(t, opts.ServerSelectionTimeout)
		assert.Equal(t, types.DefaultConnectTimeout, *opts.ServerSelectionTimeout)
	})

	t.Run("auth source defaults to database", func(t *testing.T) {
		opts := clientOptions(types.Config{
			Backend:        types.BackendMongo,
			Server:         "localhost:27017",
			Database:       "mentoring",
			Username:       "reader",
			Password:       "secret",
			ConnectTimeout: 3 * time.Second,
		})
		require.NotNil(t, opts.Auth)
		assert.Equal(t, "reader", opts.Auth.Username)
		assert.Equal(t, "secret", opts.Auth.Password)
		assert.Equal(t, "mentoring", opts.Auth.AuthSource)
		assert.Equal(t, 3*time.Second, *opts.ConnectTimeout)
	})

	t.Run("explicit auth database", func(t *testing.T) {
		opts := clientOptions(types.Config{
			Backend:      types.BackendMongo,
			Server:       "localhost:27017",
			Database:     "mentoring",
			AuthDatabase: "admin",
			Username:     "root",
		})
		require.NotNil(t, opts.Auth)
		assert.Equal(t, "admin", opts.Auth.AuthSource)
	})
}

func TestBackend_AttachRejectsConfig(t *testing.T) {
	tests := []struct {
		name    string
		config  types.Config
		wantErr error
	}{
		{"empty backend", types.Config{}, types.ErrBackendEmpty},
		{"no server", types.Config{Backend: types.BackendMongo, Database: "mentoring"}, types.ErrServerEmpty},
		{"no database", types.Config{Backend: types.BackendMongo, Server: "localhost:27017"}, types.ErrDatabaseEmpty},
		{"password without user", types.Config{Backend: types.BackendMongo, Server: "localhost:27017", Database: "m", Password: "x"}, types.ErrCredentialsIncomplete},
		{"sqlite config", types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}, types.ErrBackendUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewBackend(nil).Attach(context.Background(), tt.config)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestBackend_Detached(t *testing.T) {
	ctx := context.Background()
	b := NewBackend(nil)

	assert.NoError(t, b.Detach(ctx), "detaching a detached backend succeeds")

	_, err := b.Collection("Books")
	assert.ErrorIs(t, err, types.ErrShelfDetached)
	assert.ErrorIs(t, b.CreateCollection(ctx, "Books"), types.ErrShelfDetached)
	assert.ErrorIs(t, b.DropCollection(ctx, "Books"), types.ErrShelfDetached)
	_, err = b.CollectionNames(ctx)
	assert.ErrorIs(t, err, types.ErrShelfDetached)

	_, err = b.Raw("not a name")
	assert.ErrorIs(t, err, types.ErrInvalidCollectionName)
}

func TestCollection_Detached(t *testing.T) {
	ctx := context.Background()
	c := &Collection{name: "Books", backend: NewBackend(nil)}

	_, err := c.Count(ctx, types.All())
	assert.ErrorIs(t, err, types.ErrShelfDetached)
	_, err = c.CountJSON(ctx, `{}`)
	assert.ErrorIs(t, err, types.ErrShelfDetached)
	_, err = c.MapReduce(ctx, "function() { emit(1, this.count); }", "function(k, v) { return Array.sum(v); }")
	assert.ErrorIs(t, err, types.ErrShelfDetached)

	ids, err := c.Insert(ctx)
	require.NoError(t, err, "inserting nothing is a no-op")
	assert.Empty(t, ids)
}

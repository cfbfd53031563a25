// Tests for the SQLite backend lifecycle and collection management.
package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lizasixsixsix/m1001/pkg/types"
)

// attach returns a backend attached to a fresh temp directory.
func attach(t *testing.T) (*Backend, string) {
	t.Helper()
	dir := t.TempDir()
	b := NewBackend(nil)
	require.NoError(t, b.Attach(context.Background(), types.Config{
		Backend: types.BackendSQLite,
		DataDir: dir,
	}))
	t.Cleanup(func() { b.Detach(context.Background()) })
	return b, dir
}

// seedBooks returns the five shelf records used across the package tests.
func seedBooks() []*types.Book {
	return []*types.Book{
		{Name: "Hobbit", Author: "Tolkien", Count: 5, Genre: []string{"fantasy"}, Year: 2014},
		{Name: "Lord of the rings", Author: "Tolkien", Count: 3, Genre: []string{"fantasy"}, Year: 2015},
		{Name: "Kolobok", Count: 10, Genre: []string{"kids"}, Year: 2000},
		{Name: "Repka", Count: 11, Genre: []string{"kids"}, Year: 2000},
		{Name: "Dyadya Stiopa", Author: "Mihalkov", Count: 1, Genre: []string{"kids"}, Year: 2001},
	}
}

// seeded returns a Books collection holding seedBooks.
func seeded(t *testing.T) (*Backend, types.Collection, string) {
	t.Helper()
	b, dir := attach(t)
	coll, err := b.Collection("Books")
	require.NoError(t, err)
	_, err = coll.Insert(context.Background(), seedBooks()...)
	require.NoError(t, err)
	return b, coll, dir
}

func TestBackend_Attach(t *testing.T) {
	b, dir := attach(t)

	_, err := os.Stat(filepath.Join(dir, dbFileName))
	assert.NoError(t, err, "database file should exist")

	err = b.Attach(context.Background(), types.Config{Backend: types.BackendSQLite, DataDir: dir})
	assert.ErrorIs(t, err, types.ErrAlreadyAttached)
}

func TestBackend_AttachRejectsConfig(t *testing.T) {
	tests := []struct {
		name    string
		config  types.Config
		wantErr error
	}{
		{"empty backend", types.Config{DataDir: t.TempDir()}, types.ErrBackendEmpty},
		{"unknown backend", types.Config{Backend: "postgres"}, types.ErrBackendUnknown},
		{"mongo config", types.Config{Backend: types.BackendMongo, Server: "localhost:27017", Database: "x"}, types.ErrBackendUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBackend(nil)
			err := b.Attach(context.Background(), tt.config)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestBackend_AttachCreatesDataDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	b := NewBackend(nil)
	require.NoError(t, b.Attach(context.Background(), types.Config{Backend: types.BackendSQLite, DataDir: dir}))
	defer b.Detach(context.Background())

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestBackend_Detach(t *testing.T) {
	ctx := context.Background()
	b, _ := attach(t)

	require.NoError(t, b.Detach(ctx))
	assert.NoError(t, b.Detach(ctx), "second Detach should succeed")

	_, err := b.Collection("Books")
	assert.ErrorIs(t, err, types.ErrShelfDetached)
	assert.ErrorIs(t, b.CreateCollection(ctx, "Books"), types.ErrShelfDetached)
	assert.ErrorIs(t, b.DropCollection(ctx, "Books"), types.ErrShelfDetached)
	_, err = b.CollectionNames(ctx)
	assert.ErrorIs(t, err, types.ErrShelfDetached)
}

func TestBackend_HandleAfterDetach(t *testing.T) {
	ctx := context.Background()
	b, coll, _ := seeded(t)
	require.NoError(t, b.Detach(ctx))

	_, err := coll.Count(ctx, types.All())
	assert.ErrorIs(t, err, types.ErrShelfDetached)
	_, err = coll.Insert(ctx, &types.Book{Name: "late"})
	assert.ErrorIs(t, err, types.ErrShelfDetached)
}

func TestBackend_Collection(t *testing.T) {
	b, _ := attach(t)

	tests := []struct {
		name    string
		wantErr bool
	}{
		{"Books", false},
		{"books_2", false},
		{"", true},
		{"2books", true},
		{"books;drop", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			coll, err := b.Collection(tt.name)
			if tt.wantErr {
				assert.ErrorIs(t, err, types.ErrInvalidCollectionName)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.name, coll.Name())
		})
	}

	first, _ := b.Collection("Books")
	second, _ := b.Collection("Books")
	assert.Same(t, first, second, "handles should be cached")
}

func TestBackend_CreateAndDropCollection(t *testing.T) {
	ctx := context.Background()
	b, dir := attach(t)

	require.NoError(t, b.CreateCollection(ctx, "Books"))
	require.NoError(t, b.CreateCollection(ctx, "Books"), "create should be idempotent")
	require.NoError(t, b.CreateCollection(ctx, "Archive"))

	names, err := b.CollectionNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Archive", "Books"}, names)

	info, err := os.Stat(snapshotPath(dir, "Books"))
	require.NoError(t, err)
	assert.Zero(t, info.Size())

	require.NoError(t, b.DropCollection(ctx, "Books"))
	require.NoError(t, b.DropCollection(ctx, "Books"), "drop should be idempotent")

	names, err = b.CollectionNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Archive"}, names)

	_, err = os.Stat(snapshotPath(dir, "Books"))
	assert.True(t, os.IsNotExist(err), "snapshot should be removed")
}

func TestBackend_NamesDifferingOnlyInCase(t *testing.T) {
	ctx := context.Background()
	b, coll, dir := seeded(t)

	other, err := b.Collection("books")
	require.NoError(t, err)

	_, err = other.Count(ctx, types.All())
	assert.ErrorIs(t, err, types.ErrInvalidCollectionName)
	_, err = other.Insert(ctx, &types.Book{Name: "Silmarillion", Count: 1})
	assert.ErrorIs(t, err, types.ErrInvalidCollectionName)
	assert.ErrorIs(t, b.CreateCollection(ctx, "BOOKS"), types.ErrInvalidCollectionName)
	assert.ErrorIs(t, b.DropCollection(ctx, "books"), types.ErrInvalidCollectionName)

	n, err := coll.Count(ctx, types.All())
	require.NoError(t, err)
	assert.Equal(t, int64(5), n, "Books must survive a drop of books")
	assert.FileExists(t, snapshotPath(dir, "Books"))
	assert.NoFileExists(t, snapshotPath(dir, "books"))
}

func TestBackend_ReattachRestoresCollections(t *testing.T) {
	ctx := context.Background()
	b, coll, dir := seeded(t)

	_, err := coll.DeleteMany(ctx, types.Eq(types.FieldName, "Repka"))
	require.NoError(t, err)
	require.NoError(t, b.Detach(ctx))

	b2 := NewBackend(nil)
	require.NoError(t, b2.Attach(ctx, types.Config{Backend: types.BackendSQLite, DataDir: dir}))
	defer b2.Detach(ctx)

	names, err := b2.CollectionNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Books"}, names)

	coll2, err := b2.Collection("Books")
	require.NoError(t, err)
	n, err := coll2.Count(ctx, types.All())
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)

	// Insertion order survives the round trip.
	books, err := coll2.Find(ctx, types.Query{})
	require.NoError(t, err)
	require.Len(t, books, 4)
	assert.Equal(t, "Hobbit", books[0].Name)
	assert.Equal(t, "Dyadya Stiopa", books[3].Name)
}

func TestNewUUID(t *testing.T) {
	a, b := newUUID(), newUUID()
	assert.Len(t, a, 36)
	assert.NotEqual(t, a, b)
}

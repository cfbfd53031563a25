// Raw-query suite: the books collection driven through extended-JSON filter,
// sort, and update documents and the server's mapReduce command. Each test
// seeds the collection from scratch.
package integration

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lizasixsixsix/m1001/internal/mongodb"
	"github.com/lizasixsixsix/m1001/pkg/types"
)

const (
	sumCountMap = `function() {
		emit('a', this.count);
	}`
	sumCountReduce = `function(key, values) {
		return Array.sum(values);
	}`
)

// totalCount sums every count with map-reduce.
func totalCount(t *testing.T, coll *mongodb.Collection) int64 {
	t.Helper()
	results, err := coll.MapReduce(context.Background(), sumCountMap, sumCountReduce)
	require.NoError(t, err)
	require.Len(t, results, 1, "every record emits the same key")
	assert.Equal(t, "a", results[0].ID)

	total, ok := results[0].Int64()
	require.True(t, ok, "sum should be a whole number, got %v", results[0].Value)
	return total
}

func TestQueries_BooksAdded(t *testing.T) {
	coll := seedRaw(t)

	books, err := coll.FindJSON(context.Background(), `{}`, "", 0)
	require.NoError(t, err)
	assert.Len(t, books, 5)
}

func TestQueries_BooksCountMoreThanOne(t *testing.T) {
	coll := seedRaw(t)

	books, err := coll.FindJSON(context.Background(), `{"count": {"$gt": 1}}`, "", 0)
	require.NoError(t, err)
	assert.Len(t, books, 4)
}

func TestQueries_BooksWithMaxMinCount(t *testing.T) {
	ctx := context.Background()
	coll := seedRaw(t)

	most, err := coll.FindJSON(ctx, `{}`, `{"count": -1}`, 1)
	require.NoError(t, err)
	require.Len(t, most, 1)
	assert.Equal(t, 11, most[0].Count)

	least, err := coll.FindJSON(ctx, `{}`, `{"count": 1}`, 1)
	require.NoError(t, err)
	require.Len(t, least, 1)
	assert.Equal(t, 1, least[0].Count)
}

func TestQueries_DistinctAuthors(t *testing.T) {
	coll := seedRaw(t)

	authors, err := coll.DistinctJSON(context.Background(), "author", `{}`)
	require.NoError(t, err)
	assert.Len(t, authors, 2)
}

func TestQueries_BooksWithoutAuthor(t *testing.T) {
	coll := seedRaw(t)

	books, err := coll.FindJSON(context.Background(), `{"author": {"$exists": false}}`, "", 0)
	require.NoError(t, err)
	assert.Len(t, books, 2)
	for _, b := range books {
		assert.False(t, b.HasAuthor(), "%s", b.Name)
	}
}

func TestQueries_IncrementBooksCount(t *testing.T) {
	ctx := context.Background()
	coll := seedRaw(t)

	before := totalCount(t, coll)

	res, err := coll.UpdateManyJSON(ctx, `{}`, `{"$inc": {"count": 1}}`)
	require.NoError(t, err)
	assert.Equal(t, int64(5), res.Modified)

	after := totalCount(t, coll)
	n, err := coll.CountJSON(ctx, `{}`)
	require.NoError(t, err)
	assert.Equal(t, n, after-before, "every record gains one")
}

func TestQueries_AddNewGenre(t *testing.T) {
	ctx := context.Background()
	coll := seedRaw(t)

	longest := func() int {
		n, err := coll.MaxLen(ctx, types.FieldGenre, types.All())
		require.NoError(t, err)
		return n
	}

	before := longest()

	_, err := coll.UpdateManyJSON(ctx, `{"genre": "fantasy"}`, `{"$addToSet": {"genre": "favority"}}`)
	require.NoError(t, err)
	afterFirst := longest()

	res, err := coll.UpdateManyJSON(ctx, `{"genre": "fantasy"}`, `{"$addToSet": {"genre": "favority"}}`)
	require.NoError(t, err)
	afterSecond := longest()

	assert.Greater(t, afterFirst, before)
	assert.Equal(t, afterFirst, afterSecond)
	assert.Zero(t, res.Modified, "second addToSet changes nothing")
}

func TestQueries_DeleteBooksWithCountLessThanThree(t *testing.T) {
	ctx := context.Background()
	coll := seedRaw(t)

	before, err := coll.CountJSON(ctx, `{}`)
	require.NoError(t, err)

	deleted, err := coll.DeleteManyJSON(ctx, `{"count": {"$lt": 3}}`)
	require.NoError(t, err)
	assert.Positive(t, deleted)

	after, err := coll.CountJSON(ctx, `{}`)
	require.NoError(t, err)
	assert.Less(t, after, before)

	left, err := coll.CountJSON(ctx, `{"count": {"$lt": 3}}`)
	require.NoError(t, err)
	assert.Zero(t, left)
}

func TestQueries_DeleteAllBooks(t *testing.T) {
	ctx := context.Background()
	coll := seedRaw(t)

	_, err := coll.DeleteManyJSON(ctx, `{}`)
	require.NoError(t, err)

	books, err := coll.FindJSON(ctx, `{}`, "", 0)
	require.NoError(t, err)
	assert.Empty(t, books)
}

func TestQueries_RejectsMalformedDocuments(t *testing.T) {
	ctx := context.Background()
	coll := seedRaw(t)

	_, err := coll.CountJSON(ctx, `{count: {$gt: 1}}`)
	assert.ErrorIs(t, err, types.ErrInvalidFilter)

	_, err = coll.UpdateManyJSON(ctx, `{}`, ``)
	assert.ErrorIs(t, err, types.ErrInvalidUpdate)
}

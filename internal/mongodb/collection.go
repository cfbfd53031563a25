package mongodb

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/lizasixsixsix/m1001/pkg/types"
)

// Collection implements types.Collection on one MongoDB collection.
type Collection struct {
	name    string
	backend *Backend
}

// Name returns the collection name.
func (c *Collection) Name() string { return c.name }

// handle returns the driver collection with the backend read lock held.
// Callers must call release when done.
func (c *Collection) handle() (mc *mongo.Collection, release func(), err error) {
	b := c.backend
	b.mu.RLock()
	if !b.attached {
		b.mu.RUnlock()
		return nil, nil, types.ErrShelfDetached
	}
	return b.db.Collection(c.name), b.mu.RUnlock, nil
}

// Load inserts fixture documents as they are. Each document is parsed as
// relaxed extended JSON, so numbers keep the width the server would give them.
func (c *Collection) Load(ctx context.Context, docs []json.RawMessage) ([]string, error) {
	values := make([]any, len(docs))
	for i, doc := range docs {
		d, err := loadDoc(doc)
		if err != nil {
			return nil, fmt.Errorf("document %d: %w", i, err)
		}
		values[i] = d
	}
	return c.insert(ctx, values)
}

// loadDoc parses one fixture document. Top-level null fields are dropped so
// that "author": null is stored as a missing author.
func loadDoc(doc json.RawMessage) (bson.D, error) {
	var d bson.D
	if err := bson.UnmarshalExtJSON(doc, false, &d); err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrInvalidData, err)
	}
	return slices.DeleteFunc(d, func(e bson.E) bool { return e.Value == nil }), nil
}

// Insert adds typed records. Books without an ID get an ObjectID, written
// back as hex on success.
func (c *Collection) Insert(ctx context.Context, books ...*types.Book) ([]string, error) {
	if slices.Contains(books, nil) {
		return nil, fmt.Errorf("%w: nil book", types.ErrInvalidData)
	}
	values := make([]any, len(books))
	for i, bk := range books {
		values[i] = bookDoc(bk)
	}

	ids, err := c.insert(ctx, values)
	if err != nil {
		return nil, err
	}
	for i, bk := range books {
		bk.ID = ids[i]
	}
	return ids, nil
}

func (c *Collection) insert(ctx context.Context, values []any) ([]string, error) {
	if len(values) == 0 {
		return []string{}, nil
	}

	mc, release, err := c.handle()
	if err != nil {
		return nil, err
	}
	defer release()

	res, err := mc.InsertMany(ctx, values)
	if err != nil {
		return nil, fmt.Errorf("inserting into %s: %w", c.name, err)
	}
	ids := make([]string, len(res.InsertedIDs))
	for i, id := range res.InsertedIDs {
		ids[i] = idString(id)
	}

	c.backend.log.Debug("inserted", zap.String("collection", c.name), zap.Int("records", len(ids)))
	return ids, nil
}

// Count returns the number of records matching the filter.
func (c *Collection) Count(ctx context.Context, filter types.Filter) (int64, error) {
	doc, err := filterDoc(filter)
	if err != nil {
		return 0, err
	}
	return c.count(ctx, doc)
}

func (c *Collection) count(ctx context.Context, filter bson.D) (int64, error) {
	mc, release, err := c.handle()
	if err != nil {
		return 0, err
	}
	defer release()

	n, err := mc.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("counting %s: %w", c.name, err)
	}
	return n, nil
}

// Find returns the records matching the query.
func (c *Collection) Find(ctx context.Context, q types.Query) ([]*types.Book, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	doc, err := filterDoc(q.Filter)
	if err != nil {
		return nil, err
	}

	opts := options.Find()
	if s := sortDoc(q.Sort); s != nil {
		opts.SetSort(s)
	}
	if q.Skip > 0 {
		opts.SetSkip(q.Skip)
	}
	if q.Limit > 0 {
		opts.SetLimit(q.Limit)
	}
	if p := projectionDoc(q.Fields); p != nil {
		opts.SetProjection(p)
	}
	return c.find(ctx, doc, opts)
}

func (c *Collection) find(ctx context.Context, filter bson.D, opts *options.FindOptions) ([]*types.Book, error) {
	mc, release, err := c.handle()
	if err != nil {
		return nil, err
	}
	defer release()

	cur, err := mc.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("finding in %s: %w", c.name, err)
	}
	books := []*types.Book{}
	if err := cur.All(ctx, &books); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", c.name, err)
	}
	return books, nil
}

// FindOne returns the first record matching the query.
func (c *Collection) FindOne(ctx context.Context, q types.Query) (*types.Book, error) {
	q.Limit = 1
	books, err := c.Find(ctx, q)
	if err != nil {
		return nil, err
	}
	if len(books) == 0 {
		return nil, types.ErrNotFound
	}
	return books[0], nil
}

// Distinct returns the distinct values of field, normalized and sorted.
func (c *Collection) Distinct(ctx context.Context, field string, filter types.Filter) ([]any, error) {
	if !types.KnownField(field) {
		return nil, fmt.Errorf("%w: %q", types.ErrInvalidField, field)
	}
	doc, err := filterDoc(filter)
	if err != nil {
		return nil, err
	}
	return c.distinct(ctx, field, doc)
}

func (c *Collection) distinct(ctx context.Context, field string, filter bson.D) ([]any, error) {
	mc, release, err := c.handle()
	if err != nil {
		return nil, err
	}
	defer release()

	values, err := mc.Distinct(ctx, field, filter)
	if err != nil {
		return nil, fmt.Errorf("distinct %s in %s: %w", field, c.name, err)
	}
	return normalizeValues(values), nil
}

// UpdateMany applies the update to every matching record.
func (c *Collection) UpdateMany(ctx context.Context, filter types.Filter, update types.Update) (types.UpdateResult, error) {
	upd, err := updateDoc(update)
	if err != nil {
		return types.UpdateResult{}, err
	}
	doc, err := filterDoc(filter)
	if err != nil {
		return types.UpdateResult{}, err
	}
	return c.updateMany(ctx, doc, upd)
}

func (c *Collection) updateMany(ctx context.Context, filter, update bson.D) (types.UpdateResult, error) {
	mc, release, err := c.handle()
	if err != nil {
		return types.UpdateResult{}, err
	}
	defer release()

	res, err := mc.UpdateMany(ctx, filter, update)
	if err != nil {
		return types.UpdateResult{}, fmt.Errorf("updating %s: %w", c.name, err)
	}

	c.backend.log.Debug("updated", zap.String("collection", c.name),
		zap.Int64("matched", res.MatchedCount), zap.Int64("modified", res.ModifiedCount))
	return types.UpdateResult{Matched: res.MatchedCount, Modified: res.ModifiedCount}, nil
}

// DeleteMany removes every matching record.
func (c *Collection) DeleteMany(ctx context.Context, filter types.Filter) (int64, error) {
	doc, err := filterDoc(filter)
	if err != nil {
		return 0, err
	}
	return c.deleteMany(ctx, doc)
}

func (c *Collection) deleteMany(ctx context.Context, filter bson.D) (int64, error) {
	mc, release, err := c.handle()
	if err != nil {
		return 0, err
	}
	defer release()

	res, err := mc.DeleteMany(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("deleting from %s: %w", c.name, err)
	}

	c.backend.log.Debug("deleted", zap.String("collection", c.name), zap.Int64("records", res.DeletedCount))
	return res.DeletedCount, nil
}

// Sum adds up a numeric field with a $group stage.
func (c *Collection) Sum(ctx context.Context, field string, filter types.Filter) (int64, error) {
	if !types.IsNumericField(field) {
		return 0, fmt.Errorf("%w: cannot sum %q", types.ErrInvalidField, field)
	}
	doc, err := filterDoc(filter)
	if err != nil {
		return 0, err
	}
	return c.group(ctx, doc, bson.D{{Key: "$sum", Value: "$" + field}})
}

// MaxLen returns the longest array length of field. Records without the
// field count as empty.
func (c *Collection) MaxLen(ctx context.Context, field string, filter types.Filter) (int, error) {
	if !types.IsArrayField(field) {
		return 0, fmt.Errorf("%w: %q is not an array", types.ErrInvalidField, field)
	}
	doc, err := filterDoc(filter)
	if err != nil {
		return 0, err
	}
	size := bson.D{{Key: "$size", Value: bson.D{{Key: "$ifNull", Value: bson.A{"$" + field, bson.A{}}}}}}
	n, err := c.group(ctx, doc, bson.D{{Key: "$max", Value: size}})
	return int(n), err
}

// group folds every matching record into one integer with an accumulator.
// An empty match yields 0.
func (c *Collection) group(ctx context.Context, filter, accumulator bson.D) (int64, error) {
	mc, release, err := c.handle()
	if err != nil {
		return 0, err
	}
	defer release()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: filter}},
		{{Key: "$group", Value: bson.D{{Key: "_id", Value: nil}, {Key: "result", Value: accumulator}}}},
	}
	cur, err := mc.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, fmt.Errorf("aggregating %s: %w", c.name, err)
	}

	var out []struct {
		Result int64 `bson:"result"`
	}
	if err := cur.All(ctx, &out); err != nil {
		return 0, fmt.Errorf("decoding aggregate of %s: %w", c.name, err)
	}
	if len(out) == 0 {
		return 0, nil
	}
	return out[0].Result, nil
}

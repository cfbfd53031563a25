package mongodb

import (
	"context"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/lizasixsixsix/m1001/pkg/types"
)

// The JSON operations take query, sort, and update documents written as
// relaxed extended JSON, for example {"count": {"$gt": 1}}. Keys must be
// quoted. An empty string means an empty document.

// FindJSON returns the records matching filter, ordered by sort. A limit of
// zero means no limit.
func (c *Collection) FindJSON(ctx context.Context, filter, sort string, limit int64) ([]*types.Book, error) {
	f, err := parseDoc(filter, types.ErrInvalidFilter)
	if err != nil {
		return nil, err
	}
	s, err := parseDoc(sort, types.ErrInvalidFilter)
	if err != nil {
		return nil, err
	}

	opts := options.Find()
	if len(s) > 0 {
		opts.SetSort(s)
	}
	if limit > 0 {
		opts.SetLimit(limit)
	}
	return c.find(ctx, f, opts)
}

// CountJSON returns the number of records matching filter.
func (c *Collection) CountJSON(ctx context.Context, filter string) (int64, error) {
	f, err := parseDoc(filter, types.ErrInvalidFilter)
	if err != nil {
		return 0, err
	}
	return c.count(ctx, f)
}

// DistinctJSON returns the distinct values of field among records matching
// filter.
func (c *Collection) DistinctJSON(ctx context.Context, field, filter string) ([]any, error) {
	if field == "" {
		return nil, fmt.Errorf("%w: empty field", types.ErrInvalidField)
	}
	f, err := parseDoc(filter, types.ErrInvalidFilter)
	if err != nil {
		return nil, err
	}
	return c.distinct(ctx, field, f)
}

// UpdateManyJSON applies update to every record matching filter.
func (c *Collection) UpdateManyJSON(ctx context.Context, filter, update string) (types.UpdateResult, error) {
	f, err := parseDoc(filter, types.ErrInvalidFilter)
	if err != nil {
		return types.UpdateResult{}, err
	}
	u, err := parseDoc(update, types.ErrInvalidUpdate)
	if err != nil {
		return types.UpdateResult{}, err
	}
	if len(u) == 0 {
		return types.UpdateResult{}, fmt.Errorf("%w: empty update", types.ErrInvalidUpdate)
	}
	return c.updateMany(ctx, f, u)
}

// DeleteManyJSON removes every record matching filter.
func (c *Collection) DeleteManyJSON(ctx context.Context, filter string) (int64, error) {
	f, err := parseDoc(filter, types.ErrInvalidFilter)
	if err != nil {
		return 0, err
	}
	return c.deleteMany(ctx, f)
}

// parseDoc parses one extended JSON document, wrapping failures in kind.
func parseDoc(s string, kind error) (bson.D, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return bson.D{}, nil
	}
	var doc bson.D
	if err := bson.UnmarshalExtJSON([]byte(s), false, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", kind, err)
	}
	return doc, nil
}

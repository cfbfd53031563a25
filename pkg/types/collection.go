package types

import (
	"context"
	"encoding/json"
	"errors"
)

// Collection runs typed operations against one named collection of books.
// Every backend implements the same semantics: array fields contribute their
// elements to Distinct, absent fields never match comparisons, and an empty
// Filter matches everything.
type Collection interface {
	// Name returns the collection name.
	Name() string

	// Load bulk-inserts fixture documents as they are, without going through
	// the Book type. A field set to null is stored as absent. Returns the IDs
	// assigned by the storage layer.
	Load(ctx context.Context, docs []json.RawMessage) ([]string, error)

	// Insert bulk-inserts typed records. IDs are assigned by the storage layer
	// and written back into the records.
	Insert(ctx context.Context, books ...*Book) ([]string, error)

	// Count returns the number of records matching the filter.
	Count(ctx context.Context, filter Filter) (int64, error)

	// Find returns every record matching the query, in query order.
	Find(ctx context.Context, q Query) ([]*Book, error)

	// FindOne returns the first record matching the query.
	// Returns ErrNotFound when nothing matches.
	FindOne(ctx context.Context, q Query) (*Book, error)

	// Distinct returns the distinct values of field among matching records.
	Distinct(ctx context.Context, field string, filter Filter) ([]any, error)

	// UpdateMany applies the update to every matching record.
	UpdateMany(ctx context.Context, filter Filter, update Update) (UpdateResult, error)

	// DeleteMany removes every matching record and returns how many went.
	DeleteMany(ctx context.Context, filter Filter) (int64, error)

	// Sum adds up a numeric field over matching records.
	Sum(ctx context.Context, field string, filter Filter) (int64, error)

	// MaxLen returns the longest array length of field over matching records.
	MaxLen(ctx context.Context, field string, filter Filter) (int, error)
}

// Collection operation errors.
var (
	ErrNotFound      = errors.New("record not found")
	ErrInvalidField  = errors.New("invalid field")
	ErrInvalidFilter = errors.New("invalid filter")
	ErrInvalidUpdate = errors.New("invalid update")
	ErrInvalidData   = errors.New("invalid record data")
)

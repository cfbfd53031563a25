package types

import (
	"context"
	"errors"
)

// Shelf is a backend-agnostic handle on a database of book collections.
// Callers attach to a backend, work with collections by name, and detach
// when done.
type Shelf interface {
	// Attach connects the Shelf to the backend described by config.
	// Returns ErrAlreadyAttached if called while already attached.
	Attach(ctx context.Context, config Config) error

	// Detach releases backend resources. Idempotent: multiple calls succeed.
	// After Detach, operations return ErrShelfDetached.
	Detach(ctx context.Context) error

	// Collection returns the named collection. The collection need not exist
	// yet; backends create it on first insert.
	Collection(name string) (Collection, error)

	// CreateCollection creates an empty collection. Creating an existing
	// collection is not an error.
	CreateCollection(ctx context.Context, name string) error

	// DropCollection removes a collection and all its records. Dropping a
	// missing collection is not an error.
	DropCollection(ctx context.Context, name string) error

	// CollectionNames lists the collections in the attached database.
	CollectionNames(ctx context.Context) ([]string, error)
}

// Shelf lifecycle errors.
var (
	ErrShelfDetached         = errors.New("shelf is detached")
	ErrAlreadyAttached       = errors.New("shelf is already attached")
	ErrInvalidCollectionName = errors.New("invalid collection name")
)

// ValidateCollectionName accepts names made of letters, digits, and
// underscores that start with a letter or underscore.
func ValidateCollectionName(name string) error {
	if name == "" || len(name) > 64 {
		return ErrInvalidCollectionName
	}
	for i, r := range name {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return ErrInvalidCollectionName
		}
	}
	return nil
}

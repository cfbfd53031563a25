// Package fixture loads the books.json seed data and seeds a collection
// from it. The file holds one top-level JSON array of book objects.
package fixture

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/lizasixsixsix/m1001/internal/logging"
	"github.com/lizasixsixsix/m1001/pkg/types"
)

//go:embed books.json
var defaultBooks []byte

// Fixture errors.
var (
	ErrNotArray = errors.New("fixture top level is not a JSON array")
	ErrEmpty    = errors.New("fixture holds no records")
)

// Set is a parsed fixture. Raw keeps each document exactly as it appears in
// the file; Books is the typed view of the same documents, in the same order.
type Set struct {
	Raw   []json.RawMessage
	Books []*types.Book
}

// Len returns the number of records.
func (s *Set) Len() int { return len(s.Raw) }

// Default returns the embedded fixture.
func Default() (*Set, error) {
	return Parse(defaultBooks)
}

// Load reads and parses the fixture file at path.
func Load(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading fixture: %w", err)
	}
	set, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return set, nil
}

// LoadOrDefault loads path, or the embedded fixture when path is empty.
func LoadOrDefault(path string) (*Set, error) {
	if path == "" {
		return Default()
	}
	return Load(path)
}

// Parse parses fixture content. Every element must be a JSON object that
// decodes into a Book.
func Parse(data []byte) (*Set, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, ErrNotArray
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return nil, fmt.Errorf("decoding fixture array: %w", err)
	}
	if len(raw) == 0 {
		return nil, ErrEmpty
	}

	set := &Set{Raw: raw, Books: make([]*types.Book, 0, len(raw))}
	for i, doc := range raw {
		var b types.Book
		if err := json.Unmarshal(doc, &b); err != nil {
			return nil, fmt.Errorf("record %d: %w: %v", i, types.ErrInvalidData, err)
		}
		set.Books = append(set.Books, &b)
	}
	return set, nil
}

// Seed drops the named collection, creates it again, and bulk-loads every
// fixture document into it. Returns the collection ready for assertions.
func Seed(ctx context.Context, sh types.Shelf, name string, set *Set, log *zap.Logger) (types.Collection, error) {
	log = logging.OrNop(log).Named("fixture")

	if err := sh.DropCollection(ctx, name); err != nil {
		return nil, fmt.Errorf("drop %s: %w", name, err)
	}
	if err := sh.CreateCollection(ctx, name); err != nil {
		return nil, fmt.Errorf("create %s: %w", name, err)
	}

	coll, err := sh.Collection(name)
	if err != nil {
		return nil, err
	}
	ids, err := coll.Load(ctx, set.Raw)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", name, err)
	}

	log.Info("collection seeded", zap.String("collection", name), zap.Int("records", len(ids)))
	return coll, nil
}

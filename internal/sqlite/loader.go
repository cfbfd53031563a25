// This file implements snapshot loading on Attach.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lizasixsixsix/m1001/pkg/types"
)

// loadSnapshots creates one table per <collection>.jsonl in dataDir and
// inserts its records. Loading is transactional: all snapshots load or the
// database stays empty. Malformed lines and records are skipped; files whose
// names are not valid collection names are ignored, as are snapshots whose
// names differ from an earlier one only in case. Unknown JSON fields are
// ignored.
func loadSnapshots(ctx context.Context, db *sql.DB, dataDir string) error {
	names, err := snapshotNames(dataDir)
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning load transaction: %w", err)
	}
	defer tx.Rollback()

	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if types.ValidateCollectionName(name) != nil || seen[strings.ToLower(name)] {
			continue
		}
		seen[strings.ToLower(name)] = true
		if _, err := tx.ExecContext(ctx, createTableSQL(name)); err != nil {
			return fmt.Errorf("creating %s: %w", name, err)
		}

		records, err := readJSONL(snapshotPath(dataDir, name))
		if err != nil {
			return err
		}
		books := decodeRecords(records)
		if len(books) == 0 {
			continue
		}
		if err := insertBooks(ctx, tx, name, books); err != nil {
			return fmt.Errorf("loading %s: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing load transaction: %w", err)
	}
	return nil
}

// decodeRecords decodes snapshot lines into books, skipping lines that are
// not book objects.
func decodeRecords(records []json.RawMessage) []*types.Book {
	books := make([]*types.Book, 0, len(records))
	for _, rec := range records {
		var b types.Book
		if err := json.Unmarshal(rec, &b); err != nil {
			continue
		}
		books = append(books, &b)
	}
	return books
}

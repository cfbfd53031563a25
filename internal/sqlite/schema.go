package sqlite

import (
	"fmt"
	"strings"

	"github.com/lizasixsixsix/m1001/pkg/types"
)

// dbFileName is the SQLite file inside DataDir. It is rebuilt from the
// JSONL snapshots on every Attach.
const dbFileName = "bookshelf.db"

// createCollectionSQL is the DDL for one collection. genre holds a JSON array.
// Rows keep insertion order through the implicit rowid.
const createCollectionSQL = `CREATE TABLE IF NOT EXISTS %s (
    book_id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    author TEXT,
    "count" INTEGER NOT NULL DEFAULT 0,
    genre TEXT NOT NULL DEFAULT '[]',
    year INTEGER NOT NULL DEFAULT 0
);`

// bookColumns is the column list every read selects, in queryBooks scan order.
const bookColumns = `b.book_id, b.name, b.author, b."count", b.genre, b.year`

// columns maps Book field names to SQL columns.
var columns = map[string]string{
	types.FieldID:     "book_id",
	types.FieldName:   "name",
	types.FieldAuthor: "author",
	types.FieldCount:  `"count"`,
	types.FieldGenre:  "genre",
	types.FieldYear:   "year",
}

// quoteIdent quotes a table name. Collection names are validated before they
// get here; quoting keeps names like "Books" case-exact.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// createTableSQL returns the DDL for the named collection.
func createTableSQL(name string) string {
	return fmt.Sprintf(createCollectionSQL, quoteIdent(name))
}

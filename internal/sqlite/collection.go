package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/lizasixsixsix/m1001/pkg/types"
)

// Collection implements types.Collection over one SQLite table.
type Collection struct {
	name    string
	backend *Backend
}

// Name returns the collection name.
func (c *Collection) Name() string { return c.name }

func (c *Collection) table() string { return quoteIdent(c.name) }

// Load decodes each document into a Book and inserts them all.
func (c *Collection) Load(ctx context.Context, docs []json.RawMessage) ([]string, error) {
	books := make([]*types.Book, 0, len(docs))
	for i, doc := range docs {
		var b types.Book
		if err := json.Unmarshal(doc, &b); err != nil {
			return nil, fmt.Errorf("document %d: %w: %v", i, types.ErrInvalidData, err)
		}
		books = append(books, &b)
	}
	return c.Insert(ctx, books...)
}

// Insert adds the books in one transaction. Books without an ID get a UUID v7,
// written back on success.
func (c *Collection) Insert(ctx context.Context, books ...*types.Book) ([]string, error) {
	if slices.Contains(books, nil) {
		return nil, fmt.Errorf("%w: nil book", types.ErrInvalidData)
	}

	b := c.backend
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil, types.ErrShelfDetached
	}
	if _, err := b.tableExists(ctx, c.name); err != nil {
		return nil, err
	}

	rows := make([]*types.Book, len(books))
	ids := make([]string, len(books))
	for i, bk := range books {
		cp := *bk
		if cp.ID == "" {
			cp.ID = newUUID()
		}
		rows[i] = &cp
		ids[i] = cp.ID
	}

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning insert: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, createTableSQL(c.name)); err != nil {
		return nil, fmt.Errorf("creating %s: %w", c.name, err)
	}
	if err := insertBooks(ctx, tx, c.name, rows); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing insert: %w", err)
	}

	for i, bk := range books {
		bk.ID = ids[i]
	}
	if err := c.persistLocked(ctx); err != nil {
		return nil, err
	}

	b.log.Debug("inserted", zap.String("collection", c.name), zap.Int("records", len(ids)))
	return ids, nil
}

// Count returns the number of records matching the filter.
func (c *Collection) Count(ctx context.Context, filter types.Filter) (int64, error) {
	where, args, err := whereClause(filter)
	if err != nil {
		return 0, err
	}

	b := c.backend
	b.mu.RLock()
	defer b.mu.RUnlock()

	if ok, err := c.readyLocked(ctx); !ok {
		return 0, err
	}

	var n int64
	query := "SELECT COUNT(*) FROM " + c.table() + " AS b WHERE " + where
	if err := b.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting %s: %w", c.name, err)
	}
	return n, nil
}

// Find returns the records matching the query.
func (c *Collection) Find(ctx context.Context, q types.Query) ([]*types.Book, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	where, args, err := whereClause(q.Filter)
	if err != nil {
		return nil, err
	}

	b := c.backend
	b.mu.RLock()
	defer b.mu.RUnlock()

	if ok, err := c.readyLocked(ctx); !ok {
		return []*types.Book{}, err
	}

	query := "SELECT " + bookColumns + " FROM " + c.table() + " AS b WHERE " + where +
		orderClause(q.Sort) + limitClause(q.Skip, q.Limit)
	books, err := queryBooks(ctx, b.db, query, args...)
	if err != nil {
		return nil, fmt.Errorf("finding in %s: %w", c.name, err)
	}
	if len(q.Fields) > 0 {
		for i, bk := range books {
			books[i] = bk.Project(q.Fields)
		}
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

// Distinct returns the distinct non-null values of field, sorted. Genre
// contributes each tag separately.
func (c *Collection) Distinct(ctx context.Context, field string, filter types.Filter) ([]any, error) {
	if !types.KnownField(field) {
		return nil, fmt.Errorf("%w: %q", types.ErrInvalidField, field)
	}
	where, args, err := whereClause(filter)
	if err != nil {
		return nil, err
	}

	b := c.backend
	b.mu.RLock()
	defer b.mu.RUnlock()

	if ok, err := c.readyLocked(ctx); !ok {
		return []any{}, err
	}

	var query string
	if types.IsArrayField(field) {
		query = "SELECT DISTINCT d.value FROM " + c.table() + " AS b, json_each(b." + columns[field] + ") AS d" +
			" WHERE " + where + " ORDER BY d.value"
	} else {
		col := "b." + columns[field]
		query = "SELECT DISTINCT " + col + " FROM " + c.table() + " AS b" +
			" WHERE " + where + " AND " + col + " IS NOT NULL ORDER BY " + col
	}

	rows, err := b.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("distinct %s in %s: %w", field, c.name, err)
	}
	defer rows.Close()

	values := []any{}
	for rows.Next() {
		var v any
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

// UpdateMany applies the update to every matching record in one transaction.
// Records the update leaves unchanged count as matched but not modified.
func (c *Collection) UpdateMany(ctx context.Context, filter types.Filter, update types.Update) (types.UpdateResult, error) {
	var res types.UpdateResult
	if err := update.Validate(); err != nil {
		return res, err
	}
	where, args, err := whereClause(filter)
	if err != nil {
		return res, err
	}

	b := c.backend
	b.mu.Lock()
	defer b.mu.Unlock()

	if ok, err := c.readyLocked(ctx); !ok {
		return res, err
	}

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return res, fmt.Errorf("beginning update: %w", err)
	}
	defer tx.Rollback()

	books, err := queryBooks(ctx, tx, "SELECT "+bookColumns+" FROM "+c.table()+" AS b WHERE "+where+" ORDER BY b.rowid", args...)
	if err != nil {
		return res, fmt.Errorf("selecting for update in %s: %w", c.name, err)
	}
	res.Matched = int64(len(books))

	stmt, err := tx.PrepareContext(ctx,
		"UPDATE "+c.table()+` SET name = ?, author = ?, "count" = ?, genre = ?, year = ? WHERE book_id = ?`)
	if err != nil {
		return res, fmt.Errorf("preparing update for %s: %w", c.name, err)
	}
	defer stmt.Close()

	for _, bk := range books {
		if !applyUpdate(bk, update) {
			continue
		}
		genre, err := encodeGenre(bk.Genre)
		if err != nil {
			return res, err
		}
		if _, err := stmt.ExecContext(ctx, bk.Name, nullString(bk.Author), bk.Count, genre, bk.Year, bk.ID); err != nil {
			return res, fmt.Errorf("updating %s: %w", bk.ID, err)
		}
		res.Modified++
	}

	if err := tx.Commit(); err != nil {
		return types.UpdateResult{}, fmt.Errorf("committing update: %w", err)
	}
	if res.Modified > 0 {
		if err := c.persistLocked(ctx); err != nil {
			return res, err
		}
	}

	b.log.Debug("updated", zap.String("collection", c.name),
		zap.Int64("matched", res.Matched), zap.Int64("modified", res.Modified))
	return res, nil
}

// DeleteMany removes every matching record.
func (c *Collection) DeleteMany(ctx context.Context, filter types.Filter) (int64, error) {
	where, args, err := whereClause(filter)
	if err != nil {
		return 0, err
	}

	b := c.backend
	b.mu.Lock()
	defer b.mu.Unlock()

	if ok, err := c.readyLocked(ctx); !ok {
		return 0, err
	}

	query := "DELETE FROM " + c.table() + " WHERE rowid IN (SELECT b.rowid FROM " + c.table() + " AS b WHERE " + where + ")"
	res, err := b.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("deleting from %s: %w", c.name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n > 0 {
		if err := c.persistLocked(ctx); err != nil {
			return n, err
		}
	}

	b.log.Debug("deleted", zap.String("collection", c.name), zap.Int64("records", n))
	return n, nil
}

// Sum adds up a numeric field over matching records.
func (c *Collection) Sum(ctx context.Context, field string, filter types.Filter) (int64, error) {
	if !types.IsNumericField(field) {
		return 0, fmt.Errorf("%w: cannot sum %q", types.ErrInvalidField, field)
	}
	return c.aggregate(ctx, "COALESCE(SUM(b."+columns[field]+"), 0)", filter)
}

// MaxLen returns the longest array length of field over matching records.
func (c *Collection) MaxLen(ctx context.Context, field string, filter types.Filter) (int, error) {
	if !types.IsArrayField(field) {
		return 0, fmt.Errorf("%w: %q is not an array", types.ErrInvalidField, field)
	}
	n, err := c.aggregate(ctx, "COALESCE(MAX(json_array_length(b."+columns[field]+")), 0)", filter)
	return int(n), err
}

// aggregate evaluates a single integer expression over matching records.
func (c *Collection) aggregate(ctx context.Context, expr string, filter types.Filter) (int64, error) {
	where, args, err := whereClause(filter)
	if err != nil {
		return 0, err
	}

	b := c.backend
	b.mu.RLock()
	defer b.mu.RUnlock()

	if ok, err := c.readyLocked(ctx); !ok {
		return 0, err
	}

	var n int64
	query := "SELECT " + expr + " FROM " + c.table() + " AS b WHERE " + where
	if err := b.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("aggregating %s: %w", c.name, err)
	}
	return n, nil
}

// readyLocked reports whether the backend is attached and the table exists.
// A missing table is not an error: it reads as an empty collection.
// The caller must hold b.mu.
func (c *Collection) readyLocked(ctx context.Context) (bool, error) {
	if !c.backend.attached {
		return false, types.ErrShelfDetached
	}
	return c.backend.tableExists(ctx, c.name)
}

// persistLocked writes the collection snapshot. The caller must hold the
// write lock.
func (c *Collection) persistLocked(ctx context.Context) error {
	b := c.backend
	books, err := queryBooks(ctx, b.db, "SELECT "+bookColumns+" FROM "+c.table()+" AS b ORDER BY b.rowid")
	if err != nil {
		return fmt.Errorf("reading %s for snapshot: %w", c.name, err)
	}

	records := make([]json.RawMessage, 0, len(books))
	for _, bk := range books {
		data, err := json.Marshal(bk)
		if err != nil {
			return fmt.Errorf("encoding %s: %w", bk.ID, err)
		}
		records = append(records, data)
	}
	return writeJSONL(snapshotPath(b.dataDir, c.name), records)
}

// queryer is satisfied by *sql.DB and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// queryBooks runs a SELECT of bookColumns and scans every row.
func queryBooks(ctx context.Context, q queryer, query string, args ...any) ([]*types.Book, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	books := []*types.Book{}
	for rows.Next() {
		var bk types.Book
		var author sql.NullString
		var genre string
		if err := rows.Scan(&bk.ID, &bk.Name, &author, &bk.Count, &genre, &bk.Year); err != nil {
			return nil, fmt.Errorf("scanning book: %w", err)
		}
		bk.Author = author.String
		if err := json.Unmarshal([]byte(genre), &bk.Genre); err != nil {
			return nil, fmt.Errorf("decoding genre of %s: %w", bk.ID, err)
		}
		books = append(books, &bk)
	}
	return books, rows.Err()
}

// insertBooks inserts books that already carry IDs.
func insertBooks(ctx context.Context, tx *sql.Tx, table string, books []*types.Book) error {
	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO "+quoteIdent(table)+` (book_id, name, author, "count", genre, year) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert for %s: %w", table, err)
	}
	defer stmt.Close()

	for _, bk := range books {
		genre, err := encodeGenre(bk.Genre)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, bk.ID, bk.Name, nullString(bk.Author), bk.Count, genre, bk.Year); err != nil {
			return fmt.Errorf("inserting %q: %w", bk.Name, err)
		}
	}
	return nil
}

// encodeGenre stores a nil genre list as an empty JSON array.
func encodeGenre(genre []string) (string, error) {
	if genre == nil {
		genre = []string{}
	}
	data, err := json.Marshal(genre)
	if err != nil {
		return "", fmt.Errorf("encoding genre: %w", err)
	}
	return string(data), nil
}

// nullString maps an empty author to SQL NULL.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

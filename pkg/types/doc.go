// Package types defines the Shelf and Collection interfaces, the Book record,
// the filter/query/update vocabulary shared by every backend, and the standard
// error values of the bookshelf storage layer.
//
// A Shelf is attached to one backend (MongoDB or SQLite) and hands out
// Collections. A Collection runs typed operations against its backend:
//
//	sh := shelf.New(types.BackendSQLite, nil)
//	if err := sh.Attach(ctx, cfg); err != nil { ... }
//	defer sh.Detach(ctx)
//	books, _ := sh.Collection("Books")
//	n, _ := books.Count(ctx, types.Gt(types.FieldCount, 1))
package types

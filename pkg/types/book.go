package types

import "slices"

// Book field names as stored by every backend.
const (
	FieldID     = "_id"
	FieldName   = "name"
	FieldAuthor = "author"
	FieldCount  = "count"
	FieldGenre  = "genre"
	FieldYear   = "year"
)

// fieldKind classifies a Book field for filter and update validation.
type fieldKind int

const (
	kindID fieldKind = iota
	kindText
	kindInt
	kindTags
)

// fieldKinds is the set of recognized Book fields.
var fieldKinds = map[string]fieldKind{
	FieldID:     kindID,
	FieldName:   kindText,
	FieldAuthor: kindText,
	FieldCount:  kindInt,
	FieldGenre:  kindTags,
	FieldYear:   kindInt,
}

// Fields lists the Book fields in storage order.
var Fields = []string{FieldID, FieldName, FieldAuthor, FieldCount, FieldGenre, FieldYear}

// Book is a single book record. ID is assigned by the storage layer on insert.
// An empty Author means the record has no author field at all.
type Book struct {
	ID     string   `json:"_id,omitempty" bson:"_id,omitempty"`
	Name   string   `json:"name" bson:"name"`
	Author string   `json:"author,omitempty" bson:"author,omitempty"`
	Count  int      `json:"count" bson:"count"`
	Genre  []string `json:"genre" bson:"genre"`
	Year   int      `json:"year" bson:"year"`
}

// HasAuthor reports whether the record carries an author.
func (b *Book) HasAuthor() bool {
	return b.Author != ""
}

// HasGenre reports whether tag is one of the record's genres.
func (b *Book) HasGenre(tag string) bool {
	return slices.Contains(b.Genre, tag)
}

// Project returns a copy of b carrying only ID and the named fields.
// An empty field list returns a full copy.
func (b *Book) Project(fields []string) *Book {
	out := &Book{ID: b.ID}
	if len(fields) == 0 {
		*out = *b
		out.Genre = slices.Clone(b.Genre)
		return out
	}
	for _, f := range fields {
		switch f {
		case FieldName:
			out.Name = b.Name
		case FieldAuthor:
			out.Author = b.Author
		case FieldCount:
			out.Count = b.Count
		case FieldGenre:
			out.Genre = slices.Clone(b.Genre)
		case FieldYear:
			out.Year = b.Year
		}
	}
	return out
}

// IsArrayField reports whether field holds a list of values.
func IsArrayField(field string) bool {
	k, ok := fieldKinds[field]
	return ok && k == kindTags
}

// IsNumericField reports whether field holds an integer.
func IsNumericField(field string) bool {
	k, ok := fieldKinds[field]
	return ok && k == kindInt
}

// KnownField reports whether field is a Book field.
func KnownField(field string) bool {
	_, ok := fieldKinds[field]
	return ok
}

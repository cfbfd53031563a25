package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBookHelpers(t *testing.T) {
	b := &Book{Name: "Hobbit", Author: "Tolkien", Count: 5, Genre: []string{"fantasy"}, Year: 1937}
	assert.True(t, b.HasAuthor())
	assert.True(t, b.HasGenre("fantasy"))
	assert.False(t, b.HasGenre("kids"))

	anon := &Book{Name: "Kolobok", Genre: []string{"kids"}}
	assert.False(t, anon.HasAuthor())
}

func TestBookProject(t *testing.T) {
	b := &Book{ID: "1", Name: "Hobbit", Author: "Tolkien", Count: 5, Genre: []string{"fantasy"}, Year: 1937}

	p := b.Project([]string{FieldName, FieldCount})
	assert.Equal(t, &Book{ID: "1", Name: "Hobbit", Count: 5}, p)

	full := b.Project(nil)
	assert.Equal(t, b, full)
	full.Genre[0] = "changed"
	assert.Equal(t, "fantasy", b.Genre[0], "projection must not share the genre slice")
}

func TestFieldKinds(t *testing.T) {
	assert.True(t, IsArrayField(FieldGenre))
	assert.False(t, IsArrayField(FieldName))
	assert.False(t, IsArrayField("nope"))
	assert.True(t, IsNumericField(FieldCount))
	assert.True(t, IsNumericField(FieldYear))
	assert.False(t, IsNumericField(FieldAuthor))
	assert.True(t, KnownField(FieldID))
	assert.False(t, KnownField(""))
}

func TestValidateCollectionName(t *testing.T) {
	for _, name := range []string{"Books", "books_2", "_tmp"} {
		assert.NoError(t, ValidateCollectionName(name), name)
	}
	for _, name := range []string{"", "2books", "books-x", "books;drop", "a.b"} {
		assert.ErrorIs(t, ValidateCollectionName(name), ErrInvalidCollectionName, name)
	}
}

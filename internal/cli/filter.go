package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/lizasixsixsix/m1001/pkg/types"
)

// filterFlags are the record-selection flags shared by list, restock, and tag.
type filterFlags struct {
	name     string
	author   string
	noAuthor bool
	genre    string
	countGt  int
	countLt  int
	year     int
}

func (f *filterFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.name, "name", "", "only books with this name")
	fs.StringVar(&f.author, "author", "", "only books by this author")
	fs.BoolVar(&f.noAuthor, "no-author", false, "only books without an author")
	fs.StringVar(&f.genre, "genre", "", "only books tagged with this genre")
	fs.IntVar(&f.countGt, "count-gt", 0, "only books with count greater than this")
	fs.IntVar(&f.countLt, "count-lt", 0, "only books with count less than this")
	fs.IntVar(&f.year, "year", 0, "only books from this year")
}

// filter builds the conjunction of the flags the user set.
func (f *filterFlags) filter(cmd *cobra.Command) (types.Filter, error) {
	fs := cmd.Flags()
	if fs.Changed("author") && f.noAuthor {
		return nil, usageError(errors.New("--author and --no-author cannot be used together"))
	}

	var out types.Filter
	if fs.Changed("name") {
		out = out.And(types.FieldName, types.OpEq, f.name)
	}
	if fs.Changed("author") {
		out = out.And(types.FieldAuthor, types.OpEq, f.author)
	}
	if f.noAuthor {
		out = out.And(types.FieldAuthor, types.OpMissing, nil)
	}
	if fs.Changed("genre") {
		out = out.And(types.FieldGenre, types.OpContains, f.genre)
	}
	if fs.Changed("count-gt") {
		out = out.And(types.FieldCount, types.OpGt, f.countGt)
	}
	if fs.Changed("count-lt") {
		out = out.And(types.FieldCount, types.OpLt, f.countLt)
	}
	if fs.Changed("year") {
		out = out.And(types.FieldYear, types.OpEq, f.year)
	}
	return out, nil
}

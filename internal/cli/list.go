package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/lizasixsixsix/m1001/pkg/types"
)

func newListCmd() *cobra.Command {
	var (
		ff     filterFlags
		sortBy string
		desc   bool
		skip   int64
		limit  int64
		fields []string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List books with optional filters",
		Long: `List prints the books matching every filter flag given. Without filters
it prints the whole collection in insertion order.`,
		Example: `  bookshelf list
  bookshelf list --genre kids --sort count --desc
  bookshelf list --no-author --fields name,count
  bookshelf list --count-gt 1 --limit 2 --json`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := ff.filter(cmd)
			if err != nil {
				return err
			}
			q := types.Query{
				Filter: filter,
				Skip:   skip,
				Limit:  limit,
				Fields: fields,
			}
			if sortBy != "" {
				key := types.Asc(sortBy)
				if desc {
					key = types.Desc(sortBy)
				}
				q.Sort = []types.SortKey{key}
			} else if desc {
				return usageError(errors.New("--desc needs --sort"))
			}
			if err := q.Validate(); err != nil {
				return err
			}

			return withCollection(cmd.Context(), func(_ types.Shelf, coll types.Collection) error {
				books, err := coll.Find(cmd.Context(), q)
				if err != nil {
					return err
				}
				return writeBooks(cmd.OutOrStdout(), books)
			})
		},
	}

	ff.register(cmd)
	cmd.Flags().StringVar(&sortBy, "sort", "", "sort by field: name, author, count, year, _id")
	cmd.Flags().BoolVar(&desc, "desc", false, "sort in descending order")
	cmd.Flags().Int64Var(&skip, "skip", 0, "skip this many books")
	cmd.Flags().Int64Var(&limit, "limit", 0, "print at most this many books")
	cmd.Flags().StringSliceVar(&fields, "fields", nil, "only return these fields (the ID is always returned)")
	return cmd
}

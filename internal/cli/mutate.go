package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lizasixsixsix/m1001/pkg/types"
)

func newRestockCmd() *cobra.Command {
	var (
		ff filterFlags
		by int
	)

	cmd := &cobra.Command{
		Use:   "restock",
		Short: "Increase the count of matching books",
		Example: `  bookshelf restock
  bookshelf restock --by 5 --author Tolkien`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := ff.filter(cmd)
			if err != nil {
				return err
			}
			return runUpdate(cmd, filter, types.Inc(types.FieldCount, by))
		},
	}

	ff.register(cmd)
	cmd.Flags().IntVar(&by, "by", 1, "amount added to each count")
	return cmd
}

func newTagCmd() *cobra.Command {
	var ff filterFlags

	cmd := &cobra.Command{
		Use:   "tag <genre>",
		Short: "Add a genre to matching books",
		Long: `Tag adds the genre to every matching book that does not already carry it.
Running it twice changes nothing the second time.`,
		Example: `  bookshelf tag favorite --genre fantasy`,
		Args:    usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := ff.filter(cmd)
			if err != nil {
				return err
			}
			return runUpdate(cmd, filter, types.AddToSet(types.FieldGenre, args[0]))
		},
	}

	ff.register(cmd)
	return cmd
}

func runUpdate(cmd *cobra.Command, filter types.Filter, update types.Update) error {
	if err := update.Validate(); err != nil {
		return err
	}
	return withCollection(cmd.Context(), func(_ types.Shelf, coll types.Collection) error {
		res, err := coll.UpdateMany(cmd.Context(), filter, update)
		if err != nil {
			return err
		}
		if flags.jsonMode {
			return writeJSON(cmd.OutOrStdout(), res)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Matched %d, modified %d\n", res.Matched, res.Modified)
		return nil
	})
}

func newPruneCmd() *cobra.Command {
	var (
		below int
		all   bool
	)

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete books whose count is below a threshold",
		Example: `  bookshelf prune --below 3
  bookshelf prune --all`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			var filter types.Filter
			switch {
			case all && cmd.Flags().Changed("below"):
				return usageError(errors.New("--below and --all cannot be used together"))
			case all:
				filter = types.All()
			case cmd.Flags().Changed("below"):
				filter = types.Lt(types.FieldCount, below)
			default:
				return usageError(errors.New("prune needs --below or --all"))
			}

			return withCollection(cmd.Context(), func(_ types.Shelf, coll types.Collection) error {
				n, err := coll.DeleteMany(cmd.Context(), filter)
				if err != nil {
					return err
				}
				if flags.jsonMode {
					return writeJSON(cmd.OutOrStdout(), map[string]int64{"deleted": n})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d books\n", n)
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&below, "below", 0, "delete books with count less than this")
	cmd.Flags().BoolVar(&all, "all", false, "delete every book")
	return cmd
}

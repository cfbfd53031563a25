package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lizasixsixsix/m1001/internal/fixture"
	"github.com/lizasixsixsix/m1001/pkg/types"
)

func newSeedCmd() *cobra.Command {
	var fixturePath string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Drop the books collection and load the fixture into it",
		Long: `Seed drops the collection named by fixture:collection, creates it again,
and bulk-loads every record of the fixture. Without --fixture or
fixture:path the built-in books fixture is used.`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := sess.settings.Fixture.Path
			if fixturePath != "" {
				path = fixturePath
			}
			set, err := fixture.LoadOrDefault(path)
			if err != nil {
				return usageError(err)
			}

			ctx := cmd.Context()
			sh, err := openShelf(ctx)
			if err != nil {
				return err
			}
			defer sh.Detach(ctx)

			name := sess.settings.Fixture.Collection
			coll, err := fixture.Seed(ctx, sh, name, set, sess.log)
			if err != nil {
				return err
			}
			n, err := coll.Count(ctx, types.All())
			if err != nil {
				return err
			}

			if flags.jsonMode {
				return writeJSON(cmd.OutOrStdout(), map[string]any{"collection": name, "records": n})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d books into %s\n", n, name)
			return nil
		},
	}

	cmd.Flags().StringVar(&fixturePath, "fixture", "", "fixture file (overrides fixture:path)")
	return cmd
}

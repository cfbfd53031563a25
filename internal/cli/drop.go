package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDropCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "drop",
		Short: "Drop the books collection",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sh, err := openShelf(ctx)
			if err != nil {
				return err
			}
			defer sh.Detach(ctx)

			name := sess.settings.Fixture.Collection
			if err := sh.DropCollection(ctx, name); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Dropped %s\n", name)
			return nil
		},
	}
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lizasixsixsix/m1001/pkg/shelf"
)

const modulePath = "github.com/lizasixsixsix/m1001"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the bookshelf version",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "bookshelf v%s\nmodule: %s\n", shelf.Version, modulePath)
			return nil
		},
	}
}

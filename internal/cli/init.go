package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lizasixsixsix/m1001/internal/settings"
	"github.com/lizasixsixsix/m1001/pkg/types"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write default settings and initialize storage",
		Long: `Write appsettings.json with default values if it does not exist, then
attach and detach the configured backend to check that it is reachable.
For the sqlite backend this creates the data directory.`,
		Args: usageArgs(cobra.NoArgs),
		RunE: runInit,
	}
}

func runInit(cmd *cobra.Command, args []string) error {
	path := sess.settings.File
	written, err := settings.WriteDefault(path)
	if err != nil {
		return err
	}
	if written {
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "Settings already exist at %s\n", path)
	}

	ctx := cmd.Context()
	sh, err := openShelf(ctx)
	if err != nil {
		return err
	}
	if err := sh.Detach(ctx); err != nil {
		return fmt.Errorf("detach: %w", err)
	}

	where := sess.settings.DB.Server
	if sess.settings.DB.Backend == types.BackendSQLite {
		where = sess.settings.DB.DataDir
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Bookshelf initialized (%s at %s)\n", sess.settings.DB.Backend, where)
	return nil
}

package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pgtools/replctl/internal/postgres"
	"github.com/pgtools/replctl/internal/render"
	"github.com/pgtools/replctl/internal/repl"
)

var listReplicationOriginsCmd = &cobra.Command{
	Use:   "list-replication-origins",
	Short: "List replication origins on the destination",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		p, err := provider()
		if err != nil {
			return err
		}
		defer p.Close(ctx)

		dest, err := p.Destination(ctx)
		if err != nil {
			return err
		}
		origins, err := postgres.ListReplicationOrigins(ctx, dest)
		if err != nil {
			return err
		}
		render.ReplicationOrigins(os.Stdout, origins)
		return nil
	},
}

var (
	flagLSN         string
	flagRewindBytes int64
	flagRewindYes   bool
)

var rewindReplicationOriginCmd = &cobra.Command{
	Use:   "rewind-replication-origin <subscription>",
	Short: "Move a subscription's replication origin to an LSN. Very dangerous",
	Long: "Disables the subscription, advances its replication origin to the requested LSN " +
		"and re-enables it. The target LSN is not validated in any way: rewinding to the " +
		"wrong position skips or re-applies changes. On failure the subscription stays disabled.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !flagRewindYes && !confirm("This is a very dangerous operation. Are you sure?") {
			fmt.Println("Aborting.")
			return nil
		}
		if flagLSN != "" && !flagRewindYes && !confirm(fmt.Sprintf("Please confirm the target LSN %s.", flagLSN)) {
			fmt.Println("Aborting.")
			return nil
		}

		ctx := cmd.Context()
		p, err := provider()
		if err != nil {
			return err
		}
		defer p.Close(ctx)

		src, err := p.Source(ctx)
		if err != nil {
			return err
		}
		dest, err := p.Destination(ctx)
		if err != nil {
			return err
		}
		w := &repl.Rewind{Source: src, Dest: dest}
		return w.Run(ctx, repl.RewindOptions{
			Subscription: args[0],
			LSN:          flagLSN,
			RewindBytes:  flagRewindBytes,
		})
	},
}

func init() {
	f := rewindReplicationOriginCmd.Flags()
	f.StringVar(&flagLSN, "lsn", "", "Target LSN, e.g. 0/16EDE8A0")
	f.Int64Var(&flagRewindBytes, "rewind-bytes", 0, "Rewind this many bytes from the origin's current position")
	f.BoolVar(&flagRewindYes, "yes", false, "Skip confirmation prompts")

	rootCmd.AddCommand(listReplicationOriginsCmd, rewindReplicationOriginCmd)
}

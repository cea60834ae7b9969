package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pgtools/replctl/internal/postgres"
	"github.com/pgtools/replctl/internal/render"
)

var listReplicationSlotsCmd = &cobra.Command{
	Use:   "list-replication-slots",
	Short: "List replication slots on the source",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
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
		slots, err := postgres.ListReplicationSlots(ctx, src)
		if err != nil {
			return err
		}
		render.ReplicationSlots(os.Stdout, slots)
		return nil
	},
}

var createReplicationSlotCmd = &cobra.Command{
	Use:   "create-replication-slot <name>",
	Short: "Create a logical replication slot on the source",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
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
		slot, err := postgres.GetReplicationSlot(ctx, src, args[0])
		if err != nil {
			return err
		}
		if slot != nil {
			fmt.Printf("Replication slot %s already exists.\n", args[0])
			return nil
		}
		return postgres.CreateReplicationSlot(ctx, src, args[0])
	},
}

var dropReplicationSlotCmd = &cobra.Command{
	Use:   "drop-replication-slot <name>",
	Short: "Drop a replication slot on the source",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
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
		slot, err := postgres.GetReplicationSlot(ctx, src, args[0])
		if err != nil {
			return err
		}
		if slot == nil {
			fmt.Printf("Replication slot %s does not exist.\n", args[0])
			return nil
		}
		return postgres.DropReplicationSlot(ctx, src, args[0])
	},
}

func init() {
	rootCmd.AddCommand(listReplicationSlotsCmd, createReplicationSlotCmd, dropReplicationSlotCmd)
}

package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/pgtools/replctl/internal/postgres"
	"github.com/pgtools/replctl/internal/render"
	"github.com/pgtools/replctl/internal/repl"
)

var listSubscriptionsCmd = &cobra.Command{
	Use:   "list-subscriptions",
	Short: "List subscriptions on the destination with their replication lag",
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
		dest, err := p.Destination(ctx)
		if err != nil {
			return err
		}
		statuses, err := repl.SubscriptionStatuses(ctx, src, dest)
		if err != nil {
			return err
		}
		render.Subscriptions(os.Stdout, statuses)
		return nil
	},
}

var (
	flagReplicationSlot string
	flagCopyData        bool
	flagDisabled        bool
)

var createSubscriptionCmd = &cobra.Command{
	Use:   "create-subscription <name>",
	Short: "Create a logical replication subscription pulling from the source",
	Long: "Creates <name>_slot and <name>_publication on the source, then a subscription " +
		"on the destination with create_slot=false. --replication-slot reuses (or creates) " +
		"a slot under a different name.",
	Args: cobra.ExactArgs(1),
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
		dest, err := p.Destination(ctx)
		if err != nil {
			return err
		}
		return repl.CreateSubscriptionSet(ctx, src, dest, repl.SetupOptions{
			Name:      args[0],
			SourceDSN: p.Topology().Source.DSN,
			SlotName:  flagReplicationSlot,
			CopyData:  flagCopyData,
			Enabled:   !flagDisabled,
		})
	},
}

var dropSubscriptionCmd = &cobra.Command{
	Use:   "drop-subscription <name>",
	Short: "Drop a subscription and its slot/publication on the source",
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
		dest, err := p.Destination(ctx)
		if err != nil {
			return err
		}
		sub, err := postgres.GetSubscription(ctx, dest, args[0])
		if err != nil {
			return err
		}
		if sub == nil {
			return &repl.SubscriptionNotFoundError{Name: args[0]}
		}
		if err := repl.DropSubscriptionSet(ctx, dest, sub.Name); err != nil {
			return err
		}
		repl.DropSourceLeftovers(ctx, src, sub)
		return nil
	},
}

var enableSubscriptionCmd = &cobra.Command{
	Use:   "enable-subscription <name>",
	Short: "Enable a subscription (start its apply worker)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return alterSubscription(cmd, args[0], postgres.EnableSubscription)
	},
}

var disableSubscriptionCmd = &cobra.Command{
	Use:   "disable-subscription <name>",
	Short: "Disable a subscription (stop its apply worker)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return alterSubscription(cmd, args[0], postgres.DisableSubscription)
	},
}

func alterSubscription(cmd *cobra.Command, name string, alter func(ctx context.Context, q postgres.Querier, name string) error) error {
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
	sub, err := postgres.GetSubscription(ctx, dest, name)
	if err != nil {
		return err
	}
	if sub == nil {
		return &repl.SubscriptionNotFoundError{Name: name}
	}
	return alter(ctx, dest, sub.Name)
}

func init() {
	f := createSubscriptionCmd.Flags()
	f.StringVar(&flagReplicationSlot, "replication-slot", "", "Existing slot to attach instead of <name>_slot")
	f.BoolVar(&flagCopyData, "copy-data", false, "Copy existing data from the source when the subscription starts")
	f.BoolVar(&flagDisabled, "disabled", false, "Create the subscription without starting it")

	rootCmd.AddCommand(listSubscriptionsCmd, createSubscriptionCmd, dropSubscriptionCmd,
		enableSubscriptionCmd, disableSubscriptionCmd)
}

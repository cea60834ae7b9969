package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pgtools/replctl/internal/postgres"
	"github.com/pgtools/replctl/internal/render"
	"github.com/pgtools/replctl/internal/repl"
)

var (
	flagForce      bool
	flagReverseYes bool
)

var reverseSubscriptionCmd = &cobra.Command{
	Use:   "reverse-subscription [name]",
	Short: "Swap source and destination roles. Irreversible past the topology swap",
	Long: "Drops the subscription on the destination, swaps the recorded topology and creates " +
		"a <name>_reversed subscription flowing the other way. Refuses when replication lag is " +
		"non-zero or unknown unless --force is given. When the name is omitted and exactly one " +
		"subscription exists, that one is reversed.",
	Args: cobra.MaximumNArgs(1),
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

		name, err := reverseTarget(cmd, dest, args)
		if err != nil {
			return err
		}
		if !flagReverseYes && !confirm("This is irreversible. Are you sure?") {
			fmt.Println("Aborting.")
			return nil
		}

		w := &repl.Reverse{Store: store(), Source: src, Dest: dest}
		topo, err := w.Run(ctx, repl.ReverseOptions{Subscription: name, Force: flagForce})
		if err != nil {
			return err
		}
		render.Topology(os.Stdout, topo)
		return nil
	},
}

// reverseTarget picks the subscription to reverse: the positional argument,
// or the only subscription on the destination.
func reverseTarget(cmd *cobra.Command, dest postgres.Querier, args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	subs, err := postgres.ListSubscriptions(cmd.Context(), dest)
	if err != nil {
		return "", err
	}
	switch len(subs) {
	case 0:
		return "", fmt.Errorf("no subscriptions exist on the destination")
	case 1:
		return subs[0].Name, nil
	default:
		return "", fmt.Errorf("%d subscriptions exist on the destination, name the one to reverse", len(subs))
	}
}

func init() {
	f := reverseSubscriptionCmd.Flags()
	f.BoolVar(&flagForce, "force", false, "Reverse even when replication lag is non-zero or unknown")
	f.BoolVar(&flagReverseYes, "yes", false, "Skip the confirmation prompt")

	rootCmd.AddCommand(reverseSubscriptionCmd)
}

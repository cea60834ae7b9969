package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/pgtools/replctl/internal/config"
	"github.com/pgtools/replctl/internal/render"
)

var (
	flagSource      string
	flagDestination string
)

var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Write the source and destination DSNs to the topology file",
	RunE: func(cmd *cobra.Command, args []string) error {
		t := config.Topology{
			Source:      config.Endpoint{Role: config.RoleSource, DSN: flagSource},
			Destination: config.Endpoint{Role: config.RoleDestination, DSN: flagDestination},
		}
		if err := store().Save(t); err != nil {
			return err
		}
		render.Topology(os.Stdout, t)
		return nil
	},
}

var reverseConfigurationCmd = &cobra.Command{
	Use:   "reverse-configuration",
	Short: "Swap source and destination in the topology file only",
	Long: "Swaps the recorded roles without touching either database. Useful when working " +
		"with a pair whose subscription was reversed by hand, or to undo the topology half " +
		"of a partial reversal.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := store().Swap()
		if err != nil {
			return err
		}
		render.Topology(os.Stdout, t)
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the replctl version",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("replctl %s\n", Version)
	},
}

func init() {
	f := configureCmd.Flags()
	f.StringVar(&flagSource, "source", "", "DSN of the source database, i.e. the primary (required)")
	f.StringVar(&flagDestination, "destination", "", "DSN of the destination database, i.e. the replica (required)")
	_ = configureCmd.MarkFlagRequired("source")
	_ = configureCmd.MarkFlagRequired("destination")

	rootCmd.AddCommand(configureCmd, reverseConfigurationCmd, versionCmd)
}

package cli

import (
	"bufio"
	"context"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pgtools/replctl/internal/config"
	"github.com/pgtools/replctl/internal/log"
	"github.com/pgtools/replctl/internal/postgres"
	"github.com/pgtools/replctl/internal/render"
)

// Version is printed by `replctl version`; overridden at build time via
// -ldflags "-X github.com/pgtools/replctl/internal/cli.Version=...".
var Version = "0.2.0"

var (
	flagConfig  string
	flagDebug   bool
	flagVerbose bool
)

var rootCmd = &cobra.Command{
	Use:           "replctl",
	Short:         "Manage PostgreSQL logical replication between a source and a destination",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		log.Setup(flagDebug, flagVerbose)
	},
}

// Execute parses flags and runs the selected command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagConfig, "config", config.DefaultPath, "Topology file holding the source/destination DSNs")
	pf.BoolVar(&flagDebug, "debug", false, "Enable debug trace output (echoes every SQL statement)")
	pf.BoolVar(&flagVerbose, "verbose", false, "Verbose output")
}

func store() *config.Store {
	return config.NewStore(flagConfig)
}

// provider loads the topology and returns a connection provider; the caller
// defers Close so connections are released on every exit path.
func provider() (*postgres.Provider, error) {
	topo, err := store().Load()
	if err != nil {
		return nil, err
	}
	return postgres.NewProvider(topo), nil
}

// confirm asks on stdin before irreversible operations; only y/yes proceeds.
func confirm(prompt string) bool {
	render.Dangerf(os.Stdout, "%s [y/N]: ", prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

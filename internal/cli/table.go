package cli

import (
	"fmt"
	"os"

	"github.com/jackc/pgx/v5"
	"github.com/spf13/cobra"

	"github.com/pgtools/replctl/internal/postgres"
	"github.com/pgtools/replctl/internal/render"
)

var (
	flagOnSource      bool
	flagOnDestination bool
)

// sideConn resolves the --source/--destination toggle to a connection.
func sideConn(cmd *cobra.Command, p *postgres.Provider) (*pgx.Conn, error) {
	if flagOnSource == flagOnDestination {
		return nil, fmt.Errorf("exactly one of --source or --destination is required")
	}
	if flagOnSource {
		return p.Source(cmd.Context())
	}
	return p.Destination(cmd.Context())
}

var listTablesCmd = &cobra.Command{
	Use:   "list-tables",
	Short: "List public-schema tables on the source or destination",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		p, err := provider()
		if err != nil {
			return err
		}
		defer p.Close(ctx)

		conn, err := sideConn(cmd, p)
		if err != nil {
			return err
		}
		tables, err := postgres.ListTables(ctx, conn)
		if err != nil {
			return err
		}
		render.Tables(os.Stdout, tables)
		return nil
	},
}

var listColumnsCmd = &cobra.Command{
	Use:   "list-columns <table>",
	Short: "List the columns of a table on the source or destination",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		p, err := provider()
		if err != nil {
			return err
		}
		defer p.Close(ctx)

		conn, err := sideConn(cmd, p)
		if err != nil {
			return err
		}
		cols, err := postgres.ListColumns(ctx, conn, args[0])
		if err != nil {
			return err
		}
		if len(cols) == 0 {
			fmt.Printf("No table %s exists on this side.\n", args[0])
			return nil
		}
		render.Columns(os.Stdout, args[0], cols)
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{listTablesCmd, listColumnsCmd} {
		c.Flags().BoolVar(&flagOnSource, "source", false, "Inspect the source")
		c.Flags().BoolVar(&flagOnDestination, "destination", false, "Inspect the destination")
	}
	rootCmd.AddCommand(listTablesCmd, listColumnsCmd)
}

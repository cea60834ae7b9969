package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/pgtools/replctl/internal/postgres"
	"github.com/pgtools/replctl/internal/render"
)

var listPublicationsCmd = &cobra.Command{
	Use:   "list-publications",
	Short: "List publications on the source",
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
		pubs, err := postgres.ListPublications(ctx, src)
		if err != nil {
			return err
		}
		render.Publications(os.Stdout, pubs)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listPublicationsCmd)
}

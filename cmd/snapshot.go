package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/storeadmin/internal/snapshot"
)

func newExportCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "export <file>",
		Short: "Export every product to a .parquet, .jsonl or .yaml file",
		Args:  cobra.ExactArgs(1),
		Example: `  storeadmin export backups/catalog.parquet
  storeadmin export catalog.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := g.open(cmd.Context(), g.cfg)
			if err != nil {
				return err
			}
			defer b.Close()

			n, err := snapshot.Export(cmd.Context(), b.Products, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d products to %s\n", n, args[0])
			return nil
		},
	}
}

func newImportCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Create products from a .parquet or .jsonl snapshot",
		Long: `Creates one product per row of the snapshot. Rows without any image are
skipped. Image URLs are stored as they are; nothing is re-uploaded.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := g.open(cmd.Context(), g.cfg)
			if err != nil {
				return err
			}
			defer b.Close()

			res, err := snapshot.Import(cmd.Context(), b.Products, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %d products, skipped %d\n", res.Created, res.Skipped)
			return nil
		},
	}
}

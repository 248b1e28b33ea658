package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/storeadmin/internal/backend"
	"github.com/lehigh-university-libraries/storeadmin/internal/catalog"
)

// newTaxonomyCmd builds the categories and genders command groups
func newTaxonomyCmd(g *globals, plural, singular string) *cobra.Command {
	pick := func(b *backend.Backend) catalog.Taxonomy {
		if plural == "genders" {
			return b.Genders
		}
		return b.Categories
	}

	cmd := &cobra.Command{
		Use:   plural,
		Short: fmt.Sprintf("List and add %s", plural),
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: fmt.Sprintf("List %s sorted by name", plural),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := g.open(cmd.Context(), g.cfg)
			if err != nil {
				return err
			}
			defer b.Close()

			entries, err := pick(b).List(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tCREATED")
			for _, e := range entries {
				fmt.Fprintf(w, "%s\t%s\t%s\n", e.ID, e.Name, e.CreatedAt.Format(time.DateOnly))
			}
			return w.Flush()
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "add <name>",
		Short: fmt.Sprintf("Add a %s", singular),
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := g.open(cmd.Context(), g.cfg)
			if err != nil {
				return err
			}
			defer b.Close()

			id, err := pick(b).Add(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	})

	return cmd
}

package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/storeadmin/internal/backend"
	"github.com/lehigh-university-libraries/storeadmin/internal/config"
)

// globals shared by every subcommand
type globals struct {
	configPath string
	logLevel   string
	cfg        config.Config
	open       opener
}

// opener connects the backends selected by configuration
type opener func(context.Context, config.Config) (*backend.Backend, error)

func NewRootCmd() *cobra.Command {
	return newRootCmd(backend.Open)
}

func newRootCmd(open opener) *cobra.Command {
	g := &globals{open: open}

	cmd := &cobra.Command{
		Use:   "storeadmin",
		Short: "Product catalog administration for a small online shop",
		Long: `storeadmin manages the product catalog of an online shop.

It serves the admin API used by the web front-end and offers the same
operations on the command line: creating and editing products with their
images, changing status, maintaining categories and genders, and exporting
or importing catalog snapshots.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()

			level, err := parseLevel(g.logLevel)
			if err != nil {
				return err
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

			if cmd.Annotations["config"] == "skip" {
				return nil
			}
			if g.configPath == "" {
				g.configPath = os.Getenv("STOREADMIN_CONFIG")
			}
			cfg, err := config.Load(g.configPath)
			if err != nil {
				return err
			}
			g.cfg = cfg
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&g.configPath, "config", "", "Path to a YAML config file (default $STOREADMIN_CONFIG)")
	cmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	cmd.AddCommand(newServeCmd(g))
	cmd.AddCommand(newProductsCmd(g))
	cmd.AddCommand(newTaxonomyCmd(g, "categories", "category"))
	cmd.AddCommand(newTaxonomyCmd(g, "genders", "gender"))
	cmd.AddCommand(newDescribeCmd(g))
	cmd.AddCommand(newExportCmd(g))
	cmd.AddCommand(newImportCmd(g))
	cmd.AddCommand(newHashPasswordCmd())

	return cmd
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

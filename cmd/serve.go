package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/storeadmin/internal/assist"
	"github.com/lehigh-university-libraries/storeadmin/internal/auth"
	"github.com/lehigh-university-libraries/storeadmin/internal/handlers"
)

func newServeCmd(g *globals) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the admin API server",
		Long: `Starts the storeadmin HTTP API on the specified port.

The API backs the admin web front-end: sign in, list and filter products,
create and edit products with up to five images, change status and delete.`,
		Example: `  # Start server on the configured port (default 8888)
  storeadmin serve

  # Start server on custom port with a config file
  storeadmin serve --config storeadmin.yaml --port 3000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := g.cfg
			if port != "" {
				cfg.Server.Port = port
			}

			b, err := g.open(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer b.Close()

			if cfg.Auth.AdminEmail == "" || cfg.Auth.AdminPasswordHash == "" {
				slog.Warn("No admin account configured; every login will be refused", "hint", "storeadmin hash-password")
			}

			var assistant *assist.Service
			if cfg.Assistant.Provider != "" {
				assistant, err = assist.NewService(assistSettings(cfg.Assistant))
				if err != nil {
					return err
				}
			}

			handler := handlers.New(handlers.Options{
				Services:   services(cfg, b),
				Genders:    b.Genders,
				Auth:       auth.New(cfg.Auth.AdminEmail, cfg.Auth.AdminPasswordHash, cfg.Auth.SessionTTL),
				Assistant:  assistant,
				StaticDir:  cfg.Server.StaticDir,
				UploadsDir: b.UploadsDir,
			})

			addr := ":" + cfg.Server.Port
			server := &http.Server{
				Addr:              addr,
				Handler:           handler.Routes(cfg.Server.AllowedOrigins),
				ReadHeaderTimeout: 10 * time.Second,
				IdleTimeout:       time.Minute,
			}

			// Start server in goroutine
			serverErr := make(chan error, 1)
			go func() {
				slog.Info("storeadmin API available", "addr", addr, "url", "http://localhost"+addr)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			// Wait for context cancellation (Ctrl+C) or server error
			select {
			case <-cmd.Context().Done():
				slog.Info("Shutting down server...")
				// Give server 5 seconds to shut down gracefully
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					slog.Error("Server shutdown failed", "err", err)
					return err
				}
				slog.Info("Server stopped")
				return nil
			case err := <-serverErr:
				return err
			}
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "", "Port to listen on (overrides config)")

	return cmd
}

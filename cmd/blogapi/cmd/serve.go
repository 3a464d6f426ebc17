package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/terraconstructs/blogapi/cmd/blogapi/cmd/cmdutil"
	"github.com/terraconstructs/blogapi/internal/server"
	"github.com/terraconstructs/blogapi/internal/telemetry"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the blog API server",
	Long:  `Starts the HTTP server with the auth, post and comment endpoints.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := cmdutil.NewLogger(cfg.Debug)
		slog.SetDefault(logger)

		app, err := cmdutil.NewAppBundle(cfg, logger)
		if err != nil {
			return err
		}
		defer app.Close()

		logger.Info("connected to database")

		serverMetrics, err := telemetry.NewServerMetrics()
		if err != nil {
			return fmt.Errorf("failed to create server metrics: %w", err)
		}

		corsOpts := server.DefaultCORSOptions(cfg.CORS.AllowedOrigins, cfg.Token.Header)

		r := server.NewRouter(server.RouterOptions{
			Auth:        app.Auth,
			Blog:        app.Blog,
			TokenHeader: cfg.Token.Header,
			CORSOptions: &corsOpts,
			Logger:      logger,
			Middleware:  []func(http.Handler) http.Handler{serverMetrics.Middleware},
		})

		// Create HTTP server
		srv := &http.Server{
			Addr:         cfg.ServerAddr,
			Handler:      r,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		}

		// Start server in goroutine
		serverErrors := make(chan error, 1)
		go func() {
			logger.Info("starting server", "addr", cfg.ServerAddr, "token_ttl", cfg.Token.TTL)
			serverErrors <- srv.ListenAndServe()
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		// SIGHUP drops cached accounts so role changes apply before the cache TTL
		cacheReset := make(chan os.Signal, 1)
		signal.Notify(cacheReset, syscall.SIGHUP)

		for {
			select {
			case err := <-serverErrors:
				return fmt.Errorf("server error: %w", err)

			case sig := <-cacheReset:
				app.Lookup.Purge()
				logger.Info("account cache purged", "signal", sig.String())

			case sig := <-shutdown:
				logger.Info("shutting down gracefully", "signal", sig.String())

				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()

				if err := srv.Shutdown(ctx); err != nil {
					srv.Close()
					return fmt.Errorf("graceful shutdown failed: %w", err)
				}

				logger.Info("server stopped")
				return nil
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

package cmd

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Taichi-iskw/voice-support/cmd/chat"
	"github.com/Taichi-iskw/voice-support/internal/migrations"
	"github.com/Taichi-iskw/voice-support/internal/server"
)

var (
	servePort    int
	serveMigrate bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the chat support HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		factory, err := chat.NewServiceFactory()
		if err != nil {
			return err
		}
		cfg := factory.Config()

		if serveMigrate {
			if err := migrations.Up(cfg.DatabaseURL); err != nil {
				return err
			}
			slog.Info("database schema is up to date")
		}

		// Setup signal handling for graceful shutdown.
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		svc, cleanup, err := factory.CreateService(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		port := cfg.Server.Port
		if cmd.Flags().Changed("port") {
			port = servePort
		}

		router := server.NewRouter(svc, server.Options{
			Port:        port,
			CORSOrigins: cfg.Server.CORSOrigins,
		})
		return server.Run(ctx, router, port)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 8080, "listen port (overrides server.port)")
	serveCmd.Flags().BoolVar(&serveMigrate, "migrate", false, "apply database migrations before serving")
	rootCmd.AddCommand(serveCmd)
}

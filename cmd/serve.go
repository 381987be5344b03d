package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"pmplanner/pkg/reqlog"
	"pmplanner/pkg/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP backend",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, prof, err := loadConfig()
		if err != nil {
			return err
		}
		svc, err := newPlanner(prof, logger)
		if err != nil {
			return err
		}

		srv := server.New(svc, server.Options{
			Addr:       ifEmpty(serveAddr, cfg.Server.Addr),
			Exporter:   newExporter(cfg, logger),
			RequestLog: reqlog.New(cfg.Server.LogPath, logger),
			Logger:     logger,
		})

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		logger.Info("pmplanner backend is starting",
			zap.String("addr", srv.Addr()),
			zap.String("request_log", cfg.Server.LogPath),
		)
		return srv.Run(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides server.addr)")
	rootCmd.AddCommand(serveCmd)
}

package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/ainterviewer/internal/logger"
	"github.com/spigell/ainterviewer/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the interview HTTP API",
	Run: func(_ *cobra.Command, _ []string) {
		serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("listen", "l", "", "address to listen on (default :8080)")
	serveCmd.Flags().Duration("session-ttl", 0, "evict sessions idle for longer than this (default 24h)")

	viper.BindPFlag("server.listen", serveCmd.Flags().Lookup("listen"))
	viper.BindPFlag("server.session-ttl", serveCmd.Flags().Lookup("session-ttl"))
}

func serve() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	gateway, err := newGateway(ctx, config.AI, logger)
	if err != nil {
		logger.Fatal("creating the ai gateway", zap.Error(err))
	}

	logger.Info("starting the ainterviewer api",
		zap.String("version", version),
		zap.Duration("session_ttl", config.Server.SessionTTL),
	)

	srv := server.New(server.Config{
		Listen:         config.Server.Listen,
		SessionTTL:     config.Server.SessionTTL,
		MaxUploadBytes: config.Server.MaxUploadBytes,
	}, gateway, logger)

	if err := srv.Run(ctx); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}

	logger.Info("server stopped")
}

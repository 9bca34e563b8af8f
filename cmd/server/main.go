package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/vagrant-mcp/govagrant/internal/config"
	"github.com/vagrant-mcp/govagrant/internal/logger"
	"github.com/vagrant-mcp/govagrant/internal/server"
)

func main() {
	cfg, err := config.Load(os.Getenv(config.EnvConfigFile))
	if err != nil {
		logger.Setup(logger.DefaultConfig())
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// stdout carries MCP traffic, so logs always go to stderr
	logger.Setup(cfg.Logger())

	log.Info().Str("root", cfg.Root).Msg("Starting Vagrant MCP Server")

	// Create server with cancellable context
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv, err := server.NewServer(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create server")
	}

	if err := srv.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to start server")
	}

	// Handle graceful shutdown
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigs
		log.Info().Msgf("Received signal %v, shutting down...", sig)
		cancel()
	}()

	<-srv.Done()
	log.Info().Msg("Vagrant MCP Server shutdown complete")
}

package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	stdlog "log"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog/log"

	"github.com/vagrant-mcp/govagrant/internal/config"
	"github.com/vagrant-mcp/govagrant/internal/handlers"
	"github.com/vagrant-mcp/govagrant/internal/metrics"
	"github.com/vagrant-mcp/govagrant/internal/resources"
	"github.com/vagrant-mcp/govagrant/pkg/vagrant"
)

// Name and Version identify the server to MCP clients
const (
	Name    = "govagrant"
	Version = "0.1.0"
)

// Server manages the MCP server instance
type Server struct {
	cfg       config.Config
	mcpServer *mcpserver.MCPServer
	client    *vagrant.Client
	recorder  *metrics.Recorder

	in  io.Reader
	out io.Writer

	metricsListener net.Listener
	metricsServer   *http.Server

	stopOnce sync.Once
	doneCh   chan struct{}
}

// Option customises a Server
type Option func(*Server)

// WithIO replaces stdin and stdout as the MCP transport
func WithIO(in io.Reader, out io.Writer) Option {
	return func(s *Server) {
		s.in = in
		s.out = out
	}
}

// NewServer creates an MCP server exposing the vagrant project in cfg.Root
func NewServer(cfg config.Config, opts ...Option) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	recorder := metrics.New()
	client, err := vagrant.NewFromConfig(cfg, recorder)
	if err != nil {
		return nil, fmt.Errorf("failed to create vagrant client: %w", err)
	}

	mcpServer := mcpserver.NewMCPServer(Name, Version,
		mcpserver.WithToolCapabilities(false),
		mcpserver.WithResourceCapabilities(false, false),
		mcpserver.WithRecovery(),
	)
	handlers.RegisterAll(mcpServer, client)
	resources.RegisterMCPResources(mcpServer, client)

	srv := &Server{
		cfg:       cfg,
		mcpServer: mcpServer,
		client:    client,
		recorder:  recorder,
		in:        os.Stdin,
		out:       os.Stdout,
		doneCh:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(srv)
	}

	log.Info().Str("root", client.Root()).Msg("All MCP components registered")
	return srv, nil
}

// MCPServer returns the underlying mcp-go server
func (s *Server) MCPServer() *mcpserver.MCPServer {
	return s.mcpServer
}

// Client returns the vagrant client the tools use
func (s *Server) Client() *vagrant.Client {
	return s.client
}

// MetricsAddr returns the bound metrics address, or "" when disabled
func (s *Server) MetricsAddr() string {
	if s.metricsListener == nil {
		return ""
	}
	return s.metricsListener.Addr().String()
}

// Start serves MCP over the configured transport until ctx is cancelled or
// the client closes its end
func (s *Server) Start(ctx context.Context) error {
	if s.cfg.WatchVagrantfile {
		if err := s.client.Watch(); err != nil {
			// a project without a Vagrantfile yet still works, only uncached
			log.Warn().Err(err).Msg("Not watching Vagrantfile")
		}
	}

	if s.cfg.MetricsListen != "" {
		if err := s.startMetrics(); err != nil {
			_ = s.client.Close()
			return err
		}
	}

	stdio := mcpserver.NewStdioServer(s.mcpServer)
	stdio.SetErrorLogger(stdlog.New(log.Logger, "", 0))

	go func() {
		err := stdio.Listen(ctx, s.in, s.out)
		if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, io.EOF) {
			log.Error().Err(err).Msg("MCP transport stopped")
		}
		if ctx.Err() != nil {
			log.Info().Msg("Context canceled, stopping server")
		}
		_ = s.Stop()
	}()

	log.Info().Msg("Vagrant MCP Server started successfully")
	return nil
}

func (s *Server) startMetrics() error {
	listener, err := net.Listen("tcp", s.cfg.MetricsListen)
	if err != nil {
		return fmt.Errorf("listen metrics %s: %w", s.cfg.MetricsListen, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", s.recorder.Handler())
	s.metricsListener = listener
	s.metricsServer = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	go func() {
		if err := s.metricsServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Metrics server stopped")
		}
	}()
	log.Info().Str("addr", listener.Addr().String()).Msg("Serving metrics")
	return nil
}

// Stop halts the server. It is safe to call more than once.
func (s *Server) Stop() error {
	s.stopOnce.Do(func() {
		log.Info().Msg("Stopping Vagrant MCP Server...")

		if s.metricsServer != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := s.metricsServer.Shutdown(ctx); err != nil {
				log.Error().Err(err).Msg("Error stopping metrics server")
			}
			cancel()
		}
		if err := s.client.Close(); err != nil {
			log.Error().Err(err).Msg("Error stopping Vagrantfile watcher")
		}

		close(s.doneCh)
	})
	return nil
}

// Done returns a channel that's closed when the server has completely shut down
func (s *Server) Done() <-chan struct{} {
	return s.doneCh
}

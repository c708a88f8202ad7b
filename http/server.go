// Package http serves the risk predictor over HTTP: JSON API, HTML form,
// prediction stream and metrics.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"heartrisk/ml"
)

const maxRequestBytes = 1 << 20

type Server struct {
	server *http.Server
	config ServerConfig
	logger *zap.Logger
}

type ServerConfig struct {
	Port           int
	Timeout        time.Duration
	AllowedOrigins []string
}

func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Port:           8080,
		Timeout:        30 * time.Second,
		AllowedOrigins: []string{"*"},
	}
}

// Dependencies are the collaborators a server is built from. History and Stream are optional.
type Dependencies struct {
	Predictor ml.ModelProvider
	History   PredictionLog
	Stream    PredictionStream
	Logger    *zap.Logger
}

// NewHandler builds the routed, middleware-wrapped handler tree.
// The websocket route skips the timeout and body limit middlewares.
func NewHandler(config ServerConfig, deps Dependencies) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	api := http.NewServeMux()
	NewHandlers(deps.Predictor, deps.History, deps.Stream, logger).Register(api)

	chain := Chain(
		RecoveryMiddleware(logger),
		LoggerMiddleware(logger),
		SecurityHeadersMiddleware,
		CORSMiddleware(config.AllowedOrigins),
		RequestSizeMiddleware(maxRequestBytes),
		TimeoutMiddleware(config.Timeout),
	)

	root := http.NewServeMux()
	root.Handle("/", chain(api))
	if deps.Stream != nil {
		streamChain := Chain(RecoveryMiddleware(logger), LoggerMiddleware(logger))
		root.Handle("GET /api/ws/predictions", streamChain(http.HandlerFunc(deps.Stream.HandleWebSocket)))
	}
	return root
}

// NewServer builds the http.Server around NewHandler.
func NewServer(config ServerConfig, deps Dependencies) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	// WriteTimeout is left unset: the handler timeout bounds API requests and
	// stream connections manage their own deadlines.
	return &Server{
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", config.Port),
			Handler:           NewHandler(config, deps),
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       config.Timeout,
			IdleTimeout:       120 * time.Second,
		},
		config: config,
		logger: logger,
	}
}

// Start blocks until the server stops. A graceful Stop is not an error.
func (s *Server) Start() error {
	s.logger.Info("starting http server", zap.String("addr", s.server.Addr))
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Stop drains in-flight requests until ctx expires.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}

func (s *Server) Addr() string {
	return s.server.Addr
}

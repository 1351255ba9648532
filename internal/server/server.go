// Package server wires the HTTP API: routing, middleware, and the server
// lifecycle.
package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/bleu-ims/materials-service/internal/config"
	"github.com/bleu-ims/materials-service/internal/engines/inventory"
	"github.com/bleu-ims/materials-service/internal/engines/security"
	"github.com/bleu-ims/materials-service/internal/metrics"
	"github.com/bleu-ims/materials-service/pkg/events"
	"github.com/bleu-ims/materials-service/pkg/healthcheck"
)

// Publisher publishes envelope messages to the event broker. The server
// publishes best-effort: broker failures never fail API requests.
type Publisher interface {
	PublishMessage(topic string, msg *events.Message) error
	IsConnected() bool
}

// Options carries the dependencies for a Server.
type Options struct {
	Config    *config.Config
	Logger    *zap.Logger
	Materials *inventory.MaterialEngine
	Batches   *inventory.BatchEngine
	Validator security.TokenValidator
	APIKeys   *security.APIKeyEngine
	Recorder  *metrics.Recorder
	Health    *healthcheck.Engine
	Publisher Publisher
}

// Server is the materials service HTTP API.
type Server struct {
	config     *config.Config
	logger     *zap.Logger
	materials  *inventory.MaterialEngine
	batches    *inventory.BatchEngine
	validator  security.TokenValidator
	apiKeys    *security.APIKeyEngine
	recorder   *metrics.Recorder
	health     *healthcheck.Engine
	publisher  Publisher
	httpServer *http.Server
}

// NewServer creates the API server. The configuration must already be
// validated.
func NewServer(opts Options) (*Server, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if opts.Materials == nil || opts.Batches == nil {
		return nil, fmt.Errorf("inventory engines cannot be nil")
	}
	if opts.Validator == nil {
		return nil, fmt.Errorf("token validator cannot be nil")
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Recorder == nil {
		opts.Recorder = metrics.NewRecorder(nil)
	}

	s := &Server{
		config:    opts.Config,
		logger:    logger.With(zap.String("component", "http-server")),
		materials: opts.Materials,
		batches:   opts.Batches,
		validator: opts.Validator,
		apiKeys:   opts.APIKeys,
		recorder:  opts.Recorder,
		health:    opts.Health,
		publisher: opts.Publisher,
	}
	return s, nil
}

// Router builds the gin engine with all middleware and routes.
func (s *Server) Router() *gin.Engine {
	if s.config.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(RecoveryMiddleware(s.logger))
	router.Use(LoggingMiddleware(s.logger))
	router.Use(MetricsMiddleware(s.recorder))
	router.Use(CORSMiddleware(s.config.Server.AllowedOrigins))

	s.registerHealthRoutes(router)
	s.registerMaterialRoutes(router)
	s.registerBatchRoutes(router)
	return router
}

// Start runs the HTTP server until the context is cancelled, then drains
// in-flight requests within the configured shutdown timeout.
func (s *Server) Start(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:         s.config.Server.Addr(),
		Handler:      s.Router(),
		ReadTimeout:  s.config.Server.ReadTimeout,
		WriteTimeout: s.config.Server.WriteTimeout,
		IdleTimeout:  s.config.Server.IdleTimeout,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		s.logger.Info("Shutting down HTTP server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
		defer cancel()

		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("HTTP server stopped")
		return nil
	}
}

// publishEvent sends an event to the broker if one is connected. Publish
// failures are logged and counted, never returned.
func (s *Server) publishEvent(topic string, msgType events.MessageType, payload interface{}) {
	if s.publisher == nil || !s.publisher.IsConnected() {
		return
	}

	msg, err := events.NewMessage(msgType, "service:materials", payload)
	if err != nil {
		s.logger.Warn("Failed to build event message", zap.Error(err))
		return
	}

	if err := s.publisher.PublishMessage(topic, msg); err != nil {
		s.recorder.CountEventPublished(topic, "error")
		s.logger.Warn("Failed to publish event",
			zap.String("topic", topic),
			zap.Error(err))
		return
	}
	s.recorder.CountEventPublished(topic, "ok")
}

package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apihttp "github.com/GriffinCanCode/sandboxfs/internal/api/http"
	"github.com/GriffinCanCode/sandboxfs/internal/api/middleware"
	"github.com/GriffinCanCode/sandboxfs/internal/api/ws"
	"github.com/GriffinCanCode/sandboxfs/internal/infrastructure/config"
	"github.com/GriffinCanCode/sandboxfs/internal/infrastructure/logging"
	"github.com/GriffinCanCode/sandboxfs/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/sandboxfs/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/sandboxfs/internal/providers/filesystem"
	"github.com/GriffinCanCode/sandboxfs/internal/service"
)

const shutdownTimeout = 15 * time.Second

// Server wraps the HTTP server and dependencies
type Server struct {
	router   *gin.Engine
	registry *service.Registry
	logger   *logging.Logger
	config   *config.Config
	metrics  *monitoring.Metrics
	tracer   *tracing.Tracer
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	if info, err := os.Stat(cfg.Sandbox.Root); err != nil || !info.IsDir() {
		logger.Sync()
		return nil, fmt.Errorf("sandbox root %q is not an existing directory", cfg.Sandbox.Root)
	}

	fs, err := filesystem.NewProvider(filesystem.Options{
		Root:              cfg.Sandbox.Root,
		DisplayRoot:       cfg.Sandbox.DisplayRoot,
		RelativePaths:     cfg.Sandbox.RelativePaths,
		MaxSearchFileSize: cfg.Sandbox.MaxSearchFileSize,
		Debug:             cfg.Sandbox.Debug,
		ArchiveWorkers:    cfg.Sandbox.ArchiveWorkers,
		ArchiveMaxBytes:   cfg.Sandbox.ArchiveMaxBytes,
		HashLimit:         filesystem.DefaultHashLimit,
	})
	if err != nil {
		logger.Sync()
		return nil, fmt.Errorf("failed to open sandbox: %w", err)
	}

	logger.Info("Initializing sandboxfs",
		zap.String("addr", cfg.Server.Addr()),
		zap.String("display_root", fs.Ops().Mapper.DisplayRoot()),
		zap.Bool("relative_paths", cfg.Sandbox.RelativePaths),
		zap.Bool("debug", cfg.Sandbox.Debug),
	)

	metrics := monitoring.NewMetrics()
	tracer := tracing.New("sandboxfs", logger.Logger)

	registry := service.NewRegistry(logger).WithMetrics(metrics).WithTracer(tracer)
	if err := registry.Register(fs); err != nil {
		tracer.Close()
		return nil, fmt.Errorf("failed to register filesystem provider: %w", err)
	}

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(tracing.HTTPMiddleware(tracer))
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		rl := middleware.DefaultRateLimitConfig()
		rl.RequestsPerSecond = cfg.RateLimit.RequestsPerSecond
		rl.Burst = cfg.RateLimit.Burst
		router.Use(middleware.RateLimit(rl))
	}

	handlers := apihttp.NewHandlers(registry, metrics, logger)
	wsHandler := ws.NewHandler(registry, metrics, tracer, logger, ws.DefaultConfig())

	router.GET("/", handlers.Root)
	router.GET("/health", handlers.Health)

	router.GET("/services", handlers.ListServices)
	router.GET("/services/:id", handlers.GetService)
	router.POST("/services/discover", handlers.DiscoverServices)
	router.POST("/services/execute", handlers.ExecuteService)

	router.GET("/stream", wsHandler.HandleConnection)

	router.GET("/metrics", handlers.Prometheus)
	router.GET("/metrics/json", handlers.MetricsJSON)

	logger.Info("Server initialized successfully")

	return &Server{
		router:   router,
		registry: registry,
		logger:   logger,
		config:   cfg,
		metrics:  metrics,
		tracer:   tracer,
	}, nil
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Registry returns the service registry
func (s *Server) Registry() *service.Registry {
	return s.registry
}

// Run serves HTTP until ctx is canceled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	addr := s.config.Server.Addr()
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting HTTP server", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// Close flushes spans and logs
func (s *Server) Close() error {
	s.logger.Info("Shutting down server...")
	s.tracer.Close()
	s.logger.Sync()
	return nil
}

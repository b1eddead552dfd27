package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/net/netutil"

	slothttp "github.com/GriffinCanCode/msgslot/internal/api/http"
	"github.com/GriffinCanCode/msgslot/internal/api/middleware"
	"github.com/GriffinCanCode/msgslot/internal/api/ws"
	"github.com/GriffinCanCode/msgslot/internal/infrastructure/config"
	"github.com/GriffinCanCode/msgslot/internal/infrastructure/logging"
	"github.com/GriffinCanCode/msgslot/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/msgslot/internal/slot"
)

// ShutdownTimeout bounds how long Close waits for in-flight requests.
const ShutdownTimeout = 10 * time.Second

// Server wraps the HTTP server and dependencies
type Server struct {
	router     *gin.Engine
	httpServer *http.Server
	device     *slot.Device
	logger     *logging.Logger
	config     *config.Config
	metrics    *monitoring.Metrics
}

// NewServer creates a new server instance. A nil logger selects one from
// cfg.Logging.
func NewServer(cfg *config.Config, logger *logging.Logger) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		var err error
		if logger, err = logging.FromConfig(cfg.Logging); err != nil {
			return nil, fmt.Errorf("failed to create logger: %w", err)
		}
	}

	logger.Info("Initializing msgslot server",
		zap.String("addr", cfg.Server.Addr()),
		zap.Uint32("max_slots", cfg.Device.MaxSlots),
		zap.Int("max_sessions", cfg.Device.MaxSessions),
	)

	metrics := monitoring.NewMetrics()
	device := slot.NewDevice(slot.Limits{
		MaxSlots:    cfg.Device.MaxSlots,
		MaxSessions: cfg.Device.MaxSessions,
	}, logger.Named("device").Logger).WithObserver(metrics)

	router := gin.New()

	// Add middleware
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(logger.Named("http").Logger))
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
			zap.Bool("global", cfg.RateLimit.Global),
		)
		limits := middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}
		if cfg.RateLimit.Global {
			router.Use(middleware.GlobalRateLimit(limits))
		} else {
			router.Use(middleware.RateLimit(limits))
		}
	}

	handlers := slothttp.NewHandlers(device, metrics, logger.Named("http").Logger)
	wsHandler := ws.NewHandler(device, metrics, logger.Named("ws").Logger)

	// Register routes
	handlers.Register(router)
	router.GET("/slots/:slot/stream", wsHandler.HandleConnection)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	logger.Info("Server initialized successfully")

	return &Server{
		router: router,
		httpServer: &http.Server{
			Addr:              cfg.Server.Addr(),
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
		},
		device:  device,
		logger:  logger,
		config:  cfg,
		metrics: metrics,
	}, nil
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// Device returns the slot device served by s.
func (s *Server) Device() *slot.Device { return s.device }

// Run listens on the configured address and serves until Close.
func (s *Server) Run() error {
	l, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.httpServer.Addr, err)
	}
	return s.Serve(l)
}

// Serve serves on l, capping concurrent connections when configured.
func (s *Server) Serve(l net.Listener) error {
	if n := s.config.Server.MaxConns; n > 0 {
		l = netutil.LimitListener(l, n)
		s.logger.Info("Connection limit enabled", zap.Int("max_conns", n))
	}

	s.logger.Info("Starting HTTP server", zap.String("addr", l.Addr().String()))
	if err := s.httpServer.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close gracefully shuts down the server and releases every open handle.
func (s *Server) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	return s.Shutdown(ctx)
}

// Shutdown stops accepting connections, waits for in-flight requests until
// ctx is done, then shuts the device down.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server...")

	err := s.httpServer.Shutdown(ctx)
	if err != nil {
		s.logger.Error("HTTP shutdown incomplete", zap.Error(err))
	}

	s.device.Shutdown()

	// Sync logger before exit
	_ = s.logger.Sync()

	if err != nil {
		return fmt.Errorf("failed to shut down http server: %w", err)
	}
	return nil
}

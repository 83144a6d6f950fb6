package health

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/feral-file/ff-token-ledger/internal/logger"
)

// Check reports whether one dependency is usable
type Check func(ctx context.Context) error

// Config holds the health server configuration
type Config struct {
	Debug        bool
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// CheckTimeout bounds a whole readiness probe
	CheckTimeout time.Duration
}

// Server exposes liveness and readiness probes over HTTP
type Server struct {
	config     Config
	service    string
	checks     map[string]Check
	httpServer *http.Server
}

// New creates a new health server. checks are run by the readiness probe.
func New(cfg Config, service string, checks map[string]Check) *Server {
	if cfg.CheckTimeout <= 0 {
		cfg.CheckTimeout = 2 * time.Second
	}

	s := &Server{
		config:  cfg,
		service: service,
		checks:  checks,
	}
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      s.Handler(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return s
}

// Handler builds the router
func (s *Server) Handler() http.Handler {
	if s.config.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(Recovery())
	router.Use(Logger())

	router.GET("/health", s.liveness)
	router.GET("/ready", s.readiness)

	return router
}

// Start serves until Shutdown is called
func (s *Server) Start() error {
	logger.Info("Starting health server", zap.String("address", s.httpServer.Addr))

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start health server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown health server: %w", err)
	}

	return nil
}

func (s *Server) liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": s.service,
	})
}

func (s *Server) readiness(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), s.config.CheckTimeout)
	defer cancel()

	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status := http.StatusOK
	results := make(gin.H, len(names))
	for _, name := range names {
		if err := s.checks[name](ctx); err != nil {
			status = http.StatusServiceUnavailable
			results[name] = err.Error()
			logger.WarnCtx(ctx, "Readiness check failed", zap.String("check", name), zap.Error(err))
			continue
		}
		results[name] = "ok"
	}

	overall := "ok"
	if status != http.StatusOK {
		overall = "unavailable"
	}
	c.JSON(status, gin.H{
		"status":  overall,
		"service": s.service,
		"checks":  results,
	})
}

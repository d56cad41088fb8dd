// Package server provides the HTTP server setup and routing configuration.
package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"

	"github.com/naco0406/simplicity/internal/api"
	"github.com/naco0406/simplicity/internal/catalog"
	"github.com/naco0406/simplicity/internal/config"
	"github.com/naco0406/simplicity/internal/db"
	"github.com/naco0406/simplicity/internal/logger"
	"github.com/naco0406/simplicity/internal/media"
	"github.com/naco0406/simplicity/internal/middleware"
	"github.com/naco0406/simplicity/internal/playback"
	"github.com/naco0406/simplicity/internal/transport"
)

// Server represents the HTTP server
type Server struct {
	config   *config.Config
	db       *db.DB
	catalog  *catalog.Service
	resolver *media.Resolver
	sessions *playback.Manager
	router   *gin.Engine
	server   *http.Server
}

// New creates a new server instance
func New(cfg *config.Config, database *db.DB) (*Server, error) {
	repo := db.NewPresentationRepository(database)
	catalogService := catalog.NewService(repo)

	resolver, err := media.NewResolver(cfg.Media.PublicBaseURL, media.S3Options{
		Endpoint:        cfg.Media.S3.Endpoint,
		Region:          cfg.Media.S3.Region,
		AccessKeyID:     cfg.Media.S3.AccessKeyID,
		SecretAccessKey: cfg.Media.S3.SecretAccessKey,
		PresignTTL:      cfg.Media.S3.PresignTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create media resolver: %w", err)
	}

	clk := clockwork.NewRealClock()
	sessions := playback.NewManager(clk, simMediumFactory(clk), transportConfig(cfg), playbackConfig(cfg))

	return &Server{
		config:   cfg,
		db:       database,
		catalog:  catalogService,
		resolver: resolver,
		sessions: sessions,
	}, nil
}

// simMediumFactory builds the simulated medium every session plays on
func simMediumFactory(clk clockwork.Clock) playback.MediumFactory {
	return func(_ string, durationMs int64) transport.Medium {
		return transport.NewSimMedium(clk, transport.SimOptions{
			DurationMs: durationMs,
		})
	}
}

// transportConfig maps the playback tunables onto the transport config
func transportConfig(cfg *config.Config) transport.Config {
	c := transport.DefaultConfig()
	c.LoadTimeout = cfg.Playback.LoadTimeout
	c.MaxLoadAttempts = cfg.Playback.MaxLoadAttempts
	c.BackoffStep = cfg.Playback.BackoffStep
	c.ReadyTimeout = cfg.Playback.ReadyTimeout
	c.ReadyPollInterval = cfg.Playback.ReadyPollInterval
	return c
}

// playbackConfig maps the playback tunables onto the orchestrator config
func playbackConfig(cfg *config.Config) playback.Config {
	c := playback.DefaultConfig()
	c.AutoStartDelay = cfg.Playback.AutoStartDelay
	c.SettleDelay = cfg.Playback.SettleDelay
	c.SentenceSettleDelay = cfg.Playback.SentenceSettleDelay
	c.PrePlayDelay = cfg.Playback.PrePlayDelay
	c.RecoveryDelay = cfg.Playback.RecoveryDelay
	c.ReconcileTick = cfg.Playback.ReconcileTick
	c.DriftThresholdMs = cfg.Playback.DriftThresholdMs
	return c
}

// setupRouter initializes the Gin router with middleware and routes
func (s *Server) setupRouter() {
	// Set Gin mode based on log level
	if s.config.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	s.router = gin.New()

	// Add middleware stack
	s.router.Use(middleware.RequestLogger()) // Custom zerolog request logger
	s.router.Use(gin.Recovery())             // Panic recovery
	s.router.Use(cors.Default())             // CORS support (allows all origins)

	// Media library files are served directly
	s.router.Static(s.config.Media.PublicBaseURL, s.config.Media.LibraryPath)

	apiGroup := s.router.Group("/api")

	api.SetupHealthRoutes(apiGroup, s.db, s.sessions)
	api.SetupPresentationRoutes(apiGroup, s.catalog)
	api.SetupPlayerRoutes(apiGroup, s.catalog, s.resolver, s.sessions)
}

// Seed imports the catalog seed directory, if configured
func (s *Server) Seed(ctx context.Context) error {
	if s.config.Database.SeedPath == "" {
		return nil
	}
	_, err := s.catalog.Seed(ctx, s.config.Database.SeedPath)
	return err
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.setupRouter()

	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)

	s.server = &http.Server{
		Addr:           addr,
		Handler:        s.router,
		ReadTimeout:    s.config.Server.ReadTimeout,
		WriteTimeout:   s.config.Server.WriteTimeout,
		MaxHeaderBytes: 1 << 20, // 1 MB
	}

	logger.Log.Info().
		Str("host", s.config.Server.Host).
		Int("port", s.config.Server.Port).
		Msg("Starting HTTP server")

	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	logger.Log.Info().Msg("Shutting down server gracefully")

	// Tear down active playback sessions first
	if s.sessions != nil {
		s.sessions.Shutdown()
	}

	// Check if server was started before attempting shutdown
	if s.server != nil {
		if err := s.server.Shutdown(ctx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
	}

	logger.Log.Info().Msg("Server stopped")
	return nil
}

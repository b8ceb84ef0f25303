package http

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/custodia-labs/sercha-core/internal/core/ports/driving"
)

// Pinger is a simple health check interface.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server is the ops HTTP surface: health/version, search, settings,
// connector/credential/installation administration, the OAuth callback,
// and on-demand orchestrator/enrichment triggers. It carries no end-user
// login flow — bearer tokens are issued out of band.
type Server struct {
	httpServer *http.Server
	router     *http.ServeMux
	version    string

	authService         driving.AuthService
	searchService       driving.SearchService
	settingsService     driving.SettingsService
	vespaAdminService   driving.VespaAdminService
	connectorRegistry   driving.ConnectorRegistry
	credentialsService  driving.CredentialsService
	installationService driving.InstallationService
	oauthService        driving.OAuthService
	orchestrator        driving.Orchestrator
	enrichmentService   driving.EnrichmentService

	db          Pinger // PostgreSQL health check
	redisClient Pinger // optional
}

// Config holds server configuration.
type Config struct {
	Host    string
	Port    int
	Version string
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Host:    "0.0.0.0",
		Port:    8080,
		Version: "dev",
	}
}

// NewServer creates a new HTTP server.
func NewServer(
	cfg Config,
	authService driving.AuthService,
	searchService driving.SearchService,
	settingsService driving.SettingsService,
	vespaAdminService driving.VespaAdminService,
	connectorRegistry driving.ConnectorRegistry,
	credentialsService driving.CredentialsService,
	installationService driving.InstallationService,
	oauthService driving.OAuthService,
	orchestrator driving.Orchestrator,
	enrichmentService driving.EnrichmentService,
	db Pinger,
	redisClient Pinger, // can be nil
) *Server {
	s := &Server{
		router:              http.NewServeMux(),
		version:             cfg.Version,
		authService:         authService,
		searchService:       searchService,
		settingsService:     settingsService,
		vespaAdminService:   vespaAdminService,
		connectorRegistry:   connectorRegistry,
		credentialsService:  credentialsService,
		installationService: installationService,
		oauthService:        oauthService,
		orchestrator:        orchestrator,
		enrichmentService:   enrichmentService,
		db:                  db,
		redisClient:         redisClient,
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures every HTTP route.
func (s *Server) setupRoutes() {
	authMiddleware := NewAuthMiddleware(s.authService)

	// Health (no auth)
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /ready", s.handleReady)
	s.router.HandleFunc("GET /version", s.handleVersion)

	// Search (any authenticated caller)
	s.router.Handle("POST /api/v1/search",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleSearch)))

	// Settings (viewers read, admins write)
	s.router.Handle("GET /api/v1/matters/{matterId}/settings",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleGetSettings)))
	s.router.Handle("PUT /api/v1/matters/{matterId}/settings",
		authMiddleware.Authenticate(
			authMiddleware.RequireAdmin(http.HandlerFunc(s.handleUpdateSettings))))
	s.router.Handle("GET /api/v1/matters/{matterId}/settings/ai",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleGetAISettings)))
	s.router.Handle("PUT /api/v1/matters/{matterId}/settings/ai",
		authMiddleware.Authenticate(
			authMiddleware.RequireAdmin(http.HandlerFunc(s.handleUpdateAISettings))))
	s.router.Handle("GET /api/v1/matters/{matterId}/settings/ai/status",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleGetAIStatus)))
	s.router.Handle("POST /api/v1/matters/{matterId}/settings/ai/test",
		authMiddleware.Authenticate(
			authMiddleware.RequireAdmin(http.HandlerFunc(s.handleTestAIConnection))))

	// Vespa admin
	s.router.Handle("POST /api/v1/admin/vespa/connect",
		authMiddleware.Authenticate(
			authMiddleware.RequireAdmin(http.HandlerFunc(s.handleVespaConnect))))
	s.router.Handle("GET /api/v1/admin/vespa/status",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleVespaStatus)))
	s.router.Handle("GET /api/v1/admin/vespa/health",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleVespaHealth)))

	// Connectors (registry is read-only metadata about the build)
	s.router.Handle("GET /api/v1/connectors",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleListConnectors)))

	// Credentials (admin-only: these gate access to source systems)
	s.router.Handle("GET /api/v1/credentials",
		authMiddleware.Authenticate(
			authMiddleware.RequireAdmin(http.HandlerFunc(s.handleListCredentials))))
	s.router.Handle("POST /api/v1/credentials",
		authMiddleware.Authenticate(
			authMiddleware.RequireAdmin(http.HandlerFunc(s.handleCreateCredentials))))
	s.router.Handle("GET /api/v1/credentials/{id}",
		authMiddleware.Authenticate(
			authMiddleware.RequireAdmin(http.HandlerFunc(s.handleGetCredentials))))
	s.router.Handle("PUT /api/v1/credentials/{id}",
		authMiddleware.Authenticate(
			authMiddleware.RequireAdmin(http.HandlerFunc(s.handleUpdateCredentials))))
	s.router.Handle("DELETE /api/v1/credentials/{id}",
		authMiddleware.Authenticate(
			authMiddleware.RequireAdmin(http.HandlerFunc(s.handleDeleteCredentials))))
	s.router.Handle("POST /api/v1/credentials/{id}/refresh",
		authMiddleware.Authenticate(
			authMiddleware.RequireAdmin(http.HandlerFunc(s.handleRefreshCredentials))))

	// Installations
	s.router.Handle("GET /api/v1/installations",
		authMiddleware.Authenticate(
			authMiddleware.RequireAdmin(http.HandlerFunc(s.handleListInstallations))))
	s.router.Handle("GET /api/v1/installations/{id}",
		authMiddleware.Authenticate(
			authMiddleware.RequireAdmin(http.HandlerFunc(s.handleGetInstallation))))
	s.router.Handle("DELETE /api/v1/installations/{id}",
		authMiddleware.Authenticate(
			authMiddleware.RequireAdmin(http.HandlerFunc(s.handleDeleteInstallation))))
	s.router.Handle("POST /api/v1/installations/{id}/test",
		authMiddleware.Authenticate(
			authMiddleware.RequireAdmin(http.HandlerFunc(s.handleTestInstallation))))

	// OAuth: authorize is admin-initiated, callback is public (the
	// provider redirects here with no bearer token of ours attached).
	s.router.Handle("POST /api/v1/oauth/authorize",
		authMiddleware.Authenticate(
			authMiddleware.RequireAdmin(http.HandlerFunc(s.handleOAuthAuthorize))))
	s.router.HandleFunc("GET /api/v1/oauth/callback", s.handleOAuthCallback)

	// Orchestrator (admin-only: triggers ingestion against live sources)
	s.router.Handle("POST /api/v1/orchestrator/run",
		authMiddleware.Authenticate(
			authMiddleware.RequireAdmin(http.HandlerFunc(s.handleOrchestratorRun))))
	s.router.Handle("POST /api/v1/orchestrator/run/{connectorName}",
		authMiddleware.Authenticate(
			authMiddleware.RequireAdmin(http.HandlerFunc(s.handleOrchestratorRunConnector))))
	s.router.Handle("GET /api/v1/orchestrator/state",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleOrchestratorState)))

	// Enrichment
	s.router.Handle("POST /api/v1/enrichment/jobs",
		authMiddleware.Authenticate(
			authMiddleware.RequireAdmin(http.HandlerFunc(s.handleEnrichmentSubmit))))
	s.router.Handle("GET /api/v1/enrichment/jobs/{jobId}",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleEnrichmentProgress)))
	s.router.Handle("POST /api/v1/matters/{matterId}/enrichment/sweep",
		authMiddleware.Authenticate(
			authMiddleware.RequireAdmin(http.HandlerFunc(s.handleEnrichmentSweep))))
}

// Start starts the HTTP server and blocks until a termination signal
// arrives, then shuts down gracefully.
func (s *Server) Start() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("starting server on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-stop
	log.Println("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Println("server stopped")
	return nil
}

// Stop shuts the server down, honoring ctx's deadline.
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

package rest

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"property-marketplace-service/internal/adapters/metrics"
	"property-marketplace-service/internal/config"
	"property-marketplace-service/internal/ports/inbound"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type Server struct {
	router     *gin.Engine
	httpServer *http.Server
	config     *config.Config
	logger     zerolog.Logger
}

type ServerParams struct {
	Config           *config.Config
	PropertyService  inbound.PropertyService
	BidService       inbound.BidService
	PurchaseService  inbound.PurchaseService
	ShortlistService inbound.ShortlistService
	ProfileService   inbound.ProfileService
	Logger           zerolog.Logger
}

func NewServer(params ServerParams) *Server {
	logger := params.Logger.With().Str("component", "http_server").Logger()

	handler := NewHandler(HandlerParams{
		PropertyService:  params.PropertyService,
		BidService:       params.BidService,
		PurchaseService:  params.PurchaseService,
		ShortlistService: params.ShortlistService,
		ProfileService:   params.ProfileService,
		Logger:           params.Logger,
	})

	router := gin.New()
	router.Use(gin.Recovery(), RequestID(), RequestLogger(logger))
	router.GET("/health", handleHealth)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))
	handler.RegisterRoutes(router, params.Config.Server.JWTSecret)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", params.Config.Server.Host, params.Config.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		router:     router,
		httpServer: httpServer,
		config:     params.Config,
		logger:     logger,
	}
}

// Router exposes the engine for in-process requests
func (s *Server) Router() http.Handler {
	return s.router
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.httpServer.Addr).Msg("Starting HTTP server")

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	return nil
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info().Msg("Stopping HTTP server...")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}

	s.logger.Info().Msg("HTTP server stopped")
	return nil
}

func handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "property-marketplace"})
}

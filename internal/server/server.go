// internal/server/server.go

package server

import (
	"context"
	"fmt"
	"net/http"

	"WellnessMonitorAPI/internal/config"
	"WellnessMonitorAPI/internal/handler"
	"WellnessMonitorAPI/internal/logger"
	"WellnessMonitorAPI/internal/middleware"

	"github.com/gorilla/mux"
)

type Server struct {
	httpServer *http.Server
	router     *mux.Router
	cfg        *config.Config
	log        *logger.Logger
}

func New(cfg *config.Config, log *logger.Logger) *Server {
	router := mux.NewRouter()

	return &Server{
		router: router,
		cfg:    cfg,
		log:    log,
		httpServer: &http.Server{
			Addr:           fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
			Handler:        router,
			ReadTimeout:    cfg.Server.ReadTimeout,
			WriteTimeout:   cfg.Server.WriteTimeout,
			MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
		},
	}
}

func (s *Server) RegisterHandlers(
	profileHandler *handler.ProfileHandler,
	ruleHandler *handler.RuleHandler,
	alertHandler *handler.AlertHandler,
	evaluationHandler *handler.EvaluationHandler,
	wsHandler *handler.WSHandler,
	healthHandler *handler.HealthHandler,
) {
	api := s.router.PathPrefix("/api/v1").Subrouter()

	api.Use(middleware.RequestLogger(s.log))
	api.Use(middleware.CORS(s.cfg.Security.CORSAllowedOrigins, s.cfg.Security.CORSAllowedMethods))
	api.Use(middleware.Recovery(s.log))

	if s.cfg.Security.EnableRateLimit {
		api.Use(middleware.RateLimit(s.cfg.Security.RateLimitPerMinute))
	}

	profileHandler.RegisterRoutes(api)
	ruleHandler.RegisterRoutes(api)
	alertHandler.RegisterRoutes(api)
	evaluationHandler.RegisterRoutes(api)
	wsHandler.RegisterRoutes(api)
	healthHandler.RegisterRoutes(s.router)

	s.log.Info("All handlers registered")
}

func (s *Server) Start() error {
	s.log.Info("Starting HTTP server on %s", s.httpServer.Addr)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed to start: %w", err)
	}

	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("Shutting down HTTP server...")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.log.Info("HTTP server stopped")
	return nil
}

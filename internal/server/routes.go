package server

import (
	"github.com/nfrund/together/internal/domain"
	appmiddleware "github.com/nfrund/together/internal/middleware"
	"github.com/nfrund/together/internal/view"
)

// RegisterRoutes sets up all the application routes.
func (s *Server) RegisterRoutes() {
	requireAuth := appmiddleware.Auth(s.tokens)
	rateLimiter := appmiddleware.RateLimiter(s.cfg.RateLimit)

	s.E.GET("/health", s.health)
	s.E.POST("/auth/session", s.createSession, rateLimiter)
	s.E.DELETE("/auth/session", s.deleteSession)

	s.E.GET("/ws/together", s.endpoint.Handler())

	api := s.E.Group("/api/together", requireAuth)
	api.GET("/:id/participants", s.participants)
	api.DELETE("/:id/participants/:member", s.kick, appmiddleware.RequireRole(domain.RoleAdmin))

	s.E.GET("/status", s.statusPage)
	s.E.GET(view.TopicsPath, s.statusTopics)
}

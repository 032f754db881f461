package server

import (
	"errors"
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/nfrund/together/internal/auth"
	"github.com/nfrund/together/internal/config"
	appmiddleware "github.com/nfrund/together/internal/middleware"
	"github.com/nfrund/together/internal/rendering"
	"github.com/nfrund/together/internal/together"
	"github.com/nfrund/together/internal/topicmgr"
	"github.com/nfrund/together/internal/websocket"
)

// Dependencies are the services the HTTP server is built from.
type Dependencies struct {
	Config   *config.Config
	Hub      *together.Hub
	Tokens   *auth.Tokens
	Endpoint *websocket.Endpoint
	Topics   *topicmgr.Manager
	// Echo is optional; a new instance is created when nil.
	Echo *echo.Echo
}

// Server holds the HTTP surface of the service.
type Server struct {
	E        *echo.Echo
	cfg      *config.Config
	hub      *together.Hub
	tokens   *auth.Tokens
	endpoint *websocket.Endpoint
	topics   *topicmgr.Manager
	renderer *rendering.NodeRenderer
}

// New creates a Server with its middleware installed. Call RegisterRoutes
// before serving.
func New(deps Dependencies) (*Server, error) {
	if deps.Config == nil || deps.Hub == nil || deps.Tokens == nil || deps.Endpoint == nil || deps.Topics == nil {
		return nil, errors.New("server: missing dependency")
	}

	e := deps.Echo
	if e == nil {
		e = echo.New()
	}
	e.HideBanner = true
	e.HidePort = true

	renderer := rendering.New()
	e.Renderer = renderer

	e.Use(middleware.RequestID())
	e.Use(appmiddleware.Logger)
	e.Use(middleware.Recover())

	store := sessions.NewCookieStore([]byte(deps.Config.SessionSecret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(deps.Config.TokenTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	e.Use(session.Middleware(store))

	setupErrorHandling(e)

	return &Server{
		E:        e,
		cfg:      deps.Config,
		hub:      deps.Hub,
		tokens:   deps.Tokens,
		endpoint: deps.Endpoint,
		topics:   deps.Topics,
		renderer: renderer,
	}, nil
}

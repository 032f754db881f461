package server

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"

	"github.com/nfrund/together/internal/domain"
	appmiddleware "github.com/nfrund/together/internal/middleware"
	"github.com/nfrund/together/internal/together"
	"github.com/nfrund/together/internal/view"
)

var validate = validator.New()

type healthResponse struct {
	Status      string `json:"status"`
	Topics      int    `json:"topics"`
	Memberships int    `json:"memberships"`
}

func (s *Server) health(c echo.Context) error {
	stats := s.hub.Registry().Stats()
	return c.JSON(http.StatusOK, healthResponse{
		Status:      "ok",
		Topics:      stats.Topics,
		Memberships: stats.Memberships,
	})
}

type sessionRequest struct {
	Token string `json:"token" form:"token" validate:"required"`
}

// createSession stores a verified token in the cookie session so browsers
// can open the websocket without an Authorization header.
func (s *Server) createSession(c echo.Context) error {
	var req sessionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request").SetInternal(err)
	}
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "token is required").SetInternal(err)
	}

	claims, err := s.tokens.Parse(req.Token)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid access token").SetInternal(err)
	}

	sess, err := session.Get(appmiddleware.SessionName, c)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	sess.Values[appmiddleware.SessionTokenKey] = req.Token
	if err := sess.Save(c.Request(), c.Response()); err != nil {
		return fmt.Errorf("save session: %w", err)
	}

	appmiddleware.FromContext(c.Request().Context()).Info("session created", "member_id", claims.Idx)
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) deleteSession(c echo.Context) error {
	sess, err := session.Get(appmiddleware.SessionName, c)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	delete(sess.Values, appmiddleware.SessionTokenKey)
	sess.Options.MaxAge = -1
	if err := sess.Save(c.Request(), c.Response()); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return c.NoContent(http.StatusNoContent)
}

type participantsResponse struct {
	Topic        together.Topic         `json:"topic"`
	Count        int                    `json:"count"`
	Participants []together.Participant `json:"participants"`
}

func (s *Server) participants(c echo.Context) error {
	topic, err := chatTopicParam(c)
	if err != nil {
		return err
	}
	list := s.hub.Participants(c.Request().Context(), topic)
	return c.JSON(http.StatusOK, participantsResponse{
		Topic:        topic,
		Count:        len(list),
		Participants: list,
	})
}

func (s *Server) kick(c echo.Context) error {
	topic, err := chatTopicParam(c)
	if err != nil {
		return err
	}
	member, err := domain.ParseMemberID(c.Param("member"))
	if err != nil || member <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid member id")
	}
	if err := s.hub.Kick(c.Request().Context(), topic, member); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func chatTopicParam(c echo.Context) (together.Topic, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return "", echo.NewHTTPError(http.StatusBadRequest, "invalid session id")
	}
	return together.ChatTopic(id), nil
}

func (s *Server) statusPage(c echo.Context) error {
	return s.renderer.RenderPage(c, http.StatusOK, view.StatusPage(s.hub.Registry().Stats(), s.now()))
}

func (s *Server) statusTopics(c echo.Context) error {
	return c.Render(http.StatusOK, "", view.TopicsTable(s.hub.Registry().Stats(), s.now()))
}

func (s *Server) now() time.Time {
	loc, err := s.cfg.Location()
	if err != nil {
		return time.Now()
	}
	return time.Now().In(loc)
}

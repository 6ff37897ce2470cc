package transport

import (
	"context"
	"io"
	"net/http"
	"net/url"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Rogue-Bear-Innovations/bookmarking-back/internal/config"
	"github.com/Rogue-Bear-Innovations/bookmarking-back/internal/service"
)

var Module = fx.Provide(
	NewHTTPServer,
)

type HTTPServer struct {
	echo   *echo.Echo
	svc    *service.Service
	logger *zap.SugaredLogger
}

func NewHTTPServer(lc fx.Lifecycle, cfg *config.Config, svc *service.Service, logger *zap.SugaredLogger) *HTTPServer {
	e := echo.New()

	instance := HTTPServer{
		echo:   e,
		svc:    svc,
		logger: logger,
	}

	g := e.Group("/bookmarking")
	g.GET("/users", instance.UserIndex)
	g.POST("", instance.UserCreate)
	g.DELETE("/:user_id", instance.UserDelete)
	g.GET("/bookmarks", instance.BookmarkIndex)
	g.GET("/bookmarks/:user_id", instance.BookmarkIndexUser)
	g.GET("/bookmarks/:user_id/*", instance.BookmarkShow)
	g.POST("/:user_id/bookmarks", instance.BookmarkCreate)
	g.PUT("/:user_id/bookmarks/*", instance.BookmarkUpdate)
	g.DELETE("/:user_id/bookmarks/*", instance.BookmarkDelete)

	e.GET("/ping", func(c echo.Context) error { return c.String(http.StatusOK, "pong") })

	e.Use(middleware.CORS())
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	e.Use(instance.RequestIDMiddleware)

	echo.NotFoundHandler = func(c echo.Context) error {
		return c.NoContent(http.StatusNotFound)
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				listen := cfg.Host + ":" + cfg.Port
				if err := e.Start(listen); err != nil && err != http.ErrServerClosed {
					e.Logger.Fatal("shutting down the server")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("Stopping HTTP server.")
			return e.Shutdown(ctx)
		},
	})

	return &instance
}

func (s *HTTPServer) UserIndex(c echo.Context) error {
	list, err := s.svc.ListUsers()
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(http.StatusOK, list)
}

func (s *HTTPServer) UserCreate(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return s.respondError(c, errors.Wrap(err, "read body"))
	}
	result, err := s.svc.CreateUsers(body)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(http.StatusCreated, result)
}

func (s *HTTPServer) UserDelete(c echo.Context) error {
	if err := s.svc.DeleteUser(c.Param("user_id")); err != nil {
		return s.respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *HTTPServer) BookmarkIndex(c echo.Context) error {
	list, err := s.svc.ListBookmarks(c.QueryParams())
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(http.StatusOK, list)
}

func (s *HTTPServer) BookmarkIndexUser(c echo.Context) error {
	list, err := s.svc.ListUserBookmarks(c.Param("user_id"), c.QueryParams())
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(http.StatusOK, list)
}

func (s *HTTPServer) BookmarkShow(c echo.Context) error {
	list, err := s.svc.GetBookmark(c.Param("user_id"), wildcardParam(c))
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(http.StatusOK, list)
}

func (s *HTTPServer) BookmarkCreate(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return s.respondError(c, errors.Wrap(err, "read body"))
	}
	result, err := s.svc.CreateBookmarks(c.Param("user_id"), body)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(http.StatusCreated, result)
}

func (s *HTTPServer) BookmarkUpdate(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return s.respondError(c, errors.Wrap(err, "read body"))
	}
	result, err := s.svc.UpdateBookmarks(c.Param("user_id"), wildcardParam(c), body)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(http.StatusCreated, result)
}

func (s *HTTPServer) BookmarkDelete(c echo.Context) error {
	if err := s.svc.DeleteBookmark(c.Param("user_id"), wildcardParam(c), c.QueryParams()); err != nil {
		return s.respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *HTTPServer) RequestIDMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := uuid.New().String()
		c.Response().Header().Set(echo.HeaderXRequestID, id)
		s.logger.Infow("request",
			"id", id,
			"method", c.Request().Method,
			"path", c.Request().URL.Path)
		return next(c)
	}
}

////////

func (s *HTTPServer) respondError(c echo.Context, err error) error {
	var svcErr *service.Error
	if errors.As(err, &svcErr) {
		return c.JSON(statusFor(svcErr.Kind), service.ReasonList{Reasons: svcErr.Reasons})
	}
	s.logger.Errorw("request failed", "error", err)
	return c.JSON(http.StatusInternalServerError, service.ReasonList{
		Reasons: []service.Reason{{Message: "Internal server error"}},
	})
}

func statusFor(kind service.Kind) int {
	switch kind {
	case service.KindMalformed, service.KindConflict:
		return http.StatusBadRequest
	case service.KindNotFound:
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// wildcardParam returns the trailing path segment, which is a bookmark
// URL and may itself contain slashes.
func wildcardParam(c echo.Context) string {
	raw := c.Param("*")
	if unescaped, err := url.PathUnescape(raw); err == nil {
		return unescaped
	}
	return raw
}

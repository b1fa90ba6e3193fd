package router

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	sentryecho "github.com/getsentry/sentry-go/echo"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"

	"namo/internal/config"
	apperrors "namo/internal/errors"
	"namo/internal/handler"
	"namo/internal/service"
)

// Handlers groups the HTTP handlers mounted by Register.
type Handlers struct {
	Auth    *handler.AuthHandler
	Names   *handler.NameHandler
	Votes   *handler.VoteHandler
	GraphQL echo.HandlerFunc
}

// Register wires routes and middleware.
func Register(
	e *echo.Echo,
	cfg *config.Config,
	logger *slog.Logger,
	authService service.AuthService,
	h Handlers,
) {
	e.HideBanner = true
	e.Validator = &CustomValidator{validator: validator.New()}
	e.HTTPErrorHandler = NewErrorHandler(logger)

	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logger.LogAttrs(c.Request().Context(), slog.LevelInfo, "request",
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
				slog.String("request_id", v.RequestID),
				slog.String("remote_ip", v.RemoteIP),
			)
			return nil
		},
	}))
	e.Use(middleware.Recover())
	e.Use(sentryecho.New(sentryecho.Options{Repanic: true}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"message": "Welcome to Namo API"})
	})
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "healthy"})
	})
	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// Public routes
	e.POST("/auth/register", h.Auth.Register)
	e.POST("/auth/login", h.Auth.Login)

	// Secured routes (require JWT authentication)
	requireUser := echojwt.WithConfig(echojwt.Config{
		ContextKey: handler.UserContextKey,
		ParseTokenFunc: func(c echo.Context, auth string) (interface{}, error) {
			user, err := authService.Authenticate(c.Request().Context(), auth)
			if err != nil && !errors.Is(err, apperrors.ErrAuthentication) {
				return nil, &lookupError{err: err}
			}
			return user, err
		},
		ErrorHandler: func(c echo.Context, err error) error {
			var le *lookupError
			if errors.As(err, &le) {
				return le.err
			}
			if errors.Is(err, apperrors.ErrAuthentication) {
				return err
			}
			// missing or malformed Authorization header
			return fmt.Errorf("%w: %v", apperrors.ErrAuthentication, err)
		},
	})

	e.GET("/auth/me", h.Auth.Me, requireUser)

	names := e.Group("/names", requireUser)
	names.GET("", h.Names.List)
	names.POST("", h.Names.Create)
	names.GET("/random", h.Names.Random)
	names.GET("/ordered", h.Names.Ordered)
	names.GET("/info/:name", h.Names.Info)
	names.GET("/:id", h.Names.Get)

	votes := e.Group("/votes", requireUser)
	votes.POST("", h.Votes.Cast)
	votes.GET("", h.Votes.List)
	votes.GET("/compare", h.Votes.Compare)
	votes.DELETE("/by-name/:nameId", h.Votes.Remove)
	votes.GET("/:nameId/stats", h.Votes.Stats)

	if h.GraphQL != nil {
		e.Any("/api/graphql", h.GraphQL, requireUser)
	}
}

// lookupError marks a failure to load the token's user, as opposed to a
// rejected token.
type lookupError struct {
	err error
}

func (e *lookupError) Error() string { return e.err.Error() }

func (e *lookupError) Unwrap() error { return e.err }

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

package router

import (
	"errors"
	"log/slog"
	"net/http"

	sentryecho "github.com/getsentry/sentry-go/echo"
	"github.com/labstack/echo/v4"

	apperrors "namo/internal/errors"
)

// NewErrorHandler converts every error leaving a handler into the JSON error
// body. Internal errors are logged and reported with full detail while the
// client only sees a generic message.
func NewErrorHandler(logger *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, body, cause := resolve(err)

		switch {
		case status == http.StatusInternalServerError:
			logger.ErrorContext(c.Request().Context(), "request failed", requestAttrs(c, cause)...)
			if hub := sentryecho.GetHubFromContext(c); hub != nil {
				hub.CaptureException(cause)
			}
			body = apperrors.ErrorResponse{Error: "internal server error", Code: "INTERNAL_ERROR"}
		case status > http.StatusInternalServerError:
			// deliberate upstream failures keep their body
			logger.WarnContext(c.Request().Context(), "request failed", requestAttrs(c, cause)...)
		}

		if status == http.StatusUnauthorized {
			c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
		}

		var writeErr error
		switch {
		case status == http.StatusNoContent:
			writeErr = c.NoContent(status)
		case c.Request().Method == http.MethodHead:
			writeErr = c.NoContent(status)
		default:
			writeErr = c.JSON(status, body)
		}
		if writeErr != nil {
			logger.Error("write error response", slog.Any("error", writeErr))
		}
	}
}

func requestAttrs(c echo.Context, cause error) []any {
	return []any{
		slog.String("method", c.Request().Method),
		slog.String("path", c.Path()),
		slog.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
		slog.Any("error", cause),
	}
}

// resolve picks the status and body for err, and the error worth logging.
func resolve(err error) (int, apperrors.ErrorResponse, error) {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		cause := err
		if he.Internal != nil {
			cause = he.Internal
		}
		switch msg := he.Message.(type) {
		case apperrors.ErrorResponse:
			return he.Code, msg, cause
		case string:
			return he.Code, apperrors.ErrorResponse{Error: msg, Code: codeFor(he.Code)}, cause
		default:
			return he.Code, apperrors.ErrorResponse{Error: http.StatusText(he.Code), Code: codeFor(he.Code)}, cause
		}
	}

	mapped := apperrors.MapErrorToHTTP(err)
	return mapped.StatusCode, mapped.ToErrorResponse(), err
}

func codeFor(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "INVALID_INPUT"
	case http.StatusUnauthorized:
		return "UNAUTHORIZED"
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	case http.StatusRequestEntityTooLarge:
		return "PAYLOAD_TOO_LARGE"
	default:
		if status >= http.StatusInternalServerError {
			return "INTERNAL_ERROR"
		}
		return "ERROR"
	}
}

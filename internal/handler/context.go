package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	apperrors "namo/internal/errors"
	"namo/internal/model"
)

// UserContextKey is where the JWT middleware stores the authenticated user.
const UserContextKey = "user"

const maxPageSize = 100

// currentUser returns the user loaded by the JWT middleware.
func currentUser(c echo.Context) (*model.User, error) {
	user, ok := c.Get(UserContextKey).(*model.User)
	if !ok || user == nil {
		return nil, fail(apperrors.ErrAuthentication)
	}
	return user, nil
}

// fail converts a domain error into an echo HTTP error, keeping the cause
// for server-side logging.
func fail(err error) *echo.HTTPError {
	httpErr := apperrors.MapErrorToHTTP(err)
	return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse()).SetInternal(err)
}

func badRequest(message string) *echo.HTTPError {
	return echo.NewHTTPError(http.StatusBadRequest, apperrors.ErrorResponse{
		Error: message,
		Code:  "INVALID_INPUT",
	})
}

// clampLimit keeps page sizes within [1, maxPageSize].
func clampLimit(limit int) int {
	if limit < 1 {
		return 1
	}
	if limit > maxPageSize {
		return maxPageSize
	}
	return limit
}

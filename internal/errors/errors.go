package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrAuthentication is returned for bad, missing, expired or malformed
	// tokens and for rejected credentials.
	ErrAuthentication = errors.New("could not validate credentials")
	// ErrInvalidCredentials is returned when login fails.
	ErrInvalidCredentials = fmt.Errorf("%w: incorrect username or password", ErrAuthentication)
	// ErrNotFound is returned when a referenced entity is absent.
	ErrNotFound = errors.New("not found")
	// ErrNameNotFound is returned when a name id does not resolve.
	ErrNameNotFound = fmt.Errorf("name %w", ErrNotFound)
	// ErrUserNotFound is returned when a user does not resolve.
	ErrUserNotFound = fmt.Errorf("user %w", ErrNotFound)
	// ErrVoteNotFound is returned when the user has no vote on a name.
	ErrVoteNotFound = fmt.Errorf("vote %w", ErrNotFound)
	// ErrInfoNotFound is returned when no enrichment data exists for a name.
	ErrInfoNotFound = fmt.Errorf("name info %w", ErrNotFound)
	// ErrInvalidCursor is returned when a pagination anchor cannot be resolved.
	ErrInvalidCursor = errors.New("invalid cursor: anchor name does not exist")
	// ErrNoContent signals a legitimately empty result set.
	ErrNoContent = errors.New("no content available")
	// ErrConfiguration is returned when required configuration or secrets are missing.
	ErrConfiguration = errors.New("configuration error")
	// ErrInvalidInput is returned when a request fails validation.
	ErrInvalidInput = errors.New("invalid input")
	// ErrConflict is returned when a unique resource already exists.
	ErrConflict = errors.New("conflict")
	// ErrUsernameTaken is returned when registering an existing username.
	ErrUsernameTaken = fmt.Errorf("%w: username already registered", ErrConflict)
	// ErrEnrichmentUnavailable is returned when the name info source cannot be reached.
	ErrEnrichmentUnavailable = errors.New("name info source unavailable")
)

// InputError carries a client-facing validation message.
type InputError struct {
	Detail string
}

func (e *InputError) Error() string {
	return ErrInvalidInput.Error() + ": " + e.Detail
}

func (e *InputError) Unwrap() error {
	return ErrInvalidInput
}

// Invalid builds an InputError.
func Invalid(format string, args ...interface{}) error {
	return &InputError{Detail: fmt.Sprintf(format, args...)}
}

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Error: e.Message,
		Code:  e.Code,
	}
}

// MapErrorToHTTP maps domain errors to HTTP errors. Messages are fixed per
// kind so wrapped detail stays in the server logs.
func MapErrorToHTTP(err error) *HTTPError {
	var inputErr *InputError
	switch {
	case errors.Is(err, ErrNoContent):
		return NewHTTPError(http.StatusNoContent, ErrNoContent.Error(), "NO_CONTENT")
	case errors.Is(err, ErrInvalidCredentials):
		return NewHTTPError(http.StatusUnauthorized, "incorrect username or password", "INVALID_CREDENTIALS")
	case errors.Is(err, ErrAuthentication):
		return NewHTTPError(http.StatusUnauthorized, ErrAuthentication.Error(), "UNAUTHORIZED")
	case errors.Is(err, ErrNameNotFound):
		return NewHTTPError(http.StatusNotFound, ErrNameNotFound.Error(), "NAME_NOT_FOUND")
	case errors.Is(err, ErrUserNotFound):
		return NewHTTPError(http.StatusNotFound, ErrUserNotFound.Error(), "USER_NOT_FOUND")
	case errors.Is(err, ErrVoteNotFound):
		return NewHTTPError(http.StatusNotFound, ErrVoteNotFound.Error(), "VOTE_NOT_FOUND")
	case errors.Is(err, ErrInfoNotFound):
		return NewHTTPError(http.StatusNotFound, ErrInfoNotFound.Error(), "INFO_NOT_FOUND")
	case errors.Is(err, ErrNotFound):
		return NewHTTPError(http.StatusNotFound, ErrNotFound.Error(), "NOT_FOUND")
	case errors.Is(err, ErrInvalidCursor):
		return NewHTTPError(http.StatusBadRequest, ErrInvalidCursor.Error(), "INVALID_CURSOR")
	case errors.As(err, &inputErr):
		return NewHTTPError(http.StatusBadRequest, inputErr.Detail, "INVALID_INPUT")
	case errors.Is(err, ErrInvalidInput):
		return NewHTTPError(http.StatusBadRequest, ErrInvalidInput.Error(), "INVALID_INPUT")
	case errors.Is(err, ErrUsernameTaken):
		return NewHTTPError(http.StatusConflict, "username already registered", "USERNAME_TAKEN")
	case errors.Is(err, ErrConflict):
		return NewHTTPError(http.StatusConflict, ErrConflict.Error(), "CONFLICT")
	case errors.Is(err, ErrEnrichmentUnavailable):
		return NewHTTPError(http.StatusServiceUnavailable, ErrEnrichmentUnavailable.Error(), "INFO_UNAVAILABLE")
	default:
		return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
	}
}

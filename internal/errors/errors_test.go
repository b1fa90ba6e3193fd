package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapErrorToHTTP(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"no content", ErrNoContent, http.StatusNoContent, "NO_CONTENT"},
		{"wrapped auth", fmt.Errorf("%w: token is expired", ErrAuthentication), http.StatusUnauthorized, "UNAUTHORIZED"},
		{"bad login", ErrInvalidCredentials, http.StatusUnauthorized, "INVALID_CREDENTIALS"},
		{"name", fmt.Errorf("upsert vote: %w", ErrNameNotFound), http.StatusNotFound, "NAME_NOT_FOUND"},
		{"user", ErrUserNotFound, http.StatusNotFound, "USER_NOT_FOUND"},
		{"vote", ErrVoteNotFound, http.StatusNotFound, "VOTE_NOT_FOUND"},
		{"cursor", ErrInvalidCursor, http.StatusBadRequest, "INVALID_CURSOR"},
		{"input", Invalid("limit must be positive"), http.StatusBadRequest, "INVALID_INPUT"},
		{"taken", ErrUsernameTaken, http.StatusConflict, "USERNAME_TAKEN"},
		{"enrichment", fmt.Errorf("%w: timeout", ErrEnrichmentUnavailable), http.StatusServiceUnavailable, "INFO_UNAVAILABLE"},
		{"unknown", errors.New("pq: relation \"names\" does not exist"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapErrorToHTTP(tt.err)
			assert.Equal(t, tt.wantStatus, got.StatusCode)
			assert.Equal(t, tt.wantCode, got.Code)
		})
	}
}

func TestMapErrorToHTTP_HidesDetail(t *testing.T) {
	got := MapErrorToHTTP(fmt.Errorf("%w: signature is invalid", ErrAuthentication))
	assert.Equal(t, "could not validate credentials", got.Message)

	got = MapErrorToHTTP(errors.New("dial tcp 10.0.0.1:5432: connection refused"))
	assert.Equal(t, "internal server error", got.Message)
	assert.Equal(t, ErrorResponse{Error: "internal server error", Code: "INTERNAL_ERROR"}, got.ToErrorResponse())
}

func TestInputError(t *testing.T) {
	err := Invalid("gender must be one of m, f")
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, "gender must be one of m, f", MapErrorToHTTP(err).Message)
}

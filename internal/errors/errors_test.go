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
		{"validation", Validation("price must be positive"), http.StatusBadRequest, "VALIDATION_ERROR"},
		{"wrapped validation", fmt.Errorf("approve: %w", Validation("no market")), http.StatusBadRequest, "VALIDATION_ERROR"},
		{"not found", NotFound("report"), http.StatusNotFound, "NOT_FOUND"},
		{"already resolved", AlreadyResolved("report"), http.StatusNotFound, "NOT_FOUND"},
		{"conflict", Conflict("report is no longer pending"), http.StatusConflict, "CONFLICT"},
		{"credentials", ErrInvalidCredentials, http.StatusUnauthorized, "INVALID_CREDENTIALS"},
		{"duplicate user", ErrUserAlreadyExists, http.StatusConflict, "USER_ALREADY_EXISTS"},
		{"forbidden", ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
		{"storage", errors.New("connection reset"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			httpErr := MapErrorToHTTP(tt.err)
			assert.Equal(t, tt.wantStatus, httpErr.StatusCode)
			assert.Equal(t, tt.wantCode, httpErr.ToErrorResponse().Code)
		})
	}
}

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, "report not found", NotFound("report").Error())
	assert.Equal(t, "report already resolved", AlreadyResolved("report").Error())
	assert.Equal(t, "price must be positive", Validation("price must be %s", "positive").Error())
}

func TestPredicates(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", Conflict("raced"))
	assert.True(t, IsConflict(wrapped))
	assert.False(t, IsNotFound(wrapped))
	assert.True(t, IsNotFound(NotFound("product")))
	assert.True(t, IsValidation(Validation("x")))
}

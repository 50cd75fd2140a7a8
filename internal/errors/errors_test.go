package errors

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConstructorsMapToStatusCodes(t *testing.T) {
	tests := []struct {
		err      *APIError
		expected int
	}{
		{Unauthenticated("no"), http.StatusUnauthorized},
		{Forbidden("no"), http.StatusForbidden},
		{NotFound("gone"), http.StatusNotFound},
		{Conflict("taken"), http.StatusConflict},
		{Validation("bad"), http.StatusBadRequest},
		{Internal("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, tt.err.StatusCode, string(tt.err.Code))
	}
}

func TestMalformedIDIsNotFound(t *testing.T) {
	err := MalformedID("publicationId")
	assert.Equal(t, http.StatusNotFound, err.StatusCode)
	assert.Equal(t, "Resource not found. Invalid: publicationId", err.Message)
}

func TestDuplicateMessage(t *testing.T) {
	err := Duplicate("email")
	assert.Equal(t, http.StatusBadRequest, err.StatusCode)
	assert.Equal(t, "Duplicate field value entered: email. Please use another value.", err.Message)
}

func TestValidationCarriesFieldErrors(t *testing.T) {
	err := Validation("invalid input", "username is required", "email must be a valid email address")
	assert.Len(t, err.Errors, 2)
	assert.Equal(t, "VALIDATION_FAILED: invalid input", err.Error())
}

func TestUnknownCodeFallsBackTo500(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, ErrorCode("MYSTERY").StatusCode())
}

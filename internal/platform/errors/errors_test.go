package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name       string
		err        *Error
		wantType   ErrorType
		wantStatus int
	}{
		{"validation", ValidationError("name is required"), TypeValidation, http.StatusBadRequest},
		{"not found", NotFoundError("no such route"), TypeNotFound, http.StatusNotFound},
		{"conflict", ConflictError("phone already registered"), TypeConflict, http.StatusConflict},
		{"rate limited", RateLimitedError("slow down"), TypeRateLimited, http.StatusTooManyRequests},
		{"unavailable", UnavailableError("listener limit reached"), TypeUnavailable, http.StatusServiceUnavailable},
		{"internal", InternalError("boom", nil), TypeInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantType, tt.err.Type)
			assert.Equal(t, tt.wantStatus, tt.err.HTTPStatus())
			assert.NotNil(t, tt.err.Context)
			assert.Contains(t, tt.err.Error(), string(tt.wantType))
		})
	}
}

func TestHTTPStatus_Override(t *testing.T) {
	err := &Error{Type: TypeValidation, Message: "method not allowed", Status: http.StatusMethodNotAllowed}
	assert.Equal(t, http.StatusMethodNotAllowed, err.HTTPStatus())
	assert.Equal(t, http.StatusMethodNotAllowed, err.ToResponse().Code)
}

func TestHTTPStatus_UnknownType(t *testing.T) {
	err := &Error{Type: "mystery"}
	assert.Equal(t, http.StatusInternalServerError, err.HTTPStatus())
}

func TestWrapAndUnwrap(t *testing.T) {
	sentinel := errors.New("phone already registered")
	err := ConflictError("phone already registered").Wrap(sentinel)

	require.ErrorIs(t, err, sentinel)
	assert.Equal(t, "conflict: phone already registered: phone already registered", err.Error())
}

func TestWithField(t *testing.T) {
	err := (&Error{Type: TypeValidation}).WithField("phone", "123").WithField("phone", "456")
	assert.Equal(t, map[string]any{"phone": "456"}, err.Context)
}

func TestToResponse_Envelope(t *testing.T) {
	body, err := json.Marshal(ValidationError("name is required").WithField("secret", "x").ToResponse())
	require.NoError(t, err)

	assert.JSONEq(t, `{"code":400,"success":false,"msg":"name is required","data":null}`, string(body))
}

func TestOK_Envelope(t *testing.T) {
	body, err := json.Marshal(OK("sent", nil))
	require.NoError(t, err)
	assert.JSONEq(t, `{"code":200,"success":true,"msg":"sent","data":null}`, string(body))

	body, err = json.Marshal(OK("ok", map[string]int{"registered": 2}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"code":200,"success":true,"msg":"ok","data":{"registered":2}}`, string(body))
}

func TestAsStructuredError(t *testing.T) {
	assert.Nil(t, AsStructuredError(nil))

	original := ConflictError("dup")
	assert.Same(t, original, AsStructuredError(fmt.Errorf("submit: %w", original)))

	plain := errors.New("disk on fire")
	converted := AsStructuredError(plain)
	assert.Equal(t, TypeInternal, converted.Type)
	assert.Equal(t, "internal server error", converted.Message)
	assert.ErrorIs(t, converted, plain)
}

func TestTypeForStatus(t *testing.T) {
	assert.Equal(t, TypeValidation, TypeForStatus(http.StatusBadRequest))
	assert.Equal(t, TypeValidation, TypeForStatus(http.StatusMethodNotAllowed))
	assert.Equal(t, TypeValidation, TypeForStatus(http.StatusRequestEntityTooLarge))
	assert.Equal(t, TypeNotFound, TypeForStatus(http.StatusNotFound))
	assert.Equal(t, TypeConflict, TypeForStatus(http.StatusConflict))
	assert.Equal(t, TypeRateLimited, TypeForStatus(http.StatusTooManyRequests))
	assert.Equal(t, TypeUnavailable, TypeForStatus(http.StatusServiceUnavailable))
	assert.Equal(t, TypeInternal, TypeForStatus(http.StatusInternalServerError))
}

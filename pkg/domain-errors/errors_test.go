package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasCode(t *testing.T) {
	t.Run("direct code", func(t *testing.T) {
		err := New(CodeIntegrity, "hash mismatch")
		assert.True(t, HasCode(err, CodeIntegrity))
		assert.False(t, HasCode(err, CodeValidation))
	})

	t.Run("nested codes are all visible", func(t *testing.T) {
		inner := New(CodeNotFound, "agent not found")
		err := Wrap(inner, CodeForbidden, "caller is not an agent")
		assert.True(t, HasCode(err, CodeForbidden))
		assert.True(t, HasCode(err, CodeNotFound))
		assert.Equal(t, CodeForbidden, CodeOf(err))
	})

	t.Run("code survives fmt wrapping", func(t *testing.T) {
		err := fmt.Errorf("dispatch: %w", New(CodeUnavailable, "signer unavailable"))
		assert.True(t, Is(err, CodeUnavailable))
	})

	t.Run("plain errors have no code", func(t *testing.T) {
		err := errors.New("boom")
		assert.False(t, HasCode(err, CodeInternal))
		assert.Equal(t, CodeInternal, CodeOf(err))
		assert.Equal(t, "boom", MessageOf(err))
	})
}

func TestWrapNil(t *testing.T) {
	assert.NoError(t, Wrap(nil, CodeInternal, "unused"))
}

func TestErrorMessage(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(cause, CodeUnavailable, "signer call failed")
	assert.Equal(t, "signer call failed: connection refused", err.Error())
	assert.Equal(t, "signer call failed", MessageOf(err))
	assert.ErrorIs(t, err, cause)
}

func TestToHTTPStatus(t *testing.T) {
	cases := map[Code]int{
		CodeValidation:    http.StatusBadRequest,
		CodeSerialization: http.StatusBadRequest,
		CodeIntegrity:     http.StatusUnprocessableEntity,
		CodeUnauthorized:  http.StatusUnauthorized,
		CodeForbidden:     http.StatusForbidden,
		CodeNotFound:      http.StatusNotFound,
		CodeConflict:      http.StatusConflict,
		CodeUnavailable:   http.StatusServiceUnavailable,
		CodeInternal:      http.StatusInternalServerError,
	}
	for code, status := range cases {
		assert.Equal(t, status, ToHTTPStatus(code), string(code))
	}
}

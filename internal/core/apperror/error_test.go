package apperror_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tombstone/internal/core/apperror"
)

func TestErrorFormatting(t *testing.T) {
	err := apperror.NewValidation("code is required")
	assert.Equal(t, "VALIDATION_ERROR: code is required", err.Error())

	cause := errors.New("connection refused")
	err = apperror.NewDatabase(cause)
	assert.Contains(t, err.Error(), "DATABASE_ERROR")
	assert.Contains(t, err.Error(), "connection refused")
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := apperror.NewInternal(cause)

	assert.ErrorIs(t, err, cause)

	wrapped := fmt.Errorf("outer: %w", err)
	got, ok := apperror.AsAppError(wrapped)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInternal, got.Code)
}

func TestWithDetail(t *testing.T) {
	err := apperror.NewValidation("invalid email").
		WithDetail("field", "email").
		WithDetail("lineNo", 3)

	assert.Equal(t, "email", err.Details["field"])
	assert.Equal(t, 3, err.Details["lineNo"])
}

func TestCodePredicates(t *testing.T) {
	assert.True(t, apperror.IsNotFound(apperror.NewNotFound("order", "42")))
	assert.False(t, apperror.IsNotFound(apperror.NewValidation("nope")))
	assert.False(t, apperror.IsNotFound(errors.New("plain")))

	assert.True(t, apperror.IsRejected(apperror.NewRejected("guard denied")))
	assert.False(t, apperror.IsRejected(apperror.NewNotFound("order", "42")))

	assert.True(t, apperror.IsAppError(apperror.NewConflict("busy")))
	assert.False(t, apperror.IsAppError(errors.New("plain")))
}

func TestNotFoundCarriesIdentity(t *testing.T) {
	err := apperror.NewNotFound("order", "42")
	assert.Equal(t, "order", err.Details["entity"])
	assert.Equal(t, "42", err.Details["id"])
}

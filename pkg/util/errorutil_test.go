package util

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
)

func TestToDomainErrorPassthrough(t *testing.T) {
	original := NewConflict("ticket was modified concurrently", nil)
	got := ToDomainError(original)
	require.Equal(t, "CONFLICT", got.Code)
	require.Equal(t, http.StatusConflict, got.HTTPStatus)
}

func TestToDomainErrorWrapped(t *testing.T) {
	wrapped := fmt.Errorf("loading ticket: %w", NewExpired("refresh token expired or already used"))
	got := ToDomainError(wrapped)
	require.Equal(t, "EXPIRED", got.Code)
	require.Equal(t, http.StatusUnauthorized, got.HTTPStatus)
}

func TestToDomainErrorNoRows(t *testing.T) {
	got := ToDomainError(pgx.ErrNoRows)
	require.Equal(t, "NOT_FOUND", got.Code)
	require.Equal(t, http.StatusNotFound, got.HTTPStatus)
}

func TestToDomainErrorUnknown(t *testing.T) {
	got := ToDomainError(errors.New("boom"))
	require.Equal(t, "INTERNAL_ERROR", got.Code)
	require.Equal(t, http.StatusInternalServerError, got.HTTPStatus)
}

func TestIllegalTransitionDetails(t *testing.T) {
	err := NewIllegalTransition("NEW", "CLOSED")
	de := ToDomainError(err)
	require.Equal(t, "ILLEGAL_TRANSITION", de.Code)
	require.Equal(t, http.StatusBadRequest, de.HTTPStatus)
	require.Equal(t, "NEW", de.Details["current_status"])
	require.Equal(t, "CLOSED", de.Details["requested_status"])
}

func TestIsCode(t *testing.T) {
	err := NewValidationError("title is required", nil)
	require.True(t, IsCode(err, "VALIDATION_ERROR"))
	require.False(t, IsCode(err, "CONFLICT"))
	require.False(t, IsCode(nil, "VALIDATION_ERROR"))
}

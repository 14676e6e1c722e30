package errors

import (
	stderrors "errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRetryable(t *testing.T) {
	tests := []struct {
		name      string
		err       *AppError
		retryable bool
	}{
		{name: "concurrency conflict", err: NewConcurrencyError("commit conflict", nil), retryable: true},
		{name: "schedule rejection", err: NewScheduleError("freeze after draw"), retryable: false},
		{name: "state guard", err: NewStateGuardError("draw not frozen", nil), retryable: false},
		{name: "validation", err: NewValidationError("bad count", nil), retryable: false},
		{name: "invariant", err: NewInvariantError("ledger diverged", nil), retryable: false},
		{name: "internal", err: NewInternalError("boom", nil), retryable: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.retryable, tt.err.Retryable())
		})
	}
}

func TestStatusCodes(t *testing.T) {
	assert.Equal(t, http.StatusUnprocessableEntity, NewScheduleError("x").StatusCode)
	assert.Equal(t, http.StatusConflict, NewConflictError("x", nil).StatusCode)
	assert.Equal(t, http.StatusConflict, NewStateGuardError("x", nil).StatusCode)
	assert.Equal(t, http.StatusNotFound, NewNotFoundError("x").StatusCode)
	assert.Equal(t, http.StatusUnprocessableEntity, NewValidationError("x", nil).StatusCode)
	assert.Equal(t, http.StatusUnauthorized, NewAuthenticationError("x").StatusCode)
	assert.Equal(t, http.StatusConflict, NewConcurrencyError("x", nil).StatusCode)
	assert.Equal(t, http.StatusInternalServerError, NewInvariantError("x", nil).StatusCode)
}

func TestUnwrap(t *testing.T) {
	inner := stderrors.New("pg deadlock")
	err := NewConcurrencyError("commit conflict", inner)

	assert.True(t, stderrors.Is(err, inner))
	assert.Contains(t, err.Error(), "pg deadlock")
}

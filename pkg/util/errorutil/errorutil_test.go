package errorutil

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
)

func TestToDomainErrorMapsNoRows(t *testing.T) {
	de := ToDomainError(fmt.Errorf("get appointment: %w", pgx.ErrNoRows))
	assert.Equal(t, CodeNotFound, de.Code)
	assert.Equal(t, http.StatusNotFound, de.HTTPStatus)
}

func TestToDomainErrorKeepsDomainErrors(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", NewConflict("email already registered", nil))
	de := ToDomainError(err)
	assert.Equal(t, CodeConflict, de.Code)
	assert.Equal(t, http.StatusConflict, de.HTTPStatus)
}

func TestToDomainErrorHidesUnknownErrors(t *testing.T) {
	de := ToDomainError(errors.New("connection reset"))
	assert.Equal(t, CodeInternal, de.Code)
	assert.Equal(t, "internal server error", de.Message)
	assert.Nil(t, ToDomainError(nil))
}

func TestHasCode(t *testing.T) {
	assert.True(t, HasCode(NewForbidden("admin only"), CodeForbidden))
	assert.False(t, HasCode(NewForbidden("admin only"), CodeUnauthorized))
	assert.False(t, HasCode(errors.New("plain"), CodeForbidden))
}

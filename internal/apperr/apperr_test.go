package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestFromDB(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected Kind
	}{
		{name: "record not found", err: gorm.ErrRecordNotFound, expected: KindNotFound},
		{name: "wrapped not found", err: fmt.Errorf("load: %w", gorm.ErrRecordNotFound), expected: KindNotFound},
		{name: "duplicate key", err: gorm.ErrDuplicatedKey, expected: KindConflict},
		{name: "other", err: errors.New("connection reset"), expected: KindInternal},
		{name: "already classified", err: Validation("bad"), expected: KindValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, KindOf(FromDB(tt.err, "route")))
		})
	}
	assert.Nil(t, FromDB(nil, "route"))
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(KindValidation))
	assert.Equal(t, http.StatusNotFound, HTTPStatus(KindNotFound))
	assert.Equal(t, http.StatusConflict, HTTPStatus(KindConflict))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(KindInternal))
}

func TestPublicMessageHidesInternalCause(t *testing.T) {
	err := Internal(errors.New("pq: password authentication failed"), "load route")
	assert.Equal(t, "internal server error", PublicMessage(err))
	assert.Contains(t, err.Error(), "password authentication failed")

	assert.Equal(t, "route 4 not found", PublicMessage(NotFound("route %d not found", 4)))
	assert.True(t, Is(Conflict("dup"), KindConflict))
	assert.False(t, Is(nil, KindConflict))
}

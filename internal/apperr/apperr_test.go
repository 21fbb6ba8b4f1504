package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAs_FindsWrappedError(t *testing.T) {
	cause := errors.New("db timeout")
	err := fmt.Errorf("handler: %w", NotFound("Booking not found").Wrap(cause))

	ae, ok := As(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, ae.Status)
	assert.Equal(t, "Booking not found", ae.Message)
	assert.ErrorIs(t, err, cause)
}

func TestWrap_DoesNotMutateOriginal(t *testing.T) {
	base := Unauthorized("User not found")
	wrapped := base.Wrap(errors.New("cause"))

	assert.Nil(t, base.Err)
	assert.NotNil(t, wrapped.Err)
}

func TestValidationFields(t *testing.T) {
	f := ValidationFields{}
	f.Add("email", "is required")
	f.Add("email", "must be a valid email address")

	e := Validation(f)
	assert.Equal(t, http.StatusBadRequest, e.Status)
	assert.Equal(t, []string{"is required", "must be a valid email address"}, e.Details.(ValidationFields)["email"])
}

func TestAs_PlainError(t *testing.T) {
	_, ok := As(errors.New("boom"))
	assert.False(t, ok)
}

package apperr

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signupBody struct {
	Email string `json:"email" binding:"required,email"`
	Name  string `json:"displayName" binding:"required,min=2"`
	Age   int    `json:"age"`
}

func bindingValidator() *validator.Validate {
	v := validator.New()
	v.SetTagName("binding")
	return v
}

func TestFromBindError_ValidationUsesJSONNames(t *testing.T) {
	err := bindingValidator().Struct(signupBody{Name: "a"})
	require.Error(t, err)

	ae := FromBindError(err, &signupBody{})
	assert.Equal(t, http.StatusBadRequest, ae.Status)
	assert.Equal(t, "Validation failed", ae.Message)

	fields, ok := ae.Details.(ValidationFields)
	require.True(t, ok)
	assert.Equal(t, []string{"is required"}, fields["email"])
	assert.Equal(t, []string{"must be at least 2"}, fields["displayName"])
}

func TestFromBindError_WithoutTargetLowercasesFieldNames(t *testing.T) {
	err := bindingValidator().Struct(signupBody{Email: "nope", Name: "Ada"})
	require.Error(t, err)

	fields := FromBindError(err, nil).Details.(ValidationFields)
	assert.Equal(t, []string{"must be a valid email address"}, fields["email"])
}

func TestFromBindError_TypeMismatch(t *testing.T) {
	var body signupBody
	err := json.Unmarshal([]byte(`{"age":"ten"}`), &body)
	require.Error(t, err)

	ae := FromBindError(err, &body)
	fields := ae.Details.(ValidationFields)
	require.Contains(t, fields, "age")
	assert.Contains(t, fields["age"][0], "must be of type int")
}

func TestFromBindError_Other(t *testing.T) {
	assert.Equal(t, "Request body is required", FromBindError(io.EOF, nil).Message)
	assert.Equal(t, "Invalid JSON body", FromBindError(errors.New("invalid character"), nil).Message)

	tooBig := FromBindError(&http.MaxBytesError{Limit: 10}, nil)
	assert.Equal(t, http.StatusRequestEntityTooLarge, tooBig.Status)
	assert.Nil(t, tooBig.Details)
}

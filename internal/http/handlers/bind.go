package handlers

import (
	"encoding/json"
	"io"
	"sync"

	"github.com/geocoder89/bookinghub/internal/apperr"
	"github.com/geocoder89/bookinghub/internal/security"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// normalizer is implemented by request bodies that clean their fields up
// before validation runs.
type normalizer interface {
	Normalize()
}

var registerValidators sync.Once

// RegisterValidators adds the custom binding tags to gin's validator. It is
// safe to call more than once.
func RegisterValidators() {
	registerValidators.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("pwbytes", func(fl validator.FieldLevel) bool {
			return security.PasswordFits(fl.Field().String())
		})
	})
}

// BindJSON decodes, normalizes and validates the body into out. On failure
// the error is already recorded and the handler should return.
func BindJSON(ctx *gin.Context, out any) bool {
	RegisterValidators()

	if ctx.Request.Body == nil {
		fail(ctx, apperr.FromBindError(io.EOF, out))
		return false
	}

	if err := json.NewDecoder(ctx.Request.Body).Decode(out); err != nil {
		fail(ctx, apperr.FromBindError(err, out))
		return false
	}

	if n, ok := out.(normalizer); ok {
		n.Normalize()
	}

	if err := binding.Validator.ValidateStruct(out); err != nil {
		fail(ctx, apperr.FromBindError(err, out))
		return false
	}
	return true
}

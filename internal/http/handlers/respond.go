package handlers

import (
	"context"
	"time"

	"github.com/geocoder89/bookinghub/internal/apperr"
	"github.com/geocoder89/bookinghub/internal/config"
	"github.com/geocoder89/bookinghub/internal/domain/user"
	"github.com/geocoder89/bookinghub/internal/http/middlewares"
	"github.com/geocoder89/bookinghub/internal/utils"
	"github.com/gin-gonic/gin"
)

const requestTimeout = 3 * time.Second

// fail hands err to the central ErrorHandler. Callers return right after.
func fail(ctx *gin.Context, err error) {
	_ = ctx.Error(err)
	ctx.Abort()
}

func failInternal(ctx *gin.Context, message string, err error) {
	fail(ctx, apperr.Internal(message).Wrap(err))
}

// requestContext bounds repository calls while keeping the request's span.
func requestContext(ctx *gin.Context) (context.Context, context.CancelFunc) {
	return config.WithTimeout(ctx.Request.Context(), requestTimeout)
}

func currentUser(ctx *gin.Context) (user.PublicUser, bool) {
	identity, ok := middlewares.IdentityFromContext(ctx)
	if !ok {
		fail(ctx, apperr.Unauthorized(middlewares.MsgAuthRequired))
	}
	return identity, ok
}

// pathID reads :id and answers 404 for anything that is not a UUID.
func pathID(ctx *gin.Context, notFound string) (string, bool) {
	id := ctx.Param("id")
	if !utils.IsUUID(id) {
		fail(ctx, apperr.NotFound(notFound))
		return "", false
	}
	return id, true
}

package middlewares

import (
	"context"
	"log/slog"

	"github.com/geocoder89/bookinghub/internal/actorctx"
	"github.com/geocoder89/bookinghub/internal/apperr"
	"github.com/geocoder89/bookinghub/internal/auth"
	"github.com/geocoder89/bookinghub/internal/domain/user"
	"github.com/geocoder89/bookinghub/internal/observability"
	"github.com/gin-gonic/gin"
)

const (
	MsgTokenMissing   = "Authorization token missing"
	MsgTokenInvalid   = "Invalid or expired token"
	MsgUserNotFound   = "User not found"
	MsgAuthRequired   = "Authentication required"
	MsgPermissionDeny = "You do not have permission to access this resource"
)

// Authenticator is satisfied by *auth.Authenticator; tests fake it.
type Authenticator interface {
	Authenticate(ctx context.Context, header string) (user.PublicUser, error)
}

type AuthMiddleware struct {
	authn Authenticator
	log   *slog.Logger
	prom  *observability.Prom
}

func NewAuthMiddleware(authn Authenticator, log *slog.Logger, prom *observability.Prom) *AuthMiddleware {
	if log == nil {
		log = slog.Default()
	}
	return &AuthMiddleware{authn: authn, log: log, prom: prom}
}

// RequireAuth rejects the request unless it carries a valid access token for
// an existing user.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, err := m.authn.Authenticate(c.Request.Context(), c.GetHeader("Authorization"))
		if err != nil {
			kind, _ := auth.KindOf(err)
			m.prom.IncAuthFailure(kind.String())

			_ = c.Error(rejection(kind, err))
			c.Abort()
			return
		}

		setIdentity(c, identity)
		c.Next()
	}
}

// OptionalAuth attaches the identity when one can be established and lets
// everyone else through as a guest. It never rejects.
func (m *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, err := m.authn.Authenticate(c.Request.Context(), c.GetHeader("Authorization"))
		if err == nil {
			setIdentity(c, identity)
			c.Next()
			return
		}

		if kind, _ := auth.KindOf(err); !kind.Recoverable() {
			m.prom.IncOptionalAuthFailure()
			m.log.ErrorContext(c.Request.Context(), "optional auth lookup failed, continuing as guest",
				"err", err,
				"route", c.FullPath(),
				"request_id", RequestIDFrom(c),
			)
		}

		c.Next()
	}
}

// RequireRole must run after RequireAuth.
func (m *AuthMiddleware) RequireRole(roles ...user.Role) gin.HandlerFunc {
	allowed := make(map[user.Role]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(c *gin.Context) {
		identity, ok := IdentityFromContext(c)
		if !ok {
			m.log.WarnContext(c.Request.Context(), "role gate reached without identity", "route", c.FullPath())
			_ = c.Error(apperr.Unauthorized(MsgAuthRequired))
			c.Abort()
			return
		}

		if _, ok := allowed[identity.Role]; !ok {
			_ = c.Error(apperr.Forbidden(MsgPermissionDeny))
			c.Abort()
			return
		}

		c.Next()
	}
}

func rejection(kind auth.Kind, err error) error {
	switch kind {
	case auth.KindMissingToken:
		return apperr.Unauthorized(MsgTokenMissing).Wrap(err)
	case auth.KindInvalidToken:
		return apperr.Unauthorized(MsgTokenInvalid).Wrap(err)
	case auth.KindUserNotFound:
		return apperr.Unauthorized(MsgUserNotFound).Wrap(err)
	default:
		// falls through to the generic 500
		return err
	}
}

func setIdentity(c *gin.Context, identity user.PublicUser) {
	c.Set(ctxIdentity, identity)
	c.Request = c.Request.WithContext(actorctx.WithUser(c.Request.Context(), identity))
}

func IdentityFromContext(c *gin.Context) (user.PublicUser, bool) {
	v, ok := c.Get(ctxIdentity)
	if !ok {
		return user.PublicUser{}, false
	}
	u, ok := v.(user.PublicUser)
	return u, ok && u.ID != ""
}

func UserIDFromContext(c *gin.Context) (string, bool) {
	u, ok := IdentityFromContext(c)
	return u.ID, ok
}

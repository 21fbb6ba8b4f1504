package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/geocoder89/bookinghub/internal/domain/user"
)

type TokenVerifier interface {
	VerifyAccessToken(token string) (*Claims, error)
}

// Authenticator runs header extraction, token verification and identity
// resolution, returning either the identity or an *Error.
type Authenticator struct {
	tokens   TokenVerifier
	resolver *Resolver
}

func NewAuthenticator(tokens TokenVerifier, resolver *Resolver) *Authenticator {
	return &Authenticator{tokens: tokens, resolver: resolver}
}

func (a *Authenticator) Authenticate(ctx context.Context, header string) (user.PublicUser, error) {
	raw, ok := BearerToken(header)
	if !ok {
		return user.PublicUser{}, &Error{Kind: KindMissingToken}
	}

	claims, err := a.tokens.VerifyAccessToken(raw)
	if err != nil {
		return user.PublicUser{}, &Error{Kind: KindInvalidToken, Err: err}
	}

	identity, err := a.resolver.Resolve(ctx, claims)
	if err != nil {
		if errors.Is(err, ErrIdentityNotFound) {
			return user.PublicUser{}, &Error{Kind: KindUserNotFound, Err: err}
		}
		return user.PublicUser{}, &Error{Kind: KindLookupFailed, Err: err}
	}

	return identity, nil
}

// BearerToken extracts the token from "Bearer <token>". The scheme is
// matched case-insensitively.
func BearerToken(header string) (string, bool) {
	scheme, raw, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}

	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	return raw, true
}

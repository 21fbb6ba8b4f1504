package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/geocoder89/bookinghub/internal/domain/user"
	"github.com/golang-jwt/jwt/v5"
)

// DefaultTTL is the access token lifetime when none is configured.
const DefaultTTL = 7 * 24 * time.Hour

const (
	EmailVerificationTTL = 24 * time.Hour
	PasswordResetTTL     = time.Hour
)

var (
	ErrMissingSecret = errors.New("jwt signing secret is not configured")
	// ErrInvalidToken covers malformed, tampered, wrongly signed and expired
	// tokens alike; callers cannot tell them apart.
	ErrInvalidToken = errors.New("invalid or expired token")
)

type Purpose string

const (
	PurposeAccess            Purpose = "access"
	PurposeEmailVerification Purpose = "email_verification"
	PurposePasswordReset     Purpose = "password_reset"
)

type Claims struct {
	Email   string    `json:"email,omitempty"`
	Role    user.Role `json:"role,omitempty"`
	Purpose Purpose   `json:"typ"`
	// Fingerprint ties a password reset token to the hash it was issued against.
	Fingerprint string `json:"fp,omitempty"`
	jwt.RegisteredClaims
}

func (c Claims) UserID() string {
	return c.Subject
}

// AccessClaims builds the claims minted at login.
func AccessClaims(u user.User) Claims {
	return Claims{
		Email:            u.Email,
		Role:             u.Role,
		Purpose:          PurposeAccess,
		RegisteredClaims: jwt.RegisteredClaims{Subject: u.ID},
	}
}

func EmailVerificationClaims(u user.User) Claims {
	return Claims{
		Email:            u.Email,
		Purpose:          PurposeEmailVerification,
		RegisteredClaims: jwt.RegisteredClaims{Subject: u.ID},
	}
}

// PasswordResetClaims binds the token to the current password through fp,
// see Manager.PasswordFingerprint.
func PasswordResetClaims(u user.User, fp string) Claims {
	return Claims{
		Email:            u.Email,
		Purpose:          PurposePasswordReset,
		Fingerprint:      fp,
		RegisteredClaims: jwt.RegisteredClaims{Subject: u.ID},
	}
}

type Manager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewManager(secret string, ttl time.Duration) (*Manager, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}

	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &Manager{
		secret: []byte(secret),
		ttl:    ttl,
		now:    func() time.Time { return time.Now().UTC() },
	}, nil
}

func (m *Manager) TTL() time.Duration {
	return m.ttl
}

type issueOptions struct {
	ttl time.Duration
}

type IssueOption func(*issueOptions)

// WithTTL overrides the configured expiry for a single token.
func WithTTL(d time.Duration) IssueOption {
	return func(o *issueOptions) {
		o.ttl = d
	}
}

// Issue signs claims with HS256, stamping iat and exp.
func (m *Manager) Issue(claims Claims, opts ...IssueOption) (string, error) {
	o := issueOptions{ttl: m.ttl}
	for _, opt := range opts {
		opt(&o)
	}

	if claims.Purpose == "" {
		claims.Purpose = PurposeAccess
	}

	now := m.now()
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(o.ttl))

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks signature, algorithm and expiry.
func (m *Manager) Verify(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		// Enforce HMAC
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// VerifyPurpose is Verify plus a check on the typ claim.
func (m *Manager) VerifyPurpose(tokenStr string, purpose Purpose) (*Claims, error) {
	claims, err := m.Verify(tokenStr)
	if err != nil {
		return nil, err
	}

	if claims.Purpose != purpose {
		return nil, fmt.Errorf("%w: purpose %q", ErrInvalidToken, claims.Purpose)
	}

	return claims, nil
}

// VerifyAccessToken accepts only login tokens.
func (m *Manager) VerifyAccessToken(tokenStr string) (*Claims, error) {
	return m.VerifyPurpose(tokenStr, PurposeAccess)
}

// PasswordFingerprint is a keyed digest of a password hash. It changes
// whenever the password does, which retires outstanding reset tokens.
func (m *Manager) PasswordFingerprint(passwordHash string) string {
	h := hmac.New(sha256.New, m.secret)
	h.Write([]byte(passwordHash))
	return hex.EncodeToString(h.Sum(nil))[:32]
}

package auth

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/geocoder89/bookinghub/internal/domain/user"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T, secret string) *Manager {
	t.Helper()
	m, err := NewManager(secret, time.Hour)
	require.NoError(t, err)
	return m
}

func TestNewManager_RequiresSecret(t *testing.T) {
	_, err := NewManager("", time.Hour)
	assert.ErrorIs(t, err, ErrMissingSecret)
}

func TestNewManager_DefaultTTL(t *testing.T) {
	m, err := NewManager("secret", 0)
	require.NoError(t, err)
	assert.Equal(t, 7*24*time.Hour, m.TTL())
}

func TestIssueVerify_RoundTrip(t *testing.T) {
	m := newTestManager(t, "secret")

	in := Claims{
		Email:            "sam@example.com",
		Role:             user.RoleOrganiser,
		Purpose:          PurposeAccess,
		RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1"},
	}

	tok, err := m.Issue(in)
	require.NoError(t, err)
	assert.Len(t, strings.Split(tok, "."), 3)

	out, err := m.Verify(tok)
	require.NoError(t, err)

	assert.Equal(t, in.Subject, out.Subject)
	assert.Equal(t, in.Email, out.Email)
	assert.Equal(t, in.Role, out.Role)
	assert.Equal(t, in.Purpose, out.Purpose)
	require.NotNil(t, out.ExpiresAt)
	assert.WithinDuration(t, time.Now().Add(time.Hour), out.ExpiresAt.Time, 5*time.Second)

	// only exp and iat were added
	out.ExpiresAt = nil
	out.IssuedAt = nil
	assert.Equal(t, in, *out)
}

func TestIssue_WithTTLOverride(t *testing.T) {
	m := newTestManager(t, "secret")

	tok, err := m.Issue(Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "u"}}, WithTTL(10*time.Minute))
	require.NoError(t, err)

	c, err := m.Verify(tok)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(10*time.Minute), c.ExpiresAt.Time, 5*time.Second)
	assert.Equal(t, PurposeAccess, c.Purpose)
}

func TestVerify_WrongSecret(t *testing.T) {
	a := newTestManager(t, "secret1")
	b := newTestManager(t, "secret2")

	tok, err := a.Issue(Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "u"}})
	require.NoError(t, err)

	_, err = b.Verify(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_TamperedClaims(t *testing.T) {
	m := newTestManager(t, "secret")

	tok, err := m.Issue(Claims{Role: user.RoleCustomer, RegisteredClaims: jwt.RegisteredClaims{Subject: "u"}})
	require.NoError(t, err)

	parts := strings.Split(tok, ".")
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	require.NoError(t, err)

	forged := strings.Replace(string(payload), `"CUSTOMER"`, `"ADMIN"`, 1)
	parts[1] = base64.RawURLEncoding.EncodeToString([]byte(forged))

	_, err = m.Verify(strings.Join(parts, "."))
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_Expired(t *testing.T) {
	m := newTestManager(t, "secret")
	m.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	tok, err := m.Issue(Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "u"}})
	require.NoError(t, err)

	m.now = func() time.Time { return time.Now() }

	_, err = m.Verify(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_Malformed(t *testing.T) {
	m := newTestManager(t, "secret")

	for _, raw := range []string{"", "garbage", "invalid.token.string", "a.b"} {
		_, err := m.Verify(raw)
		assert.ErrorIs(t, err, ErrInvalidToken, raw)
	}
}

func TestVerify_RejectsOtherAlgorithms(t *testing.T) {
	m := newTestManager(t, "secret")

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}

	hs384, err := jwt.NewWithClaims(jwt.SigningMethodHS384, claims).SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = m.Verify(hs384)
	assert.ErrorIs(t, err, ErrInvalidToken)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = m.Verify(none)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_RequiresExpiry(t *testing.T) {
	m := newTestManager(t, "secret")

	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "u"},
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = m.Verify(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyPurpose(t *testing.T) {
	m := newTestManager(t, "secret")

	reset, err := m.Issue(Claims{
		Purpose:          PurposePasswordReset,
		RegisteredClaims: jwt.RegisteredClaims{Subject: "u"},
	}, WithTTL(PasswordResetTTL))
	require.NoError(t, err)

	_, err = m.VerifyAccessToken(reset)
	assert.ErrorIs(t, err, ErrInvalidToken)

	c, err := m.VerifyPurpose(reset, PurposePasswordReset)
	require.NoError(t, err)
	assert.Equal(t, "u", c.UserID())
}

func TestPasswordFingerprint(t *testing.T) {
	m := newTestManager(t, "secret")

	a := m.PasswordFingerprint("$2a$12$one")
	assert.Len(t, a, 32)
	assert.Equal(t, a, m.PasswordFingerprint("$2a$12$one"))
	assert.NotEqual(t, a, m.PasswordFingerprint("$2a$12$two"))
}

func subject(id string) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{Subject: id}
}

package security

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword(t *testing.T) {
	password := "password123"
	hashed, err := HashPassword(password)

	require.NoError(t, err)
	assert.NotEmpty(t, hashed)
	assert.NotEqual(t, password, hashed)

	cost, err := bcrypt.Cost([]byte(hashed))
	require.NoError(t, err)
	assert.Equal(t, HashCost, cost)
}

func TestCheckPassword(t *testing.T) {
	for _, pw := range []string{"x", "right", "correct horse battery staple", "pässwörd"} {
		hashed, err := HashPassword(pw)
		require.NoError(t, err)
		assert.True(t, CheckPassword(hashed, pw), pw)
	}

	hashed, err := HashPassword("right")
	require.NoError(t, err)
	assert.False(t, CheckPassword(hashed, "wrong"))
}

func TestCheckPassword_InvalidHash(t *testing.T) {
	assert.False(t, CheckPassword("invalidhash", "password123"))
	assert.False(t, CheckPassword("", "password123"))
}

func TestPasswordFits_CountsBytes(t *testing.T) {
	assert.True(t, PasswordFits(strings.Repeat("a", MaxPasswordBytes)))
	assert.False(t, PasswordFits(strings.Repeat("a", MaxPasswordBytes+1)))

	// 40 runes, 80 bytes
	wide := strings.Repeat("é", 40)
	assert.False(t, PasswordFits(wide))

	_, err := HashPassword(wide)
	assert.ErrorIs(t, err, bcrypt.ErrPasswordTooLong)
}

package security

import "golang.org/x/crypto/bcrypt"

// HashCost is the bcrypt work factor for every stored password.
const HashCost = 12

// MaxPasswordBytes is bcrypt's input limit. It counts bytes, not runes.
const MaxPasswordBytes = 72

// PasswordFits reports whether plain can be hashed.
func PasswordFits(plain string) bool {
	return len(plain) <= MaxPasswordBytes
}

// HashPassword hashes a plain text password with bcrypt.
func HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), HashCost)

	if err != nil {
		return "", err
	}

	return string(hash), nil
}

// CheckPassword reports whether plain matches the bcrypt hash. A malformed
// hash is a mismatch, not an error.
func CheckPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// Package credential computes and verifies salted password hashes.
package credential

import "golang.org/x/crypto/bcrypt"

// Hash returns a salted bcrypt hash of plaintext. Every call draws a fresh
// random salt, so hashing the same plaintext twice yields different values.
func Hash(plaintext string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Verify reports whether plaintext matches hash. The comparison is
// constant-time. A malformed or truncated hash verifies as false; callers
// cannot tell that case apart from a wrong password.
func Verify(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}

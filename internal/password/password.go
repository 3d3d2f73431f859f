package password

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	saltLength        = 16
	keyLength         = 32
	DefaultIterations = 100_000
)

// ErrEmptyPassword is returned when an empty password is hashed or verified.
var ErrEmptyPassword = errors.New("password must not be empty")

// ErrMalformedHash is returned when a stored hash cannot be parsed. Malformed
// input fails closed instead of verifying as false.
var ErrMalformedHash = errors.New("malformed password hash")

// Hasher derives password hashes with PBKDF2-SHA256. The on-disk format is
// "<hex salt>:<hex derived key>".
type Hasher struct {
	iterations int
}

// NewHasher creates a Hasher with the given iteration count. Non-positive
// counts fall back to DefaultIterations.
func NewHasher(iterations int) *Hasher {
	if iterations <= 0 {
		iterations = DefaultIterations
	}
	return &Hasher{iterations: iterations}
}

// Hash derives an encoded hash from the password using a fresh random salt.
func (h *Hasher) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}

	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	key := pbkdf2.Key([]byte(password), salt, h.iterations, keyLength, sha256.New)

	return hex.EncodeToString(salt) + ":" + hex.EncodeToString(key), nil
}

// Verify re-derives the key with the stored salt and compares in constant
// time. A parse failure is an error, not a mismatch.
func (h *Hasher) Verify(password, encoded string) (bool, error) {
	if password == "" {
		return false, ErrEmptyPassword
	}

	salt, key, err := parse(encoded)
	if err != nil {
		return false, err
	}

	derived := pbkdf2.Key([]byte(password), salt, h.iterations, len(key), sha256.New)

	return subtle.ConstantTimeCompare(derived, key) == 1, nil
}

func parse(encoded string) (salt, key []byte, err error) {
	parts := strings.Split(encoded, ":")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return nil, nil, ErrMalformedHash
	}

	salt, err = hex.DecodeString(parts[0])
	if err != nil {
		return nil, nil, ErrMalformedHash
	}
	key, err = hex.DecodeString(parts[1])
	if err != nil {
		return nil, nil, ErrMalformedHash
	}

	return salt, key, nil
}

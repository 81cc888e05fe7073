package utils

import (
	"crypto/subtle"
	"errors"

	"github.com/yukikurage/todo-api/internal/ident"
	"golang.org/x/crypto/argon2"
)

// ErrEmptyPassword is returned when hashing an empty plaintext.
var ErrEmptyPassword = errors.New("password is empty")

// PasswordHasher hashes passwords salted with the owning user's id, so no
// separate salt column is stored.
type PasswordHasher interface {
	Hash(plaintext string, salt ident.ID) ([]byte, error)
	Verify(plaintext string, salt ident.ID, hash []byte) bool
}

// Argon2Hasher is an Argon2id PasswordHasher.
type Argon2Hasher struct {
	Time    uint32
	Memory  uint32
	Threads uint8
	KeyLen  uint32
}

// NewArgon2Hasher returns a hasher with the RFC 9106 second recommended
// parameter set.
func NewArgon2Hasher() *Argon2Hasher {
	return &Argon2Hasher{
		Time:    3,
		Memory:  64 * 1024,
		Threads: 4,
		KeyLen:  32,
	}
}

func (h *Argon2Hasher) Hash(plaintext string, salt ident.ID) ([]byte, error) {
	if plaintext == "" {
		return nil, ErrEmptyPassword
	}
	return argon2.IDKey([]byte(plaintext), salt.Bytes(), h.Time, h.Memory, h.Threads, h.KeyLen), nil
}

func (h *Argon2Hasher) Verify(plaintext string, salt ident.ID, hash []byte) bool {
	candidate, err := h.Hash(plaintext, salt)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare(candidate, hash) == 1
}

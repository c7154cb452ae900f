package utils

import (
	"crypto/sha256"

	"golang.org/x/crypto/pbkdf2"
)

const hashKeyLength = 32

// HashParams carries the pbkdf2 parameters shared by everything that hashes
// passwords, so login and registration always produce comparable hashes.
type HashParams struct {
	Salt       []byte
	Iterations int
}

// Hash derives the stored password hash.
func (p HashParams) Hash(password string) []byte {
	return pbkdf2.Key([]byte(password), p.Salt, p.Iterations, hashKeyLength, sha256.New)
}

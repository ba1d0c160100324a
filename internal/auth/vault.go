package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/nacl/secretbox"
)

const nonceSize = 24

// Vault seals GitHub access tokens before they are written to the database.
//
// The key is derived from the JWT secret with SHA-256 so a deployment has a
// single secret to manage. Sealed format: 24-byte random nonce || secretbox.
type Vault struct {
	key [32]byte
}

func NewVault(secret string) (*Vault, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: vault secret must be at least 16 characters")
	}
	return &Vault{key: sha256.Sum256([]byte("gitcord-token-vault:" + secret))}, nil
}

func (v *Vault) Seal(plaintext string) ([]byte, error) {
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, fmt.Errorf("auth: generating nonce: %w", err)
	}
	return secretbox.Seal(nonce[:], []byte(plaintext), &nonce, &v.key), nil
}

// Open reverses Seal. It fails if sealed was produced with another key or
// has been modified.
func (v *Vault) Open(sealed []byte) (string, error) {
	if len(sealed) < nonceSize+secretbox.Overhead {
		return "", errors.New("auth: sealed token too short")
	}
	var nonce [nonceSize]byte
	copy(nonce[:], sealed[:nonceSize])

	plain, ok := secretbox.Open(nil, sealed[nonceSize:], &nonce, &v.key)
	if !ok {
		return "", errors.New("auth: sealed token failed authentication")
	}
	return string(plain), nil
}

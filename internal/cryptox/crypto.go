// Package cryptox derives offline-login keys from the user's password and
// seals small secrets (the cached refresh token) with them.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"errors"

	"github.com/dmitrijs2005/deepnote/internal/common"
	"golang.org/x/crypto/argon2"
)

// SaltSize is the length of the random salt stored next to the verifier.
const SaltSize = 16

var ErrInvalidKey = errors.New("invalid key length")

// DeriveKey stretches password with argon2id into a 32-byte AES key.
func DeriveKey(password []byte, salt []byte) []byte {
	return argon2.IDKey(password, salt, 1, 64*1024, 4, 32)
}

// Verifier is the value stored locally to check a password candidate
// without keeping the key itself.
func Verifier(key []byte) []byte {
	sum := sha256.Sum256(key)
	return sum[:]
}

// Seal encrypts plaintext with AES-GCM under key. The nonce is random and
// returned separately.
func Seal(key, plaintext []byte) (ciphertext, nonce []byte, err error) {
	aead, err := newGCM(key)
	if err != nil {
		return nil, nil, err
	}
	nonce = common.GenerateRandByteArray(aead.NonceSize())
	return aead.Seal(nil, nonce, plaintext, nil), nonce, nil
}

// Open reverses Seal. A wrong key or tampered input fails authentication.
func Open(key, ciphertext, nonce []byte) ([]byte, error) {
	aead, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	if len(nonce) != aead.NonceSize() {
		return nil, errors.New("invalid nonce length")
	}
	return aead.Open(nil, nonce, ciphertext, nil)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != 32 {
		return nil, ErrInvalidKey
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

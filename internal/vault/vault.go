// Package vault encrypts directory bind credentials at rest.
//
// Ciphertexts have the form hex(nonce):hex(sealed) where sealed is the
// XChaCha20-Poly1305 output under a key derived from the configured secret with HKDF-SHA256.
package vault

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

const hkdfInfo = "onboard360 directory credential"

var (
	// ErrEmptySecret is returned when the vault is created without a secret.
	ErrEmptySecret = errors.New("vault secret can not be empty")
	// ErrMalformedCiphertext is returned when a stored ciphertext can not be parsed or opened.
	ErrMalformedCiphertext = errors.New("malformed ciphertext")
)

// Vault encrypts and decrypts credentials.
type Vault interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// AEAD is the XChaCha20-Poly1305 implementation of Vault.
type AEAD struct {
	key []byte
}

// New derives the encryption key from secret.
func New(secret string) (*AEAD, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}

	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(hkdfInfo)), key); err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}

	return &AEAD{key: key}, nil
}

// Encrypt seals plaintext with a fresh random nonce.
func (v *AEAD) Encrypt(plaintext string) (string, error) {
	aead, err := chacha20poly1305.NewX(v.key)
	if err != nil {
		return "", fmt.Errorf("init cipher: %w", err)
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err = rand.Read(nonce); err != nil {
		return "", fmt.Errorf("read nonce: %w", err)
	}

	sealed := aead.Seal(nil, nonce, []byte(plaintext), nil)

	return hex.EncodeToString(nonce) + ":" + hex.EncodeToString(sealed), nil
}

// Decrypt opens a ciphertext produced by Encrypt.
// Any parse or authentication failure yields ErrMalformedCiphertext.
func (v *AEAD) Decrypt(ciphertext string) (string, error) {
	nonceHex, sealedHex, ok := strings.Cut(ciphertext, ":")
	if !ok {
		return "", ErrMalformedCiphertext
	}

	nonce, err := hex.DecodeString(nonceHex)
	if err != nil || len(nonce) != chacha20poly1305.NonceSizeX {
		return "", ErrMalformedCiphertext
	}

	sealed, err := hex.DecodeString(sealedHex)
	if err != nil {
		return "", ErrMalformedCiphertext
	}

	aead, err := chacha20poly1305.NewX(v.key)
	if err != nil {
		return "", fmt.Errorf("init cipher: %w", err)
	}

	plain, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrMalformedCiphertext, err)
	}

	return string(plain), nil
}

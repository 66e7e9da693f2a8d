// Package securex bundles the credential primitives used by the identity
// engine: a keyed lookup hash for equality search over sensitive values,
// adaptive one-way password hashing, reversible symmetric encryption for
// display, and random token generation for identifiers and one-time codes.
//
// Sensitive values such as email addresses are stored twice: a keyed HMAC
// for lookups (never reversible) and an AES-GCM ciphertext for showing the
// value back to its owner. Neither form alone leaks the plaintext.
package securex

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// bcryptCost is the work factor for password hashing. Raising it only
// affects newly stored hashes; existing hashes keep their embedded cost.
const bcryptCost = 10

// Token lengths, in characters. IDs and codes share the same width; at 32
// hex characters (128 bits) collisions are negligible.
const (
	IDLength   = 32
	CodeLength = 32
)

// CipherKeySize is the required AES-256 key width for Encrypt/Decrypt.
const CipherKeySize = 32

var (
	// ErrMalformedCiphertext is returned by Decrypt when the input is not
	// valid hex or is shorter than the nonce prefix.
	ErrMalformedCiphertext = errors.New("malformed ciphertext")
)

// LookupHash returns the deterministic keyed hash of plaintext under salt,
// hex-encoded. Equal inputs always produce equal output, so the result can
// be used for equality lookups without storing the plaintext. It is never
// reversible; use Encrypt for values that must be displayed again.
func LookupHash(plaintext, salt string) string {
	mac := hmac.New(sha512.New, []byte(salt))
	mac.Write([]byte(plaintext))
	return hex.EncodeToString(mac.Sum(nil))
}

// HashSecret hashes a secret with bcrypt. The per-call random salt and cost
// factor are embedded in the returned string.
func HashSecret(secret string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hashing secret: %w", err)
	}
	return string(hash), nil
}

// VerifySecret reports whether candidate matches the bcrypt hash produced
// by HashSecret. The comparison inside bcrypt is constant-time.
func VerifySecret(hash, candidate string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(candidate)) == nil
}

// Encrypt encrypts plaintext with AES-256-GCM under key. A fresh random
// nonce is generated on every call and prepended to the ciphertext, so the
// same plaintext encrypted twice yields different output and Decrypt needs
// only the key. The result is hex-encoded for storage in a text column.
func Encrypt(plaintext string, key []byte) (string, error) {
	aead, err := newAEAD(key)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generating nonce: %w", err)
	}

	sealed := aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return hex.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt. It returns ErrMalformedCiphertext if the input
// is not hex or is truncated below the nonce length, and an error if the
// ciphertext fails authentication.
func Decrypt(ciphertext string, key []byte) (string, error) {
	aead, err := newAEAD(key)
	if err != nil {
		return "", err
	}

	raw, err := hex.DecodeString(ciphertext)
	if err != nil {
		return "", ErrMalformedCiphertext
	}
	if len(raw) < aead.NonceSize() {
		return "", ErrMalformedCiphertext
	}

	nonce, sealed := raw[:aead.NonceSize()], raw[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", fmt.Errorf("decrypting: %w", err)
	}
	return string(plaintext), nil
}

// RandomToken returns a cryptographically random hex string of exactly
// length characters. Every call draws fresh randomness from crypto/rand.
func RandomToken(length int) (string, error) {
	b := make([]byte, (length+1)/2)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating token: %w", err)
	}
	return hex.EncodeToString(b)[:length], nil
}

func newAEAD(key []byte) (cipher.AEAD, error) {
	if len(key) != CipherKeySize {
		return nil, fmt.Errorf("cipher key must be %d bytes, got %d", CipherKeySize, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

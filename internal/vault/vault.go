// Package vault derives session keys from passphrases and seals credential
// payloads with authenticated encryption. Plaintext credentials never leave
// this package once sealed.
package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"
)

const (
	saltLength    = 16
	keyLength     = 32
	kdfIterations = 100000
)

// ErrDecryption is returned when a ciphertext cannot be opened, whether from
// a mismatched key, tampering, or a malformed payload. The cause is not
// distinguished to callers.
var ErrDecryption = errors.New("vault: decryption failed")

// DeriveKey derives a 32-byte key from the passphrase using PBKDF2-SHA256.
// If salt is nil a fresh random 16-byte salt is generated. The same
// passphrase and salt always produce the same key.
func DeriveKey(passphrase string, salt []byte) (key []byte, usedSalt []byte, err error) {
	if len(salt) == 0 {
		salt = make([]byte, saltLength)
		if _, err := io.ReadFull(rand.Reader, salt); err != nil {
			return nil, nil, fmt.Errorf("failed to generate salt: %w", err)
		}
	}
	key = pbkdf2.Key([]byte(passphrase), salt, kdfIterations, keyLength, sha256.New)
	return key, salt, nil
}

// Encrypt seals plaintext with AES-256-GCM under the given key. The random
// nonce is prepended to the ciphertext and the whole payload is returned
// base64 URL-safe encoded.
func Encrypt(plaintext string, key []byte) (string, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("failed to create GCM: %w", err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a payload produced by Encrypt. Any failure, including a
// wrong key or a tampered ciphertext, returns ErrDecryption.
func Decrypt(encoded string, key []byte) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return "", ErrDecryption
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", ErrDecryption
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", ErrDecryption
	}

	if len(raw) < gcm.NonceSize() {
		return "", ErrDecryption
	}
	nonce, ciphertext := raw[:gcm.NonceSize()], raw[gcm.NonceSize():]

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", ErrDecryption
	}
	return string(plaintext), nil
}

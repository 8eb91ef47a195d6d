package token

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strings"
)

// Cipher encrypts refresh tokens with AES-GCM and signs cookie values with
// HMAC-SHA256. Ciphertexts are stored as base64(nonce).base64(ciphertext)
// with a fresh random 96-bit nonce per encryption.
type Cipher struct {
	aead         cipher.AEAD
	cookieSecret []byte
}

// NewCipher creates a Cipher from a 16/24/32-byte AES key and a cookie
// signing secret.
func NewCipher(encKey, cookieSecret []byte) (*Cipher, error) {
	block, err := aes.NewCipher(encKey)
	if err != nil {
		return nil, fmt.Errorf("invalid encryption key: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create AEAD: %w", err)
	}
	if len(cookieSecret) == 0 {
		return nil, fmt.Errorf("cookie secret is required")
	}
	return &Cipher{aead: aead, cookieSecret: cookieSecret}, nil
}

// Encrypt seals plaintext and returns base64(nonce).base64(ciphertext)
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	ciphertext := c.aead.Seal(nil, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(nonce) + "." +
		base64.StdEncoding.EncodeToString(ciphertext), nil
}

// Decrypt reverses Encrypt
func (c *Cipher) Decrypt(payload string) (string, error) {
	parts := strings.SplitN(payload, ".", 2)
	if len(parts) != 2 {
		return "", fmt.Errorf("malformed encrypted payload")
	}

	nonce, err := base64.StdEncoding.DecodeString(parts[0])
	if err != nil {
		return "", fmt.Errorf("malformed nonce: %w", err)
	}
	ciphertext, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return "", fmt.Errorf("malformed ciphertext: %w", err)
	}
	if len(nonce) != c.aead.NonceSize() {
		return "", fmt.Errorf("invalid nonce size")
	}

	plaintext, err := c.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("decryption failed: %w", err)
	}
	return string(plaintext), nil
}

// Sign returns value.base64(HMAC-SHA256(value)) for cookie binding
func (c *Cipher) Sign(value string) string {
	mac := hmac.New(sha256.New, c.cookieSecret)
	mac.Write([]byte(value))
	return value + "." + base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// Verify checks a signed cookie value by recomputing the HMAC. The
// comparison is constant-structure (hmac.Equal), not length-sensitive
// string comparison.
func (c *Cipher) Verify(signed string) (string, bool) {
	idx := strings.LastIndex(signed, ".")
	if idx <= 0 {
		return "", false
	}
	value, sig := signed[:idx], signed[idx+1:]

	got, err := base64.RawURLEncoding.DecodeString(sig)
	if err != nil {
		return "", false
	}

	mac := hmac.New(sha256.New, c.cookieSecret)
	mac.Write([]byte(value))
	if !hmac.Equal(got, mac.Sum(nil)) {
		return "", false
	}
	return value, true
}

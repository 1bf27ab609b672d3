package service

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/craftwork/polaris/internal/modelruntime"
	"golang.org/x/crypto/chacha20poly1305"
)

// CredentialCipher seals provider credentials with XChaCha20-Poly1305
// before they are persisted. The key is derived from the configured
// credential secret.
type CredentialCipher struct {
	key [32]byte
}

func NewCredentialCipher(secret string) (*CredentialCipher, error) {
	if secret == "" {
		return nil, fmt.Errorf("credential secret is required")
	}
	return &CredentialCipher{key: sha256.Sum256([]byte(secret))}, nil
}

// Seal encrypts the credential map and returns a base64 string of
// nonce || ciphertext.
func (c *CredentialCipher) Seal(creds modelruntime.Credentials) (string, error) {
	plaintext, err := json.Marshal(creds)
	if err != nil {
		return "", err
	}

	aead, err := chacha20poly1305.NewX(c.key[:])
	if err != nil {
		return "", err
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}

	sealed := aead.Seal(nonce, nonce, plaintext, nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Open decrypts a string produced by Seal.
func (c *CredentialCipher) Open(sealed string) (modelruntime.Credentials, error) {
	raw, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return nil, fmt.Errorf("decode credentials: %w", err)
	}

	aead, err := chacha20poly1305.NewX(c.key[:])
	if err != nil {
		return nil, err
	}
	if len(raw) < aead.NonceSize() {
		return nil, fmt.Errorf("sealed credentials too short")
	}

	nonce, ciphertext := raw[:aead.NonceSize()], raw[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("open credentials: %w", err)
	}

	var creds modelruntime.Credentials
	if err := json.Unmarshal(plaintext, &creds); err != nil {
		return nil, err
	}
	return creds, nil
}

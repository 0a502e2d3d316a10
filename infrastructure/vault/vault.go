// Package vault encrypts OAuth credentials at rest.
//
// Values are sealed with XChaCha20-Poly1305 under a key derived from a process-wide
// secret and stored as "enc:" + base64(nonce || ciphertext). Values without the prefix
// are treated as legacy plaintext.
package vault

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"strings"
	"sync"

	"social-publisher/infrastructure/configuration"
	"social-publisher/infrastructure/logger"

	"golang.org/x/crypto/chacha20poly1305"
)

// Prefix marks a stored value as ciphertext.
const Prefix = "enc:"

// RawPrefix escapes a plaintext value that would otherwise read as ciphertext.
const RawPrefix = "raw:"

var errCiphertextTooShort = errors.New("ciphertext too short")

// Vault implements model.TokenCipher.
type Vault struct {
	aead     cipher.AEAD
	warnOnce sync.Once
}

var (
	defaultOnce  sync.Once
	defaultVault *Vault
)

// Default returns the process-wide vault keyed from configuration.C.App.EncryptionKey.
// The key is derived once and cached for the lifetime of the process.
func Default() *Vault {
	defaultOnce.Do(func() {
		defaultVault = New(configuration.C.App.EncryptionKey)
	})
	return defaultVault
}

// New derives a 256-bit key from secret. An empty secret or an unusable primitive
// leaves the vault in pass-through mode.
func New(secret string) *Vault {
	v := &Vault{}
	if secret == "" {
		return v
	}
	key := sha256.Sum256([]byte(secret))
	aead, err := chacha20poly1305.NewX(key[:])
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Failed to initialise token cipher")
		return v
	}
	v.aead = aead
	return v
}

// Enabled reports whether values are actually encrypted.
func (v *Vault) Enabled() bool {
	return v.aead != nil
}

func (v *Vault) warnPassThrough() {
	v.warnOnce.Do(func() {
		logger.GetLogger().Warn("Token encryption unavailable; storing credentials in plaintext")
	})
}

// Encrypt seals plaintext. The empty string is returned unchanged.
func (v *Vault) Encrypt(plaintext string) string {
	if plaintext == "" {
		return plaintext
	}
	if v.aead == nil {
		v.warnPassThrough()
		return escape(plaintext)
	}
	nonce := make([]byte, chacha20poly1305.NonceSizeX, chacha20poly1305.NonceSizeX+len(plaintext)+v.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		logger.GetLogger().WithField("error", err).Error("Failed to generate nonce; storing credential in plaintext")
		return escape(plaintext)
	}
	sealed := v.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return Prefix + base64.StdEncoding.EncodeToString(sealed)
}

// escape guards plaintext stored without encryption. Legacy values that begin with
// RawPrefix lose it on Decrypt.
func escape(plaintext string) string {
	if strings.HasPrefix(plaintext, Prefix) || strings.HasPrefix(plaintext, RawPrefix) {
		return RawPrefix + plaintext
	}
	return plaintext
}

// Decrypt opens a value produced by Encrypt. Values without the prefix are returned
// as is. Any failure is logged and yields "".
func (v *Vault) Decrypt(ciphertext string) string {
	if raw, ok := strings.CutPrefix(ciphertext, RawPrefix); ok {
		return raw
	}
	if !strings.HasPrefix(ciphertext, Prefix) {
		return ciphertext
	}
	if v.aead == nil {
		v.warnPassThrough()
		logger.GetLogger().Error("Encrypted credential found but no encryption key is configured")
		return ""
	}
	plaintext, err := v.open(strings.TrimPrefix(ciphertext, Prefix))
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Failed to decrypt credential")
		return ""
	}
	return plaintext
}

func (v *Vault) open(encoded string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", err
	}
	if len(raw) < chacha20poly1305.NonceSizeX {
		return "", errCiphertextTooShort
	}
	nonce, ct := raw[:chacha20poly1305.NonceSizeX], raw[chacha20poly1305.NonceSizeX:]
	out, err := v.aead.Open(nil, nonce, ct, nil)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

package middleware

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/aretw0/flowstudio/pkg/domain"
	"github.com/aretw0/flowstudio/pkg/ports"
)

// encryptedKey is the only key of an encrypted credential's stored data.
const encryptedKey = "__encrypted__"

// ErrKeySize is returned for keys that are not 32 bytes.
var ErrKeySize = errors.New("encryption key must be 32 bytes (AES-256)")

// EncryptionConfig holds the keys for encryption and decryption.
type EncryptionConfig struct {
	// ActiveKey is the key used for encrypting new data.
	// Must be 32 bytes for AES-256.
	ActiveKey []byte

	// FallbackKeys is a list of old keys to try when decryption fails.
	// This enables zero-downtime key rotation.
	FallbackKeys [][]byte
}

// DecodeKey parses a base64 encoded 32-byte key.
func DecodeKey(encoded string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode encryption key: %w", err)
	}
	if len(key) != 32 {
		return nil, ErrKeySize
	}
	return key, nil
}

type encryptionMiddleware struct {
	ports.Repository
	config EncryptionConfig
}

// NewEncryptionMiddleware creates a middleware that keeps credential data encrypted
// at rest with AES-GCM. Everything but credentials passes through untouched.
func NewEncryptionMiddleware(config EncryptionConfig) (Middleware, error) {
	if len(config.ActiveKey) != 32 {
		return nil, ErrKeySize
	}
	for _, k := range config.FallbackKeys {
		if len(k) != 32 {
			return nil, ErrKeySize
		}
	}
	return func(next ports.Repository) ports.Repository {
		return &encryptionMiddleware{
			Repository: next,
			config:     config,
		}
	}, nil
}

func (m *encryptionMiddleware) CreateCredential(ctx context.Context, assistantID string, cred domain.Credential) (domain.Credential, error) {
	plainText, err := json.Marshal(cred.Data)
	if err != nil {
		return domain.Credential{}, fmt.Errorf("failed to marshal credential data: %w", err)
	}

	ciphertext, err := encrypt(plainText, m.config.ActiveKey)
	if err != nil {
		return domain.Credential{}, fmt.Errorf("failed to encrypt credential data: %w", err)
	}

	// The envelope hides every field name as well as the values.
	envelope := cred
	envelope.Data = map[string]any{
		encryptedKey: base64.StdEncoding.EncodeToString(ciphertext),
	}
	envelope.DataRedacted = nil

	created, err := m.Repository.CreateCredential(ctx, assistantID, envelope)
	if err != nil {
		return domain.Credential{}, err
	}
	created.Data = domain.CloneMap(cred.Data)
	return created, nil
}

func (m *encryptionMiddleware) ListCredentials(ctx context.Context, assistantID string) ([]domain.Credential, error) {
	list, err := m.Repository.ListCredentials(ctx, assistantID)
	if err != nil {
		return nil, err
	}
	for i := range list {
		data, err := m.open(list[i].Data)
		if err != nil {
			return nil, fmt.Errorf("credential %s: %w", list[i].ID, err)
		}
		list[i].Data = data
	}
	return list, nil
}

func (m *encryptionMiddleware) open(stored map[string]any) (map[string]any, error) {
	encryptedStr, ok := stored[encryptedKey].(string)
	if !ok {
		// Fail secure: plain records are not served once encryption is on.
		return nil, errors.New("credential is missing encrypted data envelope")
	}

	ciphertext, err := base64.StdEncoding.DecodeString(encryptedStr)
	if err != nil {
		return nil, fmt.Errorf("failed to decode ciphertext base64: %w", err)
	}

	plainText, err := decryptWithRotation(ciphertext, m.config.ActiveKey, m.config.FallbackKeys)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt credential data: %w", err)
	}

	var data map[string]any
	if err := json.Unmarshal(plainText, &data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal decrypted data: %w", err)
	}
	return data, nil
}

// Helpers

func encrypt(plaintext []byte, key []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func decryptWithRotation(ciphertext []byte, activeKey []byte, fallbackKeys [][]byte) ([]byte, error) {
	if plain, err := decrypt(ciphertext, activeKey); err == nil {
		return plain, nil
	}
	for _, key := range fallbackKeys {
		if plain, err := decrypt(ciphertext, key); err == nil {
			return plain, nil
		}
	}
	return nil, errors.New("decryption failed with all available keys")
}

func decrypt(ciphertext []byte, key []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	if len(ciphertext) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}

	nonce, body := ciphertext[:gcm.NonceSize()], ciphertext[gcm.NonceSize():]
	return gcm.Open(nil, nonce, body, nil)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

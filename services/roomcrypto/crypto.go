package roomcrypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const (
	// SessionKeyBytes is the fixed session key length (AES-256).
	SessionKeyBytes = 32

	gcmTagBytes = 16
)

var (
	ErrTagMismatch = errors.New("authentication tag verification failed")
	ErrBadPayload  = errors.New("malformed encrypted payload")
)

// EncryptedPayload is the wire-level record for an authenticated encryption.
// A fresh random IV is generated for every call; IVs are never reused under
// the same key.
type EncryptedPayload struct {
	IV         string `json:"iv"`
	Ciphertext string `json:"ciphertext"`
	Tag        string `json:"tag"`
	IssuedAt   int64  `json:"issued_at"` // unix milliseconds, for replay-window checks
}

// GenerateSessionKey returns a fresh 256-bit random key. Keys are independent
// per room and never derived from any per-player secret.
func GenerateSessionKey() ([]byte, error) {
	key := make([]byte, SessionKeyBytes)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("error generating session key: %v", err)
	}
	return key, nil
}

// Encrypt serializes payload as JSON and encrypts it with AES-256-GCM under
// key, returning the IV, ciphertext and authentication tag separately.
func Encrypt(payload interface{}, key []byte) (*EncryptedPayload, error) {
	plaintext, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("error marshaling payload: %v", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("error creating cipher: %v", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("error creating GCM: %v", err)
	}

	iv := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(iv); err != nil {
		return nil, fmt.Errorf("error generating IV: %v", err)
	}

	// Seal appends the tag to the ciphertext; split it off so the wire
	// format carries the tag as its own field.
	sealed := gcm.Seal(nil, iv, plaintext, nil)
	ciphertext := sealed[:len(sealed)-gcmTagBytes]
	tag := sealed[len(sealed)-gcmTagBytes:]

	return &EncryptedPayload{
		IV:         base64.StdEncoding.EncodeToString(iv),
		Ciphertext: base64.StdEncoding.EncodeToString(ciphertext),
		Tag:        base64.StdEncoding.EncodeToString(tag),
		IssuedAt:   time.Now().UnixMilli(),
	}, nil
}

// Decrypt verifies and decrypts an EncryptedPayload. It fails loudly when
// the authentication tag does not verify; it never returns garbage.
func Decrypt(payload *EncryptedPayload, key []byte) ([]byte, error) {
	iv, err := base64.StdEncoding.DecodeString(payload.IV)
	if err != nil {
		return nil, ErrBadPayload
	}
	ciphertext, err := base64.StdEncoding.DecodeString(payload.Ciphertext)
	if err != nil {
		return nil, ErrBadPayload
	}
	tag, err := base64.StdEncoding.DecodeString(payload.Tag)
	if err != nil {
		return nil, ErrBadPayload
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("error creating cipher: %v", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("error creating GCM: %v", err)
	}
	if len(iv) != gcm.NonceSize() || len(tag) != gcmTagBytes {
		return nil, ErrBadPayload
	}

	sealed := append(ciphertext, tag...)
	plaintext, err := gcm.Open(nil, iv, sealed, nil)
	if err != nil {
		return nil, ErrTagMismatch
	}
	return plaintext, nil
}

// IsPayloadFresh reports whether the payload's issue timestamp is within
// maxAge of now. Callers that care about replay protection must apply this
// before trusting a decrypted payload.
func IsPayloadFresh(payload *EncryptedPayload, maxAge time.Duration) bool {
	age := time.Now().UnixMilli() - payload.IssuedAt
	return age >= 0 && age <= maxAge.Milliseconds()
}

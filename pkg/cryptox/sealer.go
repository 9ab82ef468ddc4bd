package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/crypto/hkdf"
)

// ErrCiphertext is returned when sealed data is truncated or fails
// authentication.
var ErrCiphertext = errors.New("cryptox: invalid ciphertext")

// sealerInfo binds derived keys to their purpose so the same master key
// material can't be reused across contexts.
const sealerInfo = "crmconnect/credential-seal/v1"

// Sealer encrypts small blobs (stored credentials) with AES-256-GCM.
// The output format is: [12-byte nonce][ciphertext][16-byte auth tag].
type Sealer struct {
	aead cipher.AEAD
}

// NewSealer derives a 32-byte key from master with HKDF-SHA256.
func NewSealer(master []byte) (*Sealer, error) {
	if len(master) == 0 {
		return nil, errors.New("cryptox: empty master key")
	}

	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, master, nil, []byte(sealerInfo)), key); err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create GCM: %w", err)
	}

	return &Sealer{aead: gcm}, nil
}

// Seal encrypts plaintext. ad is authenticated but not encrypted; callers
// pass the owning record key so blobs can't be swapped between rows.
func (s *Sealer) Seal(plaintext, ad []byte) ([]byte, error) {
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}
	return s.aead.Seal(nonce, nonce, plaintext, ad), nil
}

// Open decrypts data produced by Seal with the same ad.
func (s *Sealer) Open(sealed, ad []byte) ([]byte, error) {
	n := s.aead.NonceSize()
	if len(sealed) < n+s.aead.Overhead() {
		return nil, ErrCiphertext
	}

	plaintext, err := s.aead.Open(nil, sealed[:n], sealed[n:], ad)
	if err != nil {
		return nil, ErrCiphertext
	}
	return plaintext, nil
}

// LoadMasterKey reads key material from path when set, otherwise from the
// envKey variable. If neither is present an ephemeral random key is returned
// and ephemeral is true; data sealed with it won't survive a restart.
func LoadMasterKey(path, envKey string) (key []byte, ephemeral bool, err error) {
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, false, fmt.Errorf("read master key file: %w", err)
		}
		data = []byte(strings.TrimSpace(string(data)))
		if len(data) == 0 {
			return nil, false, fmt.Errorf("master key file %s is empty", path)
		}
		return data, false, nil
	}

	if v := os.Getenv(envKey); v != "" {
		return []byte(v), false, nil
	}

	key = make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, false, fmt.Errorf("generate ephemeral master key: %w", err)
	}
	return key, true, nil
}

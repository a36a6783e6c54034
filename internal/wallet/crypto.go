// Package wallet spends from WIF keys and script addresses through an explorer
// backend, and seals private keys for storage.
// Keys are sealed with Argon2id + AES-256-GCM only.
package wallet

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"unicode"

	"golang.org/x/crypto/argon2"
)

const (
	sealVersion   = 1
	argon2KeyLen  = 32 // AES-256
	argon2SaltLen = 32
)

// KDFParams are the Argon2id cost parameters.
type KDFParams struct {
	Time        uint32
	Memory      uint32 // KiB
	Parallelism uint8
}

// DefaultKDF follows the OWASP recommendation for password hashing.
var DefaultKDF = KDFParams{Time: 3, Memory: 64 * 1024, Parallelism: 4}

// SealedKey is an encrypted private key together with the parameters needed
// to derive its encryption key again.
type SealedKey struct {
	Version     int    `json:"version"`
	Ciphertext  []byte `json:"ciphertext"`
	Salt        []byte `json:"salt"`
	Nonce       []byte `json:"nonce"`
	Time        uint32 `json:"time"`
	Memory      uint32 `json:"memory"`
	Parallelism uint8  `json:"parallelism"`
}

// Seal encrypts a WIF private key with password.
func Seal(wif, password string, kdf KDFParams) (*SealedKey, error) {
	if err := ValidatePassword(password); err != nil {
		return nil, fmt.Errorf("invalid password: %w", err)
	}
	if wif == "" {
		return nil, fmt.Errorf("nothing to seal")
	}

	salt := make([]byte, argon2SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}

	gcm, err := newGCM(password, salt, kdf)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	return &SealedKey{
		Version:     sealVersion,
		Ciphertext:  gcm.Seal(nil, nonce, []byte(wif), nil),
		Salt:        salt,
		Nonce:       nonce,
		Time:        kdf.Time,
		Memory:      kdf.Memory,
		Parallelism: kdf.Parallelism,
	}, nil
}

// Open decrypts a sealed key. Missing cost parameters fall back to DefaultKDF.
func Open(sealed *SealedKey, password string) (string, error) {
	if sealed.Version != sealVersion {
		return "", fmt.Errorf("unsupported sealed key version %d", sealed.Version)
	}
	kdf := KDFParams{Time: sealed.Time, Memory: sealed.Memory, Parallelism: sealed.Parallelism}
	if kdf.Time == 0 {
		kdf.Time = DefaultKDF.Time
	}
	if kdf.Memory == 0 {
		kdf.Memory = DefaultKDF.Memory
	}
	if kdf.Parallelism == 0 {
		kdf.Parallelism = DefaultKDF.Parallelism
	}

	gcm, err := newGCM(password, sealed.Salt, kdf)
	if err != nil {
		return "", err
	}
	plaintext, err := gcm.Open(nil, sealed.Nonce, sealed.Ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt (wrong password?): %w", err)
	}
	defer SecureClear(plaintext)

	return string(plaintext), nil
}

// Marshal encodes the sealed key as JSON for storage.
func (s *SealedKey) Marshal() ([]byte, error) {
	return json.Marshal(s)
}

// UnmarshalSealedKey decodes a sealed key produced by Marshal.
func UnmarshalSealedKey(data []byte) (*SealedKey, error) {
	var s SealedKey
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal sealed key: %w", err)
	}
	return &s, nil
}

func newGCM(password string, salt []byte, kdf KDFParams) (cipher.AEAD, error) {
	key := argon2.IDKey([]byte(password), salt, kdf.Time, kdf.Memory, kdf.Parallelism, argon2KeyLen)
	defer SecureClear(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return gcm, nil
}

// SecureClear overwrites a byte slice with zeros.
func SecureClear(data []byte) {
	for i := range data {
		data[i] = 0
	}
}

// Password validation constants
const (
	MinPasswordLength = 8
	MaxPasswordLength = 256
)

// ValidatePassword requires at least 8 characters and 3 of 4 character types.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	}
	if len(password) > MaxPasswordLength {
		return fmt.Errorf("password must be at most %d characters", MaxPasswordLength)
	}

	var classes [4]bool
	for _, char := range password {
		switch {
		case unicode.IsUpper(char):
			classes[0] = true
		case unicode.IsLower(char):
			classes[1] = true
		case unicode.IsNumber(char):
			classes[2] = true
		case unicode.IsPunct(char) || unicode.IsSymbol(char):
			classes[3] = true
		}
	}
	complexity := 0
	for _, ok := range classes {
		if ok {
			complexity++
		}
	}
	if complexity < 3 {
		return fmt.Errorf("password must contain at least 3 of: uppercase, lowercase, number, special character")
	}
	return nil
}

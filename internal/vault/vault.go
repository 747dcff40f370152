// Package vault encrypts credentials for at-rest storage.
//
// The scheme matches what the backend's web frontend uses (CryptoJS defaults):
// AES-128 in ECB mode with PKCS7 padding, base64-encoded ciphertext, and a fixed
// embedded key. It guards a persisted settings value against casual tampering
// only; it is not a security boundary.
package vault

import (
	"crypto/aes"
	"encoding/base64"
	"errors"
	"fmt"
)

// The key material ships base64-encoded; the decoded bytes, read as text, are
// the 16-byte AES-128 key.
const embeddedKeyB64 = "QWR2Z1ZNM1laZVFFY3B3Ug=="

var (
	// ErrCiphertextLength is returned when the decoded ciphertext is not a
	// whole number of cipher blocks.
	ErrCiphertextLength = errors.New("vault: ciphertext is not block-aligned")

	// ErrBadPadding is returned when the decrypted plaintext does not carry
	// valid PKCS7 padding.
	ErrBadPadding = errors.New("vault: invalid PKCS7 padding")
)

func key() []byte {
	raw, err := base64.StdEncoding.DecodeString(embeddedKeyB64)
	if err != nil {
		// The key is a compile-time constant; this cannot happen at runtime.
		panic(fmt.Sprintf("vault: embedded key is not valid base64: %v", err))
	}
	return raw
}

// Encrypt encrypts plaintext and returns base64-encoded ciphertext.
func Encrypt(plaintext string) (string, error) {
	block, err := aes.NewCipher(key())
	if err != nil {
		return "", fmt.Errorf("vault: init cipher: %w", err)
	}

	padded := pkcs7Pad([]byte(plaintext), block.BlockSize())
	out := make([]byte, len(padded))
	for i := 0; i < len(padded); i += block.BlockSize() {
		block.Encrypt(out[i:i+block.BlockSize()], padded[i:i+block.BlockSize()])
	}

	return base64.StdEncoding.EncodeToString(out), nil
}

// Decrypt reverses Encrypt. An empty input decrypts to an empty string so a
// never-saved settings value reads back cleanly.
func Decrypt(ciphertextB64 string) (string, error) {
	if ciphertextB64 == "" {
		return "", nil
	}

	raw, err := base64.StdEncoding.DecodeString(ciphertextB64)
	if err != nil {
		return "", fmt.Errorf("vault: decode ciphertext: %w", err)
	}

	block, err := aes.NewCipher(key())
	if err != nil {
		return "", fmt.Errorf("vault: init cipher: %w", err)
	}

	if len(raw) == 0 || len(raw)%block.BlockSize() != 0 {
		return "", ErrCiphertextLength
	}

	out := make([]byte, len(raw))
	for i := 0; i < len(raw); i += block.BlockSize() {
		block.Decrypt(out[i:i+block.BlockSize()], raw[i:i+block.BlockSize()])
	}

	plain, err := pkcs7Unpad(out, block.BlockSize())
	if err != nil {
		return "", err
	}
	return string(plain), nil
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	n := blockSize - len(data)%blockSize
	padded := make([]byte, len(data)+n)
	copy(padded, data)
	for i := len(data); i < len(padded); i++ {
		padded[i] = byte(n)
	}
	return padded
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, ErrBadPadding
	}
	n := int(data[len(data)-1])
	if n == 0 || n > blockSize || n > len(data) {
		return nil, ErrBadPadding
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, ErrBadPadding
		}
	}
	return data[:len(data)-n], nil
}

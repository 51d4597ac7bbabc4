package services

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"

	"github.com/shopspring/decimal"
)

// AESAmountCipher seals balance snapshots with AES-GCM. The student id is
// bound in as additional authenticated data, so a snapshot copied onto
// another student's row fails to decrypt.
type AESAmountCipher struct {
	key [32]byte
}

// NewAESAmountCipher derives a cipher from an arbitrary secret string.
func NewAESAmountCipher(secret string) *AESAmountCipher {
	return &AESAmountCipher{key: sha256.Sum256([]byte(secret))}
}

// EncryptAmount seals an amount for the given student and returns it
// base64-encoded with the nonce prepended.
func (c *AESAmountCipher) EncryptAmount(amount decimal.Decimal, studentID string) (string, error) {
	gcm, err := c.gcm()
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := gcm.Seal(nonce, nonce, []byte(amount.String()), []byte(studentID))
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// DecryptAmount recovers an amount sealed by EncryptAmount. Any tampering,
// truncation or student mismatch yields an error; callers are expected to
// skip such values rather than fail their whole read.
func (c *AESAmountCipher) DecryptAmount(value string, studentID string) (decimal.Decimal, error) {
	raw, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to decode snapshot: %w", err)
	}

	gcm, err := c.gcm()
	if err != nil {
		return decimal.Zero, err
	}
	if len(raw) < gcm.NonceSize() {
		return decimal.Zero, fmt.Errorf("snapshot too short")
	}

	plain, err := gcm.Open(nil, raw[:gcm.NonceSize()], raw[gcm.NonceSize():], []byte(studentID))
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to open snapshot: %w", err)
	}

	amount, err := decimal.NewFromString(string(plain))
	if err != nil {
		return decimal.Zero, fmt.Errorf("snapshot is not an amount: %w", err)
	}
	return amount, nil
}

func (c *AESAmountCipher) gcm() (cipher.AEAD, error) {
	block, err := aes.NewCipher(c.key[:])
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

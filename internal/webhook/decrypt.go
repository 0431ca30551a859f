package webhook

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/hex"
	"fmt"
)

// DecryptionError indicates a webhook payload could not be authenticated or
// decrypted. The notification is dropped; the sender is still acknowledged.
type DecryptionError struct {
	Err error
}

func (e *DecryptionError) Error() string {
	return fmt.Sprintf("webhook decryption failed: %v", e.Err)
}

func (e *DecryptionError) Unwrap() error {
	return e.Err
}

// Decrypt authenticates and decrypts an AES-256-GCM webhook payload. The key
// is supplied out of band; the initialization vector and authentication tag
// arrive as hex header values alongside the hex ciphertext body.
func Decrypt(keyHex, ivHex, authTagHex, bodyHex string) ([]byte, error) {
	key, err := hex.DecodeString(keyHex)
	if err != nil {
		return nil, &DecryptionError{Err: fmt.Errorf("bad key encoding: %w", err)}
	}
	iv, err := hex.DecodeString(ivHex)
	if err != nil {
		return nil, &DecryptionError{Err: fmt.Errorf("bad initialization vector: %w", err)}
	}
	tag, err := hex.DecodeString(authTagHex)
	if err != nil {
		return nil, &DecryptionError{Err: fmt.Errorf("bad authentication tag: %w", err)}
	}
	ciphertext, err := hex.DecodeString(bodyHex)
	if err != nil {
		return nil, &DecryptionError{Err: fmt.Errorf("bad ciphertext encoding: %w", err)}
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, &DecryptionError{Err: err}
	}
	gcm, err := cipher.NewGCMWithNonceSize(block, len(iv))
	if err != nil {
		return nil, &DecryptionError{Err: err}
	}

	plaintext, err := gcm.Open(nil, iv, append(ciphertext, tag...), nil)
	if err != nil {
		return nil, &DecryptionError{Err: err}
	}
	return plaintext, nil
}

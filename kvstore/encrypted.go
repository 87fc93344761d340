package kvstore

import (
	"context"
	"fmt"

	"github.com/kbukum/ranchkit/encryption"
)

// Encrypted seals values with an encryption.Encryptor before they reach the
// wrapped store. The key is bound to its value as associated data, so a
// value copied under another key fails to decrypt.
type Encrypted struct {
	inner Store
	enc   encryption.Encryptor
}

// NewEncrypted wraps inner with enc.
func NewEncrypted(inner Store, enc encryption.Encryptor) *Encrypted {
	return &Encrypted{inner: inner, enc: enc}
}

// Get returns the decrypted value under key.
func (e *Encrypted) Get(ctx context.Context, key string) (string, error) {
	sealed, err := e.inner.Get(ctx, key)
	if err != nil {
		return "", err
	}
	plain, err := e.enc.Decrypt(sealed, key)
	if err != nil {
		return "", fmt.Errorf("kvstore: decrypt %q: %w", key, err)
	}
	return plain, nil
}

// Set encrypts value and stores it under key.
func (e *Encrypted) Set(ctx context.Context, key, value string) error {
	sealed, err := e.enc.Encrypt(value, key)
	if err != nil {
		return fmt.Errorf("kvstore: encrypt %q: %w", key, err)
	}
	return e.inner.Set(ctx, key, sealed)
}

// Remove deletes key from the wrapped store.
func (e *Encrypted) Remove(ctx context.Context, key string) error {
	return e.inner.Remove(ctx, key)
}

// Close closes the wrapped store.
func (e *Encrypted) Close() error { return e.inner.Close() }

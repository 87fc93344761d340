package encryption

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

// ErrCiphertextTooShort is returned for input shorter than a nonce.
var ErrCiphertextTooShort = errors.New("ciphertext too short")

// Encryptor seals and opens strings bound to an associated label.
type Encryptor interface {
	Encrypt(plaintext, label string) (string, error)
	Decrypt(ciphertext, label string) (string, error)
}

// Algorithm represents supported encryption algorithms.
type Algorithm string

const (
	AlgorithmChaCha20 Algorithm = "chacha20-poly1305"
	AlgorithmAESGCM   Algorithm = "aes-256-gcm"
)

// Option configures the encryptor.
type Option func(*options)

type options struct {
	algorithm Algorithm
	salt      []byte
}

// WithAlgorithm selects the cipher (default ChaCha20-Poly1305).
func WithAlgorithm(alg Algorithm) Option {
	return func(o *options) { o.algorithm = alg }
}

// WithSalt sets the HKDF salt used to derive the key.
func WithSalt(salt []byte) Option {
	return func(o *options) { o.salt = salt }
}

// Cipher is the AEAD-backed Encryptor.
type Cipher struct {
	aead      cipher.AEAD
	algorithm Algorithm
}

// New derives a 256-bit key from passphrase and returns a Cipher.
func New(passphrase string, opts ...Option) (*Cipher, error) {
	if passphrase == "" {
		return nil, errors.New("encryption passphrase is required")
	}
	o := &options{algorithm: AlgorithmChaCha20}
	for _, opt := range opts {
		opt(o)
	}

	key := make([]byte, 32)
	kdf := hkdf.New(sha256.New, []byte(passphrase), o.salt, []byte("ranchkit/"+string(o.algorithm)))
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}

	var (
		aead cipher.AEAD
		err  error
	)
	switch o.algorithm {
	case AlgorithmChaCha20:
		aead, err = chacha20poly1305.New(key)
	case AlgorithmAESGCM:
		var block cipher.Block
		if block, err = aes.NewCipher(key); err == nil {
			aead, err = cipher.NewGCM(block)
		}
	default:
		return nil, fmt.Errorf("unsupported algorithm %q", o.algorithm)
	}
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", o.algorithm, err)
	}
	return &Cipher{aead: aead, algorithm: o.algorithm}, nil
}

// Algorithm reports the cipher in use.
func (c *Cipher) Algorithm() Algorithm { return c.algorithm }

// Encrypt seals plaintext and returns base64(nonce || ciphertext).
func (c *Cipher) Encrypt(plaintext, label string) (string, error) {
	nonce := make([]byte, c.aead.NonceSize(), c.aead.NonceSize()+len(plaintext)+c.aead.Overhead())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), []byte(label))
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a value produced by Encrypt with the same label.
func (c *Cipher) Decrypt(ciphertext, label string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("decode base64: %w", err)
	}
	nonceSize := c.aead.NonceSize()
	if len(data) < nonceSize {
		return "", ErrCiphertextTooShort
	}
	plaintext, err := c.aead.Open(nil, data[:nonceSize], data[nonceSize:], []byte(label))
	if err != nil {
		return "", fmt.Errorf("decrypt: %w", err)
	}
	return string(plaintext), nil
}

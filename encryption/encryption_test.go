package encryption

import (
	"encoding/base64"
	"errors"
	"testing"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	for _, alg := range []Algorithm{AlgorithmChaCha20, AlgorithmAESGCM} {
		t.Run(string(alg), func(t *testing.T) {
			c, err := New("ranch-secret", WithAlgorithm(alg))
			if err != nil {
				t.Fatalf("New failed: %v", err)
			}
			if c.Algorithm() != alg {
				t.Errorf("expected %s, got %s", alg, c.Algorithm())
			}

			tests := []struct {
				name      string
				plaintext string
			}{
				{"token", "eyJhbGciOiJIUzI1NiJ9.e30.sig"},
				{"empty", ""},
				{"json", `{"id":"u-1","ranch_ids":["r-1"]}`},
				{"unicode", "vaca lechera ñ"},
			}
			for _, tc := range tests {
				t.Run(tc.name, func(t *testing.T) {
					sealed, err := c.Encrypt(tc.plaintext, "auth_token")
					if err != nil {
						t.Fatalf("Encrypt failed: %v", err)
					}
					if sealed == tc.plaintext && tc.plaintext != "" {
						t.Error("ciphertext equals plaintext")
					}
					got, err := c.Decrypt(sealed, "auth_token")
					if err != nil {
						t.Fatalf("Decrypt failed: %v", err)
					}
					if got != tc.plaintext {
						t.Errorf("expected %q, got %q", tc.plaintext, got)
					}
				})
			}
		})
	}
}

func TestEncryptUsesFreshNonce(t *testing.T) {
	c, _ := New("k")
	a, _ := c.Encrypt("same", "l")
	b, _ := c.Encrypt("same", "l")
	if a == b {
		t.Error("expected different ciphertexts for repeated encryption")
	}
}

func TestDecryptRejectsWrongLabel(t *testing.T) {
	c, _ := New("k")
	sealed, _ := c.Encrypt("token", "auth_token")
	if _, err := c.Decrypt(sealed, "auth_user"); err == nil {
		t.Error("expected label mismatch to fail")
	}
}

func TestDecryptRejectsWrongKey(t *testing.T) {
	a, _ := New("key-a")
	b, _ := New("key-b")
	sealed, _ := a.Encrypt("token", "l")
	if _, err := b.Decrypt(sealed, "l"); err == nil {
		t.Error("expected wrong key to fail")
	}
}

func TestSaltChangesKey(t *testing.T) {
	a, _ := New("k", WithSalt([]byte("one")))
	b, _ := New("k", WithSalt([]byte("two")))
	sealed, _ := a.Encrypt("token", "l")
	if _, err := b.Decrypt(sealed, "l"); err == nil {
		t.Error("expected different salt to derive a different key")
	}
}

func TestDecryptMalformed(t *testing.T) {
	c, _ := New("k")
	if _, err := c.Decrypt("not base64!!", "l"); err == nil {
		t.Error("expected base64 error")
	}
	short := base64.StdEncoding.EncodeToString([]byte("abc"))
	if _, err := c.Decrypt(short, "l"); !errors.Is(err, ErrCiphertextTooShort) {
		t.Errorf("expected ErrCiphertextTooShort, got %v", err)
	}
}

func TestNewValidation(t *testing.T) {
	if _, err := New(""); err == nil {
		t.Error("expected error for empty passphrase")
	}
	if _, err := New("k", WithAlgorithm("rot13")); err == nil {
		t.Error("expected error for unknown algorithm")
	}
}

func TestCipherImplementsEncryptor(t *testing.T) {
	var _ Encryptor = (*Cipher)(nil)
}

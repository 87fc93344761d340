// Package encryption seals small secrets, such as stored session tokens,
// with an AEAD cipher. ChaCha20-Poly1305 is the default; AES-256-GCM is
// available for hosts with AES hardware.
//
// Keys are derived from a passphrase with HKDF-SHA256. Ciphertexts are
// base64 strings carrying their nonce, and are bound to an associated label
// (the kvstore uses the entry key) so a value cannot be replayed under a
// different label.
//
//	enc, err := encryption.New(passphrase)
//	sealed, err := enc.Encrypt("token", "auth_token")
//	plain, err := enc.Decrypt(sealed, "auth_token")
package encryption

// Package crypto implements the crypto provider (C2): authenticated
// encryption/decryption of short strings, with a multi-key decryption
// fallback path. Grounded on gitprivacy/crypto/secretbox.py and
// passwordsecretbox.py from the original implementation; the scheme is
// XSalsa20-Poly1305 (NaCl secretbox) exactly as the original uses via
// PyNaCl, here via golang.org/x/crypto/nacl/secretbox.
package crypto

import (
	"crypto/rand"
	"encoding/base64"

	"golang.org/x/crypto/nacl/secretbox"
	"golang.org/x/crypto/scrypt"

	gperrors "github.com/empri-devops/git-privacy/internal/errors"
)

// KeySize is the symmetric key length in bytes.
const KeySize = 32

const nonceSize = 24

// Key is a 32-byte symmetric secretbox key.
type Key [KeySize]byte

// GenerateKey returns a fresh random key, the equivalent of
// SecretBox.generate_key() in the original implementation.
func GenerateKey() (Key, error) {
	var k Key
	if _, err := rand.Read(k[:]); err != nil {
		return Key{}, gperrors.CryptoWrap(err, "crypto.GenerateKey", "failed to read random bytes")
	}
	return k, nil
}

// EncodeKey base64-encodes a key for on-disk storage.
func EncodeKey(k Key) string { return base64.StdEncoding.EncodeToString(k[:]) }

// DecodeKey parses a base64-encoded key.
func DecodeKey(s string) (Key, error) {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return Key{}, gperrors.CryptoWrap(err, "crypto.DecodeKey", "invalid key encoding")
	}
	if len(b) != KeySize {
		return Key{}, gperrors.Crypto("crypto.DecodeKey", "key has wrong length")
	}
	var k Key
	copy(k[:], b)
	return k, nil
}

// Encryptor encrypts plaintext with a single key.
type Encryptor interface {
	Encrypt(plaintext string) (string, error)
}

// Decryptor decrypts ciphertext, returning ("", false) rather than an
// error when the ciphertext cannot be authenticated under the available
// key(s) — decrypt failures are a local, non-fatal outcome per spec.md §7.
type Decryptor interface {
	Decrypt(ciphertext string) (string, bool)
}

// EncryptionProvider composes both capabilities, mirroring the original's
// EncryptionProvider abstract base.
type EncryptionProvider interface {
	Encryptor
	Decryptor
}

// SecretBox is a single-key encryptor/decryptor: output is
// base64(nonce || box), where box = XSalsa20-Poly1305(plaintext).
type SecretBox struct {
	key Key
}

// NewSecretBox builds a SecretBox over a single active key.
func NewSecretBox(key Key) *SecretBox { return &SecretBox{key: key} }

// Encrypt authenticates and encrypts plaintext under a fresh random nonce.
func (b *SecretBox) Encrypt(plaintext string) (string, error) {
	var nonce [nonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return "", gperrors.CryptoWrap(err, "SecretBox.Encrypt", "failed to read nonce")
	}
	sealed := secretbox.Seal(nonce[:], []byte(plaintext), &nonce, (*[KeySize]byte)(&b.key))
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Decrypt attempts to open ciphertext under this box's key.
func (b *SecretBox) Decrypt(ciphertext string) (string, bool) {
	return open(ciphertext, b.key)
}

func open(ciphertext string, key Key) (string, bool) {
	raw, err := base64.RawURLEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", false
	}
	if len(raw) < nonceSize {
		return "", false
	}
	var nonce [nonceSize]byte
	copy(nonce[:], raw[:nonceSize])
	plain, ok := secretbox.Open(nil, raw[nonceSize:], &nonce, (*[KeySize]byte)(&key))
	if !ok {
		return "", false
	}
	return string(plain), true
}

// MultiKeyDecryptor tries an ordered list of keys — conventionally the
// active key followed by archived keys newest-first — and returns the
// first successful decryption. No side channel beyond the order of
// attempts is observable to a caller.
type MultiKeyDecryptor struct {
	keys []Key
}

// NewMultiKeyDecryptor builds a decryptor trying keys in the given order.
func NewMultiKeyDecryptor(keys []Key) *MultiKeyDecryptor {
	return &MultiKeyDecryptor{keys: keys}
}

// Decrypt tries each key in order, returning the first success.
func (m *MultiKeyDecryptor) Decrypt(ciphertext string) (string, bool) {
	for _, k := range m.keys {
		if plain, ok := open(ciphertext, k); ok {
			return plain, true
		}
	}
	return "", false
}

// MultiKeyBox combines single-key encryption (under the first/active key)
// with multi-key decryption (active key, then archive, newest-first) — the
// shape the core actually uses day to day.
type MultiKeyBox struct {
	*SecretBox
	*MultiKeyDecryptor
}

// NewMultiKeyBox builds a box that encrypts under keys[0] and decrypts by
// trying every key in keys, in order.
func NewMultiKeyBox(keys []Key) (*MultiKeyBox, error) {
	if len(keys) == 0 {
		return nil, gperrors.Crypto("crypto.NewMultiKeyBox", "no active key configured")
	}
	return &MultiKeyBox{
		SecretBox:         NewSecretBox(keys[0]),
		MultiKeyDecryptor: NewMultiKeyDecryptor(keys),
	}, nil
}

// Decrypt resolves the ambiguity between embedding SecretBox.Decrypt and
// MultiKeyDecryptor.Decrypt in favor of trying every available key.
func (m *MultiKeyBox) Decrypt(ciphertext string) (string, bool) {
	return m.MultiKeyDecryptor.Decrypt(ciphertext)
}

// scrypt interactive parameters, matching libsodium's
// crypto_pwhash_scrypt OPSLIMIT/MEMLIMIT "interactive" preset that the
// original implementation derives legacy password-based keys with.
const (
	scryptN = 1 << 14
	scryptR = 8
	scryptP = 1
)

// DeriveKey derives a 32-byte key from a legacy (password, salt) pair for
// the key store's migrate operation.
func DeriveKey(password, salt []byte) (Key, error) {
	raw, err := scrypt.Key(password, salt, scryptN, scryptR, scryptP, KeySize)
	if err != nil {
		return Key{}, gperrors.CryptoWrap(err, "crypto.DeriveKey", "scrypt derivation failed")
	}
	var k Key
	copy(k[:], raw)
	return k, nil
}

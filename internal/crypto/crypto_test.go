package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustKey(t *testing.T) Key {
	t.Helper()
	k, err := GenerateKey()
	require.NoError(t, err)
	return k
}

func TestSecretBox_RoundTrip(t *testing.T) {
	t.Parallel()
	k := mustKey(t)
	box := NewSecretBox(k)

	ct, err := box.Encrypt("1545144133 +0000")
	require.NoError(t, err)

	plain, ok := box.Decrypt(ct)
	require.True(t, ok)
	assert.Equal(t, "1545144133 +0000", plain)
}

func TestSecretBox_FreshNonceEachCall(t *testing.T) {
	t.Parallel()
	k := mustKey(t)
	box := NewSecretBox(k)

	a, err := box.Encrypt("same plaintext")
	require.NoError(t, err)
	b, err := box.Encrypt("same plaintext")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestSecretBox_WrongKeyFails(t *testing.T) {
	t.Parallel()
	k1, k2 := mustKey(t), mustKey(t)
	ct, err := NewSecretBox(k1).Encrypt("secret")
	require.NoError(t, err)

	_, ok := NewSecretBox(k2).Decrypt(ct)
	assert.False(t, ok)
}

func TestMultiKeyDecryptor_S5KeyRotation(t *testing.T) {
	t.Parallel()
	k1, k2 := mustKey(t), mustKey(t)

	ct, err := NewSecretBox(k1).Encrypt("value V")
	require.NoError(t, err)

	newestFirst := NewMultiKeyDecryptor([]Key{k2, k1})
	plain, ok := newestFirst.Decrypt(ct)
	require.True(t, ok)
	assert.Equal(t, "value V", plain)

	oldestFirst := NewMultiKeyDecryptor([]Key{k1, k2})
	plain2, ok2 := oldestFirst.Decrypt(ct)
	require.True(t, ok2)
	assert.Equal(t, "value V", plain2)

	withoutK1 := NewMultiKeyDecryptor([]Key{k2})
	_, ok3 := withoutK1.Decrypt(ct)
	assert.False(t, ok3)
}

func TestMultiKeyBox_EncryptsUnderActiveKey(t *testing.T) {
	t.Parallel()
	k1, k2 := mustKey(t), mustKey(t)
	box, err := NewMultiKeyBox([]Key{k2, k1}) // k2 active, k1 archived
	require.NoError(t, err)

	ct, err := box.Encrypt("payload")
	require.NoError(t, err)

	plain, ok := box.Decrypt(ct)
	require.True(t, ok)
	assert.Equal(t, "payload", plain)

	_, ok2 := NewSecretBox(k1).Decrypt(ct)
	assert.False(t, ok2, "archived key should not decrypt a freshly active-key-encrypted value")
}

func TestDeriveKey_Deterministic(t *testing.T) {
	t.Parallel()
	password := []byte("correct horse battery staple")
	salt := []byte("0123456789abcdef")

	k1, err := DeriveKey(password, salt)
	require.NoError(t, err)
	k2, err := DeriveKey(password, salt)
	require.NoError(t, err)
	assert.Equal(t, k1, k2)

	k3, err := DeriveKey([]byte("different"), salt)
	require.NoError(t, err)
	assert.NotEqual(t, k1, k3)
}

func TestEncodeDecodeKey_RoundTrip(t *testing.T) {
	t.Parallel()
	k := mustKey(t)
	encoded := EncodeKey(k)
	decoded, err := DecodeKey(encoded)
	require.NoError(t, err)
	assert.Equal(t, k, decoded)
}

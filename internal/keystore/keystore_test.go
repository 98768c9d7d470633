package keystore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_CreatesActiveKey(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	s := New(dir)

	require.NoError(t, s.Init())
	assert.True(t, s.HasActive())

	_, ok, err := s.ActiveKey()
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestInit_FailsIfActiveExists(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	s := New(dir)

	require.NoError(t, s.Init())
	err := s.Init()
	assert.Error(t, err)
}

func TestRotate_ArchivesOldKeyAndIssuesNew(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	s := New(dir)
	require.NoError(t, s.Init())

	oldKey, _, err := s.ActiveKey()
	require.NoError(t, err)

	require.NoError(t, s.Rotate(true))

	newKey, _, err := s.ActiveKey()
	require.NoError(t, err)
	assert.NotEqual(t, oldKey, newKey)

	archived, err := s.ArchivedKeys()
	require.NoError(t, err)
	require.Len(t, archived, 1)
	assert.Equal(t, oldKey, archived[0])
}

func TestRotate_NoArchiveDeletesOldKey(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	s := New(dir)
	require.NoError(t, s.Init())

	require.NoError(t, s.Rotate(false))
	archived, err := s.ArchivedKeys()
	require.NoError(t, err)
	assert.Empty(t, archived)
}

func TestArchivedKeys_NewestFirst(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	s := New(dir)
	require.NoError(t, s.Init())

	k1, _, _ := s.ActiveKey()
	require.NoError(t, s.Rotate(true))
	k2, _, _ := s.ActiveKey()
	require.NoError(t, s.Rotate(true))

	archived, err := s.ArchivedKeys()
	require.NoError(t, err)
	require.Len(t, archived, 2)
	assert.Equal(t, k2, archived[0], "newest archived key should come first")
	assert.Equal(t, k1, archived[1])
}

func TestArchivedKeys_IgnoresNonIntegerFilenames(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	s := New(dir)
	require.NoError(t, s.Init())
	require.NoError(t, s.Rotate(true))

	junk := filepath.Join(s.archiveDir(), "notanumber")
	require.NoError(t, os.WriteFile(junk, []byte("garbage"), 0o600))

	archived, err := s.ArchivedKeys()
	require.NoError(t, err)
	assert.Len(t, archived, 1)
}

func TestDisable_RequiresActiveKey(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	s := New(dir)
	assert.Error(t, s.Disable(true))
}

func TestDecryptionKeys_ActiveThenArchiveNewestFirst(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	s := New(dir)
	require.NoError(t, s.Init())
	k1, _, _ := s.ActiveKey()
	require.NoError(t, s.Rotate(true))
	k2, _, _ := s.ActiveKey()

	keys, err := s.DecryptionKeys()
	require.NoError(t, err)
	require.Len(t, keys, 2)
	assert.Equal(t, k2, keys[0])
	assert.Equal(t, k1, keys[1])
}

func TestMigratePassword(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	s := New(dir)

	require.NoError(t, s.MigratePassword([]byte("hunter2"), []byte("saltsaltsalt"), true))
	assert.True(t, s.HasActive())
}

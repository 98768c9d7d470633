// Package keystore implements the key store (C1): the active key plus an
// ordered archive of retired keys on disk, and the rotate/retire/migrate
// lifecycle operations. Grounded on gitprivacy/cli/keys.py from the
// original implementation.
package keystore

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/empri-devops/git-privacy/internal/crypto"
	gperrors "github.com/empri-devops/git-privacy/internal/errors"
	"github.com/empri-devops/git-privacy/internal/fileutil"
)

const (
	currentFileName = "current"
	archiveDirName  = "archive"
	keyFilePerm     = 0o600
	// maxKeyFileSize bounds key-file reads: an encoded 32-byte key is a few
	// dozen bytes, so anything larger signals a corrupted or tampered file.
	maxKeyFileSize = 4096
)

// Store manages the on-disk key layout under "<gitdir>/privacy/keys".
type Store struct {
	dir string // "<gitdir>/privacy/keys"
}

// New builds a Store rooted at privacyDir/keys.
func New(privacyDir string) *Store {
	return &Store{dir: filepath.Join(privacyDir, "keys")}
}

func (s *Store) currentPath() string   { return filepath.Join(s.dir, currentFileName) }
func (s *Store) archiveDir() string    { return filepath.Join(s.dir, archiveDirName) }
func (s *Store) archivePath(n int) string {
	return filepath.Join(s.archiveDir(), strconv.Itoa(n))
}

// HasActive reports whether an active key is present.
func (s *Store) HasActive() bool {
	_, err := os.Stat(s.currentPath())
	return err == nil
}

// ActiveKey returns the current active key, if any.
func (s *Store) ActiveKey() (crypto.Key, bool, error) {
	data, err := fileutil.ReadFileLimited(s.currentPath(), maxKeyFileSize)
	if err != nil {
		if os.IsNotExist(err) {
			return crypto.Key{}, false, nil
		}
		return crypto.Key{}, false, gperrors.KeyWrap(err, "keystore.ActiveKey", "failed to read active key")
	}
	k, err := crypto.DecodeKey(string(data))
	if err != nil {
		return crypto.Key{}, false, err
	}
	return k, true, nil
}

// ArchivedKeys returns archived keys newest-first (descending archive id).
// Non-integer filenames in the archive directory are ignored.
func (s *Store) ArchivedKeys() ([]crypto.Key, error) {
	ids, err := s.archiveIDs()
	if err != nil {
		return nil, err
	}
	keys := make([]crypto.Key, 0, len(ids))
	for _, id := range ids {
		data, err := fileutil.ReadFileLimited(s.archivePath(id), maxKeyFileSize)
		if err != nil {
			return nil, gperrors.KeyWrap(err, "keystore.ArchivedKeys", "failed to read archived key")
		}
		k, err := crypto.DecodeKey(string(data))
		if err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, nil
}

// archiveIDs lists valid archive ids in descending order (newest first).
func (s *Store) archiveIDs() ([]int, error) {
	entries, err := os.ReadDir(s.archiveDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, gperrors.KeyWrap(err, "keystore.archiveIDs", "failed to list archive directory")
	}
	ids := make([]int, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		n, err := strconv.Atoi(e.Name())
		if err != nil {
			continue // non-integer filenames are ignored, per spec
		}
		ids = append(ids, n)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(ids)))
	return ids, nil
}

// DecryptionKeys returns the active key (if any) followed by archived keys
// newest-first — the exact order a MultiKeyDecryptor should try.
func (s *Store) DecryptionKeys() ([]crypto.Key, error) {
	var keys []crypto.Key
	active, ok, err := s.ActiveKey()
	if err != nil {
		return nil, err
	}
	if ok {
		keys = append(keys, active)
	}
	archived, err := s.ArchivedKeys()
	if err != nil {
		return nil, err
	}
	return append(keys, archived...), nil
}

// Init generates a fresh key and writes it as current. Fails if current
// already exists (exclusive create).
func (s *Store) Init() error {
	const op = "keystore.Init"
	if s.HasActive() {
		return gperrors.Key(op, "an active key already exists; use `keys --new` to rotate")
	}
	k, err := crypto.GenerateKey()
	if err != nil {
		return err
	}
	if err := fileutil.WriteFileExclusive(s.currentPath(), []byte(crypto.EncodeKey(k)), keyFilePerm); err != nil {
		if errors.Is(err, fileutil.ErrExists) {
			return gperrors.Key(op, "an active key already exists")
		}
		return gperrors.KeyWrap(err, op, "failed to write active key")
	}
	return nil
}

// Rotate archives the current key (or deletes it, if archive is false) and
// writes a freshly generated key as the new current. Fails if no current
// key exists.
func (s *Store) Rotate(archive bool) error {
	const op = "keystore.Rotate"
	if !s.HasActive() {
		return gperrors.Key(op, "no active key to rotate; use `keys --init` first")
	}
	if err := s.retireCurrent(archive); err != nil {
		return err
	}
	k, err := crypto.GenerateKey()
	if err != nil {
		return err
	}
	if err := fileutil.WriteFileExclusive(s.currentPath(), []byte(crypto.EncodeKey(k)), keyFilePerm); err != nil {
		return gperrors.KeyWrap(err, op, "failed to write rotated key")
	}
	return nil
}

// Disable archives (or deletes) the current key, leaving no active key.
func (s *Store) Disable(archive bool) error {
	const op = "keystore.Disable"
	if !s.HasActive() {
		return gperrors.Key(op, "no active key to disable")
	}
	return s.retireCurrent(archive)
}

// retireCurrent moves the current key out of the way: archived under the
// next id, or deleted.
func (s *Store) retireCurrent(archive bool) error {
	const op = "keystore.retireCurrent"
	if !archive {
		if err := os.Remove(s.currentPath()); err != nil {
			return gperrors.KeyWrap(err, op, "failed to remove current key")
		}
		return nil
	}

	ids, err := s.archiveIDs()
	if err != nil {
		return err
	}
	next := 1
	if len(ids) > 0 {
		next = ids[0] + 1 // ids[0] is the max, since archiveIDs is descending
	}
	if err := os.MkdirAll(s.archiveDir(), 0o700); err != nil {
		return gperrors.KeyWrap(err, op, "failed to create archive directory")
	}
	target := s.archivePath(next)
	if _, err := os.Stat(target); err == nil {
		return gperrors.Key(op, "archive slot already occupied; refusing to clobber")
	}
	if err := os.Rename(s.currentPath(), target); err != nil {
		return gperrors.KeyWrap(err, op, "failed to archive current key")
	}
	return nil
}

// MigratePassword derives a key from a legacy (password, salt) pair,
// archives (or deletes) any existing current key, and writes the derived
// key as current.
func (s *Store) MigratePassword(password, salt []byte, archive bool) error {
	const op = "keystore.MigratePassword"
	if s.HasActive() {
		if err := s.retireCurrent(archive); err != nil {
			return err
		}
	}
	k, err := crypto.DeriveKey(password, salt)
	if err != nil {
		return err
	}
	if err := fileutil.WriteFileExclusive(s.currentPath(), []byte(crypto.EncodeKey(k)), keyFilePerm); err != nil {
		return gperrors.KeyWrap(err, op, "failed to write migrated key")
	}
	return nil
}

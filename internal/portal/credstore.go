package portal

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// CredentialStore persists the established identity between runs.  Load
// reports (identity, found, error); a missing record is not an error.
type CredentialStore interface {
	Load() (Identity, bool, error)
	Save(Identity) error
	Clear() error
}

// FileStore keeps the identity in a single JSON file, written atomically
// with 0600 permissions since it contains a bearer token.
type FileStore struct {
	path string
}

// NewFileStore returns a store backed by the given file path.  The parent
// directory is created on the first Save.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Load() (Identity, bool, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Identity{}, false, nil
		}
		return Identity{}, false, err
	}
	var id Identity
	if err := json.Unmarshal(data, &id); err != nil {
		// A corrupt file is treated as absent; the next Save overwrites it.
		return Identity{}, false, nil
	}
	return id, true, nil
}

func (s *FileStore) Save(id Identity) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	data, err := json.Marshal(id)
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

func (s *FileStore) Clear() error {
	err := os.Remove(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// MemoryStore is an in-process CredentialStore for tests.
type MemoryStore struct {
	mu    sync.Mutex
	id    Identity
	found bool
}

func (s *MemoryStore) Load() (Identity, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id, s.found, nil
}

func (s *MemoryStore) Save(id Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.id, s.found = id, true
	return nil
}

func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.id, s.found = Identity{}, false
	return nil
}

// Package token persists the session credential between runs.
//
// The bearer token is the only client-side state that survives a restart.
// It is stored as a small JSON file under the user's blogctl directory,
// readable only by the owning user. The contents are opaque: no validation
// happens here, a stale or forged token is simply rejected by the backend.
package token

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/schoolblog/blogctl/internal/errors"
)

const (
	dirName  = ".blogctl"
	fileName = "credentials.json"
)

// Credentials holds the persisted session credential
type Credentials struct {
	Token string `json:"token"`
	Email string `json:"email"`
}

// Store reads and writes the credentials file.
type Store struct {
	path string
}

// NewStore creates a store rooted in the user's home directory
func NewStore() (*Store, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, errors.Wrap(errors.KindUnknown, errors.CodeTokenReadFailed, "cannot resolve home directory", err)
	}
	return NewStoreAt(filepath.Join(home, dirName, fileName)), nil
}

// NewStoreAt creates a store backed by an explicit file path
func NewStoreAt(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file path
func (s *Store) Path() string {
	return s.path
}

// Save writes the credentials, creating the directory if needed.
// The file is written with 0600 so other users cannot read the token.
func (s *Store) Save(creds Credentials) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return errors.Wrap(errors.KindUnknown, errors.CodeTokenWriteFailed, "cannot create credentials directory", err)
	}

	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return errors.Wrap(errors.KindUnknown, errors.CodeTokenWriteFailed, "cannot encode credentials", err)
	}

	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return errors.Wrap(errors.KindUnknown, errors.CodeTokenWriteFailed, "cannot write credentials file", err)
	}
	return nil
}

// Load reads the stored credentials.
// A missing file means the user is not logged in and maps to a
// not-found error rather than a failure.
func (s *Store) Load() (Credentials, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Credentials{}, errors.New(errors.KindNotFound, errors.CodeTokenNotFound, "not logged in")
		}
		return Credentials{}, errors.Wrap(errors.KindUnknown, errors.CodeTokenReadFailed, "cannot read credentials file", err)
	}

	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return Credentials{}, errors.Wrap(errors.KindUnknown, errors.CodeTokenReadFailed, "credentials file is corrupt", err)
	}

	if creds.Token == "" {
		return Credentials{}, errors.New(errors.KindNotFound, errors.CodeTokenNotFound, "not logged in")
	}
	return creds, nil
}

// Clear removes the stored credentials. Clearing an absent file is a no-op.
func (s *Store) Clear() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(errors.KindUnknown, errors.CodeTokenWriteFailed, "cannot remove credentials file", err)
	}
	return nil
}

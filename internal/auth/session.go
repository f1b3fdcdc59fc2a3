package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/fivetwenty-io/fleet-client/internal/constants"
)

// Session is the credential state persisted between invocations. Exactly one
// of Token and APIKey is expected to be set.
type Session struct {
	Token  string `yaml:"token,omitempty"`
	APIKey string `yaml:"api_key,omitempty"`
}

// Empty reports whether the session carries no credential.
func (s *Session) Empty() bool {
	return s == nil || (s.Token == "" && s.APIKey == "")
}

// Store reads and writes the session file. Writes go through a temp file and
// rename, so concurrent writers cannot interleave and readers never observe a
// partial file; the last writer wins. A file that fails to parse is treated
// as no session rather than an error, matching how a logged-out state looks.
type Store struct {
	path string
	mu   sync.Mutex
}

// NewStore creates a store rooted at the given data directory.
func NewStore(dir string) *Store {
	return &Store{path: filepath.Join(dir, constants.SessionFileName)}
}

// DefaultDataDir returns the per-user data directory.
func DefaultDataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}

	return filepath.Join(home, constants.DefaultDataDirectoryName), nil
}

// Path returns the session file location.
func (s *Store) Path() string {
	return s.path
}

// Load reads the persisted session. A missing or unparseable file yields
// (nil, nil).
func (s *Store) Load() (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("reading session file: %w", err)
	}

	var session Session

	err = yaml.Unmarshal(data, &session)
	if err != nil || session.Empty() {
		return nil, nil
	}

	return &session, nil
}

// Save atomically replaces the session file. The file is created with owner
// only permissions since it holds a credential.
func (s *Store) Save(session *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := yaml.Marshal(session)
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}

	dir := filepath.Dir(s.path)

	err = os.MkdirAll(dir, constants.DataDirPerm)
	if err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".session-*.yml")
	if err != nil {
		return fmt.Errorf("creating temp session file: %w", err)
	}

	_, writeErr := tmp.Write(data)

	closeErr := tmp.Close()

	if writeErr != nil || closeErr != nil {
		_ = os.Remove(tmp.Name())

		if writeErr != nil {
			return fmt.Errorf("writing session file: %w", writeErr)
		}

		return fmt.Errorf("writing session file: %w", closeErr)
	}

	err = os.Chmod(tmp.Name(), constants.DataFilePerm)
	if err != nil {
		_ = os.Remove(tmp.Name())

		return fmt.Errorf("setting session file permissions: %w", err)
	}

	err = os.Rename(tmp.Name(), s.path)
	if err != nil {
		_ = os.Remove(tmp.Name())

		return fmt.Errorf("replacing session file: %w", err)
	}

	return nil
}

// Clear removes the session file. A missing file is not an error.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing session file: %w", err)
	}

	return nil
}

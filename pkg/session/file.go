package session

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/matzehuels/pixelforge/pkg/errors"
)

// FileStore is a file-based session store for CLI applications.
// Sessions are stored as JSON files in a config directory.
type FileStore struct {
	mu      sync.RWMutex
	baseDir string
}

// DefaultDir returns ~/.config/pixelforge, honouring XDG_CONFIG_HOME.
func DefaultDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeIO, err, "locate config dir")
	}
	return filepath.Join(dir, "pixelforge"), nil
}

// NewFileStore creates a new file-based session store.
// If baseDir is empty, defaults to [DefaultDir].
func NewFileStore(baseDir string) (*FileStore, error) {
	if baseDir == "" {
		dir, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		baseDir = dir
	}
	if err := os.MkdirAll(baseDir, 0o700); err != nil {
		return nil, errors.Wrap(errors.ErrCodeIO, err, "create session dir")
	}
	return &FileStore{baseDir: baseDir}, nil
}

func (s *FileStore) sessionPath(sessionID string) string {
	return filepath.Join(s.baseDir, sessionID+".json")
}

func (s *FileStore) Get(ctx context.Context, sessionID string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	path := s.sessionPath(sessionID)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrap(errors.ErrCodeIO, err, "read session file")
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, errors.Wrap(errors.ErrCodeDecode, err, "parse session %s", path)
	}
	if sess.IsExpired() {
		os.Remove(path)
		return nil, nil
	}
	return &sess, nil
}

func (s *FileStore) Set(ctx context.Context, sess Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "marshal session")
	}
	if err := os.WriteFile(s.sessionPath(sess.ID), data, 0o600); err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "write session file")
	}
	return nil
}

func (s *FileStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.sessionPath(sessionID)); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(errors.ErrCodeIO, err, "remove session file")
	}
	return nil
}

// Path returns the base directory for session files.
func (s *FileStore) Path() string {
	return s.baseDir
}

var _ Store = (*FileStore)(nil)

// =============================================================================
// CLI convenience wrapper
// =============================================================================

const latestSessionID = "session"

// CLIStore keeps the single latest session in session.json.
type CLIStore struct {
	store *FileStore
}

// NewCLIStore creates a store under dir, or [DefaultDir] when dir is empty.
func NewCLIStore(dir string) (*CLIStore, error) {
	store, err := NewFileStore(dir)
	if err != nil {
		return nil, err
	}
	return &CLIStore{store: store}, nil
}

// Latest returns the stored session, or a fresh one if none exists.
func (c *CLIStore) Latest(ctx context.Context) (Session, error) {
	sess, err := c.store.Get(ctx, latestSessionID)
	if err != nil {
		return Session{}, err
	}
	if sess == nil {
		return New(), nil
	}
	return *sess, nil
}

// Save stores sess as the latest session.
func (c *CLIStore) Save(ctx context.Context, sess Session) error {
	sess.ID = latestSessionID
	return c.store.Set(ctx, sess)
}

// Clear removes the latest session.
func (c *CLIStore) Clear(ctx context.Context) error {
	return c.store.Delete(ctx, latestSessionID)
}

// Path returns the session file path.
func (c *CLIStore) Path() string {
	return c.store.sessionPath(latestSessionID)
}

package blob

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/matzehuels/pixelforge/pkg/errors"
)

// FileStore keeps blobs as files below a root directory.
type FileStore struct {
	mu      sync.RWMutex
	root    string
	baseURL string
}

// NewFileStore creates a store rooted at dir. When baseURL is empty, Put
// returns file:// URLs.
func NewFileStore(dir, baseURL string) (*FileStore, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeIO, err, "resolve blob dir %s", dir)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeIO, err, "create blob dir %s", abs)
	}
	return &FileStore{root: abs, baseURL: baseURL}, nil
}

// Root returns the store directory.
func (s *FileStore) Root() string { return s.root }

func (s *FileStore) Put(_ context.Context, name string, data []byte) (string, error) {
	if err := errors.ValidateBlobName(name); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.path(name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", errors.Wrap(errors.ErrCodeIO, err, "create blob dir")
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".put-*")
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeIO, err, "create temp blob")
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", errors.Wrap(errors.ErrCodeIO, err, "write blob %s", name)
	}
	if err := tmp.Close(); err != nil {
		return "", errors.Wrap(errors.ErrCodeIO, err, "write blob %s", name)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", errors.Wrap(errors.ErrCodeIO, err, "store blob %s", name)
	}
	return s.url(name), nil
}

func (s *FileStore) Get(_ context.Context, name string) ([]byte, bool, error) {
	if err := errors.ValidateBlobName(name); err != nil {
		return nil, false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.path(name))
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(errors.ErrCodeIO, err, "read blob %s", name)
	}
	return data, true, nil
}

func (s *FileStore) List(_ context.Context, prefix string) ([]Info, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var infos []Info
	err := filepath.WalkDir(s.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".put-") {
			return nil
		}
		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(rel)
		if !strings.HasPrefix(name, prefix) {
			return nil
		}
		fi, err := d.Info()
		if err != nil {
			return err
		}
		infos = append(infos, Info{
			Name:        name,
			Size:        fi.Size(),
			ContentType: ContentType(name),
			UpdatedAt:   fi.ModTime(),
			URL:         s.url(name),
		})
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeIO, err, "list blobs")
	}
	slices.SortFunc(infos, func(a, b Info) int { return strings.Compare(a.Name, b.Name) })
	return infos, nil
}

func (s *FileStore) Delete(_ context.Context, name string) (bool, error) {
	if err := errors.ValidateBlobName(name); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path(name))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrap(errors.ErrCodeIO, err, "delete blob %s", name)
	}
	return true, nil
}

func (s *FileStore) Close() error { return nil }

func (s *FileStore) path(name string) string {
	return filepath.Join(s.root, filepath.FromSlash(name))
}

func (s *FileStore) url(name string) string {
	if s.baseURL == "" {
		return "file://" + filepath.ToSlash(s.path(name))
	}
	return publicURL(s.baseURL, name)
}

var _ Store = (*FileStore)(nil)

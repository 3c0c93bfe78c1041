package cli

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/matzehuels/pixelforge/pkg/blob"
)

func TestXDGDirs(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	tests := []struct {
		name string
		env  string
		fn   func() (string, error)
		sub  []string // default location under $HOME
	}{
		{"cache", "XDG_CACHE_HOME", cacheDir, []string{".cache"}},
		{"data", "XDG_DATA_HOME", dataDir, []string{".local", "share"}},
	}
	for _, tt := range tests {
		t.Run(tt.name+" default", func(t *testing.T) {
			t.Setenv(tt.env, "")
			dir, err := tt.fn()
			if err != nil {
				t.Fatal(err)
			}
			want := filepath.Join(append(append([]string{home}, tt.sub...), appName)...)
			if dir != want {
				t.Errorf("dir = %q, want %q", dir, want)
			}
		})
		t.Run(tt.name+" xdg", func(t *testing.T) {
			custom := t.TempDir()
			t.Setenv(tt.env, custom)
			dir, err := tt.fn()
			if err != nil {
				t.Fatal(err)
			}
			if want := filepath.Join(custom, appName); dir != want {
				t.Errorf("dir = %q, want %q", dir, want)
			}
		})
	}
}

func TestConfiguredCacheDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	c := New(io.Discard, LogInfo)

	def, err := c.cacheDir()
	if err != nil {
		t.Fatal(err)
	}
	if want, _ := cacheDir(); def != want {
		t.Errorf("cacheDir() = %q, want XDG default %q", def, want)
	}

	c.Config.Cache.Dir = filepath.Join(t.TempDir(), "custom")
	if got, _ := c.cacheDir(); got != c.Config.Cache.Dir {
		t.Errorf("cacheDir() = %q, want configured %q", got, c.Config.Cache.Dir)
	}
}

func TestSessionFileLocation(t *testing.T) {
	cfg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", cfg)
	c := New(io.Discard, LogInfo)

	store, err := c.newSessionStore()
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(cfg, appName, "session.json"); store.Path() != want {
		t.Errorf("session path = %q, want %q", store.Path(), want)
	}
}

func TestBlobStoreRoot(t *testing.T) {
	data := t.TempDir()
	t.Setenv("XDG_DATA_HOME", data)
	c := New(io.Discard, LogInfo)
	ctx := context.Background()

	tests := []struct {
		name string
		dir  string
		want string
	}{
		{"default", "", filepath.Join(data, appName, "blobs")},
		{"configured", filepath.Join(data, "mine"), filepath.Join(data, "mine")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c.Config.Store.Dir = tt.dir
			store, err := c.newBlobStore(ctx)
			if err != nil {
				t.Fatal(err)
			}
			defer store.Close()

			fs, ok := store.(*blob.FileStore)
			if !ok {
				t.Fatalf("store = %T, want *blob.FileStore", store)
			}
			if fs.Root() != tt.want {
				t.Errorf("Root() = %q, want %q", fs.Root(), tt.want)
			}
		})
	}
}

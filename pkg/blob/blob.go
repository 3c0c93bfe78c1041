// Package blob stores generated images and vector documents by name.
//
// A [Store] keeps opaque byte blobs under slash-separated names such as
// "sessions/7f3c.../editable.png". Writing an existing name overwrites it.
// Every stored blob is addressable by a URL returned from [Store.Put]; for
// the file and Redis backends that URL points at the pixelforge HTTP server
// (GET /blobs/{name}) when a base URL is configured.
//
// Backends:
//   - [FileStore]: a directory on local disk
//   - [RedisStore]: Redis strings plus a sorted-set index
//   - [MongoStore]: a MongoDB GridFS bucket
package blob

import (
	"context"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Store is a named blob store.
type Store interface {
	// Put stores data under name, replacing any previous blob, and returns
	// the blob's URL.
	Put(ctx context.Context, name string, data []byte) (string, error)
	// Get returns the blob. The second result is false when name is unknown.
	Get(ctx context.Context, name string) ([]byte, bool, error)
	// List returns the blobs whose names start with prefix, sorted by name.
	List(ctx context.Context, prefix string) ([]Info, error)
	// Delete removes the blob and reports whether it existed.
	Delete(ctx context.Context, name string) (bool, error)
	// Close releases backend resources.
	Close() error
}

// Info describes a stored blob.
type Info struct {
	Name        string    `json:"name"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type"`
	UpdatedAt   time.Time `json:"updated_at"`
	URL         string    `json:"url,omitempty"`
}

// NewName returns a fresh name "<prefix>/<uuid><ext>". An empty prefix
// yields "<uuid><ext>".
func NewName(prefix, ext string) string {
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	name := uuid.NewString() + ext
	if prefix = strings.Trim(prefix, "/"); prefix != "" {
		return prefix + "/" + name
	}
	return name
}

var contentTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
	".svg":  "image/svg+xml",
	".json": "application/json",
}

// ContentType guesses the MIME type of a blob from its name.
func ContentType(name string) string {
	if ct, ok := contentTypes[strings.ToLower(path.Ext(name))]; ok {
		return ct
	}
	return "application/octet-stream"
}

// publicURL joins baseURL and the served path of name. An empty base
// yields the bare path.
func publicURL(baseURL, name string) string {
	segs := strings.Split(name, "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return strings.TrimSuffix(baseURL, "/") + "/blobs/" + strings.Join(segs, "/")
}

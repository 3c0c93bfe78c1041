package blob

import (
	"context"
	"regexp"
	"strings"
	"testing"

	"github.com/matzehuels/pixelforge/pkg/errors"
)

func TestNewName(t *testing.T) {
	uuidRe := `[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}`
	tests := []struct {
		prefix, ext string
		pattern     string
	}{
		{"sessions/abc", ".png", `^sessions/abc/` + uuidRe + `\.png$`},
		{"/gen/", "svg", `^gen/` + uuidRe + `\.svg$`},
		{"", "", `^` + uuidRe + `$`},
	}
	for _, tt := range tests {
		name := NewName(tt.prefix, tt.ext)
		if !regexp.MustCompile(tt.pattern).MatchString(name) {
			t.Errorf("NewName(%q, %q) = %q", tt.prefix, tt.ext, name)
		}
		if err := errors.ValidateBlobName(name); err != nil {
			t.Errorf("generated name %q fails validation: %v", name, err)
		}
	}
	if NewName("a", ".png") == NewName("a", ".png") {
		t.Error("NewName should be unique")
	}
}

func TestContentType(t *testing.T) {
	tests := map[string]string{
		"a/b.png":  "image/png",
		"x.SVG":    "image/svg+xml",
		"r.json":   "application/json",
		"r.jpeg":   "image/jpeg",
		"noext":    "application/octet-stream",
		"file.bin": "application/octet-stream",
	}
	for name, want := range tests {
		if got := ContentType(name); got != want {
			t.Errorf("ContentType(%q) = %q, want %q", name, got, want)
		}
	}
}

func TestPublicURL(t *testing.T) {
	if got := publicURL("http://localhost:8080/", "a b/c.png"); got != "http://localhost:8080/blobs/a%20b/c.png" {
		t.Errorf("publicURL = %q", got)
	}
	if got := publicURL("", "c.png"); got != "/blobs/c.png" {
		t.Errorf("publicURL with empty base = %q", got)
	}
}

func TestFileStore(t *testing.T) {
	ctx := context.Background()
	s, err := NewFileStore(t.TempDir(), "http://localhost:8080")
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	defer s.Close()

	url, err := s.Put(ctx, "sessions/1/out.svg", []byte("<svg/>"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if url != "http://localhost:8080/blobs/sessions/1/out.svg" {
		t.Errorf("url = %q", url)
	}

	data, ok, err := s.Get(ctx, "sessions/1/out.svg")
	if err != nil || !ok || string(data) != "<svg/>" {
		t.Errorf("Get = %q, %v, %v", data, ok, err)
	}

	if _, err := s.Put(ctx, "sessions/1/out.svg", []byte("<svg></svg>")); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	data, _, _ = s.Get(ctx, "sessions/1/out.svg")
	if string(data) != "<svg></svg>" {
		t.Errorf("after overwrite = %q", data)
	}

	if _, ok, err := s.Get(ctx, "nope.png"); ok || err != nil {
		t.Errorf("missing Get = %v, %v", ok, err)
	}
}

func TestFileStoreList(t *testing.T) {
	ctx := context.Background()
	s, _ := NewFileStore(t.TempDir(), "")

	for _, name := range []string{"b/2.png", "a/1.png", "b/1.json", "c.svg"} {
		if _, err := s.Put(ctx, name, []byte(name)); err != nil {
			t.Fatalf("Put %s: %v", name, err)
		}
	}

	all, err := s.List(ctx, "")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	var names []string
	for _, i := range all {
		names = append(names, i.Name)
	}
	if strings.Join(names, ",") != "a/1.png,b/1.json,b/2.png,c.svg" {
		t.Errorf("List names = %v", names)
	}

	b, _ := s.List(ctx, "b/")
	if len(b) != 2 || b[0].ContentType != "application/json" || b[1].Size != int64(len("b/2.png")) {
		t.Errorf("List(b/) = %+v", b)
	}
	if !strings.HasPrefix(b[0].URL, "file://") {
		t.Errorf("URL without base = %q", b[0].URL)
	}
}

func TestFileStoreDelete(t *testing.T) {
	ctx := context.Background()
	s, _ := NewFileStore(t.TempDir(), "")
	s.Put(ctx, "x.png", []byte("x"))

	existed, err := s.Delete(ctx, "x.png")
	if err != nil || !existed {
		t.Errorf("Delete = %v, %v", existed, err)
	}
	existed, err = s.Delete(ctx, "x.png")
	if err != nil || existed {
		t.Errorf("second Delete = %v, %v", existed, err)
	}
}

func TestFileStoreRejectsUnsafeNames(t *testing.T) {
	ctx := context.Background()
	s, _ := NewFileStore(t.TempDir(), "")

	for _, name := range []string{"", "../escape.png", "/abs.png", `a\b.png`, "a//b"} {
		if _, err := s.Put(ctx, name, []byte("x")); !errors.Is(err, errors.ErrCodeInvalidName) {
			t.Errorf("Put(%q) err = %v, want INVALID_NAME", name, err)
		}
		if _, _, err := s.Get(ctx, name); !errors.Is(err, errors.ErrCodeInvalidName) {
			t.Errorf("Get(%q) err = %v, want INVALID_NAME", name, err)
		}
	}
}

package buildinfo

import (
	"strings"
	"testing"
)

func TestResolvePrefersLdflags(t *testing.T) {
	old := Version
	t.Cleanup(func() { Version = old })

	Version = "v1.2.3"
	if got := Resolve(); got != "v1.2.3" {
		t.Errorf("Resolve() = %q, want v1.2.3", got)
	}
	if got := UserAgent(); got != "pixelforge/v1.2.3" {
		t.Errorf("UserAgent() = %q", got)
	}
}

func TestStringAndTemplate(t *testing.T) {
	if s := String(); !strings.Contains(s, "commit: "+Commit) {
		t.Errorf("String() = %q", s)
	}
	if tmpl := Template(); !strings.HasPrefix(tmpl, "{{.Name}} version ") {
		t.Errorf("Template() = %q", tmpl)
	}
}

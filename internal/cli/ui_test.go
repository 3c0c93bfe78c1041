package cli

import (
	"bytes"
	"slices"
	"strings"
	"testing"

	"github.com/matzehuels/pixelforge/pkg/vector"
)

// captureOutput redirects status output to a buffer for the test.
func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := out
	out = &buf
	t.Cleanup(func() { out = prev })
	return &buf
}

func TestPrintStats(t *testing.T) {
	tests := []struct {
		name    string
		stats   gridStats
		want    []string
		notWant []string
	}{
		{
			name:  "fresh estimate",
			stats: gridStats{BlockSize: 16, Source: "estimated", Rows: 6, Blocks: 40, Width: 8, Height: 6},
			want:  []string{"16px", "blocks (estimated)", "8x6 canvas", "6 rows", "40 blocks", "fresh"},
		},
		{
			name:    "cached without grid",
			stats:   gridStats{BlockSize: 8, Source: "explicit", Cached: true},
			want:    []string{"8px", "blocks (explicit)", "cached"},
			notWant: []string{"canvas", "rows", "fresh"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := captureOutput(t)
			printStats(tt.stats)
			for _, w := range tt.want {
				if !strings.Contains(buf.String(), w) {
					t.Errorf("output %q missing %q", buf.String(), w)
				}
			}
			for _, w := range tt.notWant {
				if strings.Contains(buf.String(), w) {
					t.Errorf("output %q should not contain %q", buf.String(), w)
				}
			}
		})
	}
}

func TestPalette(t *testing.T) {
	v := &vector.Image{Width: 3, Height: 2, Rects: []vector.Rect{
		{X: 0, Y: 0, W: 1, H: 1, Fill: "#00FF00", Opacity: 1},
		{X: 1, Y: 0, W: 1, H: 1, Fill: "#FF0000", Opacity: 1},
		{X: 2, Y: 0, W: 1, H: 1, Fill: "#00FF00", Opacity: 1},
		{X: 0, Y: 1, W: 1, H: 1, Fill: "#0000FF", Opacity: 1},
	}}

	got := palette(v)
	want := []paletteEntry{{"#00FF00", 2}, {"#0000FF", 1}, {"#FF0000", 1}}
	if !slices.Equal(got, want) {
		t.Errorf("palette = %v, want %v", got, want)
	}

	buf := captureOutput(t)
	printPalette(v, 2)
	for _, w := range []string{"#00FF00×2", "#0000FF×1", "+1 more"} {
		if !strings.Contains(buf.String(), w) {
			t.Errorf("output %q missing %q", buf.String(), w)
		}
	}
	if strings.Contains(buf.String(), "#FF0000") {
		t.Errorf("output %q exceeds the limit", buf.String())
	}
}

func TestPrintPaletteEmpty(t *testing.T) {
	buf := captureOutput(t)
	printPalette(&vector.Image{Width: 1, Height: 1}, 4)
	if buf.Len() != 0 {
		t.Errorf("output = %q, want nothing", buf.String())
	}
}

func TestStatusLines(t *testing.T) {
	buf := captureOutput(t)
	printSuccess("Converted %s", "fox.png")
	printWarning("Skipped %d malformed rects", 2)
	printFile("fox_perfect_16px.svg")
	printKeyValue("seed", "42")
	printNextStep("Materialize rasters", "pixelforge materialize fox_perfect_16px.svg")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 5 {
		t.Fatalf("lines = %d, want 5: %q", len(lines), buf.String())
	}
	checks := []struct {
		line int
		want string
	}{
		{0, "Converted fox.png"},
		{1, "Skipped 2 malformed rects"},
		{2, "fox_perfect_16px.svg"},
		{3, "seed"},
		{4, "pixelforge materialize fox_perfect_16px.svg"},
	}
	for _, c := range checks {
		if !strings.Contains(lines[c.line], c.want) {
			t.Errorf("line %d = %q, want it to contain %q", c.line, lines[c.line], c.want)
		}
	}
}

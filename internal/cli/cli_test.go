package cli

import (
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/pixelforge/pkg/config"
	"github.com/matzehuels/pixelforge/pkg/estimate"
	"github.com/matzehuels/pixelforge/pkg/pipeline"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestParseFormats(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", []string{"svg"}},
		{"png", []string{"png"}},
		{"svg, json ,editable", []string{"svg", "json", "editable"}},
		{"svg,,png", []string{"svg", "png"}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := parseFormats(tt.in); !slices.Equal(got, tt.want) {
				t.Errorf("parseFormats(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		base   string
		format string
		multi  bool
		want   string
	}{
		{"derived svg", "art/fox.png", "", pipeline.FormatSVG, false, "art/fox_perfect_16px.svg"},
		{"derived json", "fox.png", "", pipeline.FormatJSON, true, "fox_perfect_16px.json"},
		{"derived raster", "fox.png", "", pipeline.FormatPNG, true, "fox_perfect_16px_rasterized.png"},
		{"derived editable", "fox.png", "", pipeline.FormatEditable, true, "fox_perfect_16px_editable.png"},
		{"single explicit", "fox.png", "out.svg", pipeline.FormatSVG, false, "out.svg"},
		{"multi base", "fox.png", "out/grid.svg", pipeline.FormatEditable, true, "out/grid_editable.png"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := outputPath(tt.input, tt.base, tt.format, 16, tt.multi); got != tt.want {
				t.Errorf("outputPath() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPipelineOptions(t *testing.T) {
	c := New(io.Discard, LogInfo)

	t.Run("default block size stays unset", func(t *testing.T) {
		opts := c.pipelineOptions("in/fox.png", convertOpts{threshold: 100})
		if opts.BlockSize != 0 || opts.Source != "fox.png" || *opts.Threshold != 100 {
			t.Errorf("opts = %+v", opts)
		}
	})

	t.Run("configured block size is explicit", func(t *testing.T) {
		c.Config.BlockSize = 24
		defer func() { c.Config.BlockSize = config.DefaultBlockSize }()
		if opts := c.pipelineOptions("fox.png", convertOpts{}); opts.BlockSize != 24 {
			t.Errorf("BlockSize = %d, want 24", opts.BlockSize)
		}
		if opts := c.pipelineOptions("fox.png", convertOpts{auto: true}); opts.BlockSize != 0 {
			t.Errorf("auto BlockSize = %d, want 0", opts.BlockSize)
		}
	})
}

func TestResultName(t *testing.T) {
	day := time.Date(2025, 3, 9, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		id   string
		want string
	}{
		{"abcdef", "20250309_abcd_image.png"},
		{"ab", "20250309_ab_image.png"},
		{"", "20250309_0000_image.png"},
	}
	for _, tt := range tests {
		if got := resultName(day, tt.id, "image"); got != tt.want {
			t.Errorf("resultName(%q) = %q, want %q", tt.id, got, tt.want)
		}
	}
}

func TestFormatSize(t *testing.T) {
	tests := map[int64]string{
		0:       "0 B",
		1023:    "1023 B",
		1024:    "1.0 KiB",
		1536:    "1.5 KiB",
		5 << 20: "5.0 MiB",
	}
	for n, want := range tests {
		if got := formatSize(n); got != want {
			t.Errorf("formatSize(%d) = %q, want %q", n, got, want)
		}
	}
}

func TestBlockSizePicker(t *testing.T) {
	est := &estimate.Estimate{
		BlockSize: 16,
		Scores: []estimate.Score{
			{BlockSize: 8, Combined: 0.2},
			{BlockSize: 16, Combined: 0.9},
			{BlockSize: 32, Combined: 0.5},
		},
	}
	key := func(s string) tea.KeyMsg {
		switch s {
		case "down":
			return tea.KeyMsg{Type: tea.KeyDown}
		case "enter":
			return tea.KeyMsg{Type: tea.KeyEnter}
		}
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}

	t.Run("enter keeps winner", func(t *testing.T) {
		var m tea.Model = NewBlockSizePickerModel(est)
		m, _ = m.Update(key("enter"))
		if got := m.(BlockSizePickerModel).Selected; got != 16 {
			t.Errorf("Selected = %d, want 16", got)
		}
	})

	t.Run("move then select", func(t *testing.T) {
		var m tea.Model = NewBlockSizePickerModel(est)
		m, _ = m.Update(key("down"))
		m, _ = m.Update(key("enter"))
		if got := m.(BlockSizePickerModel).Selected; got != 32 {
			t.Errorf("Selected = %d, want 32 (second best)", got)
		}
	})

	t.Run("cursor is bounded", func(t *testing.T) {
		var m tea.Model = NewBlockSizePickerModel(est)
		for range 5 {
			m, _ = m.Update(key("j"))
		}
		m, _ = m.Update(key("k"))
		if got := m.(BlockSizePickerModel).Cursor; got != 1 {
			t.Errorf("Cursor = %d, want 1", got)
		}
	})

	t.Run("quit selects nothing", func(t *testing.T) {
		var m tea.Model = NewBlockSizePickerModel(est)
		m, cmd := m.Update(key("q"))
		if m.(BlockSizePickerModel).Selected != 0 || cmd == nil {
			t.Error("q should quit without a selection")
		}
	})

	t.Run("view lists candidates", func(t *testing.T) {
		view := NewBlockSizePickerModel(est).View()
		for _, s := range []string{"8px", "16px", "32px"} {
			if !strings.Contains(view, s) {
				t.Errorf("view missing %q", s)
			}
		}
	})
}

func TestRenderScoreTable(t *testing.T) {
	est := &estimate.Estimate{BlockSize: 8, Scores: []estimate.Score{{BlockSize: 8, Combined: 1}}}
	if out := renderScoreTable(est); !strings.Contains(out, "8px "+iconSuccess) {
		t.Errorf("table does not mark the winner:\n%s", out)
	}
}

func TestMaterializeCommandWritesRasters(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	svg := filepath.Join(dir, "grid.svg")
	writeFile(t, svg, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 2 1"><rect x="0" y="0" width="1" height="1" fill="#FF0000"/></svg>`)

	cfg := filepath.Join(dir, "config.toml")
	writeFile(t, cfg, "")

	root := New(io.Discard, LogInfo).RootCommand()
	root.SetOut(io.Discard)
	root.SetArgs([]string{"--config", cfg, "materialize", svg})
	if err := root.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	for _, name := range []string{"grid_editable.png", "grid_rasterized.png"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("%s not written: %v", name, err)
		}
	}
}

package cli

import (
	"cmp"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/pixelforge/pkg/vector"
)

// out receives all status output. Tests swap it for a buffer.
var out io.Writer = os.Stdout

// =============================================================================
// Palette
// =============================================================================

var (
	colorAccent = lipgloss.Color("36")  // block sizes, spinner
	colorOK     = lipgloss.Color("35")  // success, cache hits, chosen size
	colorWarn   = lipgloss.Color("220") // warnings
	colorFail   = lipgloss.Color("167") // errors
	colorLink   = lipgloss.Color("75")  // blob URLs, commands
	colorValue  = lipgloss.Color("255") // paths and values
	colorMuted  = lipgloss.Color("245") // labels, table cells
	colorFaint  = lipgloss.Color("240") // borders, details
)

var (
	// StyleTitle renders headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)

	// StyleLink renders blob URLs.
	StyleLink = lipgloss.NewStyle().Foreground(colorLink).Underline(true)

	// StyleDim renders secondary text.
	StyleDim = lipgloss.NewStyle().Foreground(colorFaint)

	// StyleNumber renders block sizes and counts.
	StyleNumber = lipgloss.NewStyle().Foreground(colorAccent)

	styleValue       = lipgloss.NewStyle().Foreground(colorValue)
	styleLabel       = lipgloss.NewStyle().Foreground(colorMuted).Width(12)
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorOK)
	styleIconError   = lipgloss.NewStyle().Foreground(colorFail)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorWarn)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorMuted)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorAccent)
	styleCached      = lipgloss.NewStyle().Foreground(colorOK)
	styleCommand     = lipgloss.NewStyle().Foreground(colorLink)
)

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
	swatchBlock = "██"
)

// =============================================================================
// Status lines
// =============================================================================

func printLine(icon, msg string) {
	fmt.Fprintln(out, icon+" "+msg)
}

func printSuccess(format string, args ...any) {
	printLine(styleIconSuccess.Render(iconSuccess), fmt.Sprintf(format, args...))
}

func printError(format string, args ...any) {
	printLine(styleIconError.Render(iconError), fmt.Sprintf(format, args...))
}

func printWarning(format string, args ...any) {
	printLine(styleIconWarning.Render(iconWarning), styleIconWarning.Render(fmt.Sprintf(format, args...)))
}

func printInfo(format string, args ...any) {
	printLine(styleIconInfo.Render(iconInfo), fmt.Sprintf(format, args...))
}

// printDetail prints an indented secondary line.
func printDetail(format string, args ...any) {
	fmt.Fprintln(out, "  "+StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile prints a written artifact path.
func printFile(path string) {
	fmt.Fprintln(out, "  "+StyleDim.Render(iconArrow)+" "+styleValue.Render(path))
}

func printKeyValue(key, value string) {
	fmt.Fprintln(out, styleLabel.Render(key)+" "+styleValue.Render(value))
}

// printNextStep suggests the command that usually follows.
func printNextStep(description, cmd string) {
	fmt.Fprintln(out, StyleDim.Render(description+":")+" "+styleCommand.Render(cmd))
}

// =============================================================================
// Grid summaries
// =============================================================================

// gridStats is the one-line summary printed after a conversion.
type gridStats struct {
	BlockSize     int
	Source        string // explicit, estimated or default
	Rows, Blocks  int
	Width, Height int // canvas in blocks
	Cached        bool
}

// printStats prints s as "16px blocks (estimated) · 8x6 canvas · 6 rows · 40 blocks · fresh".
func printStats(s gridStats) {
	parts := []string{
		StyleNumber.Render(fmt.Sprintf("%dpx", s.BlockSize)) + StyleDim.Render(" blocks ("+s.Source+")"),
	}
	if s.Width > 0 && s.Height > 0 {
		parts = append(parts, StyleDim.Render(fmt.Sprintf("%dx%d canvas", s.Width, s.Height)))
	}
	if s.Rows > 0 {
		parts = append(parts, StyleDim.Render(fmt.Sprintf("%d rows", s.Rows)))
	}
	if s.Blocks > 0 {
		parts = append(parts, StyleDim.Render(fmt.Sprintf("%d blocks", s.Blocks)))
	}
	if s.Cached {
		parts = append(parts, styleCached.Render("cached"))
	} else {
		parts = append(parts, StyleDim.Render("fresh"))
	}
	fmt.Fprintln(out, "  "+strings.Join(parts, StyleDim.Render(" · ")))
}

// paletteEntry is one fill color and the number of blocks painted with it.
type paletteEntry struct {
	Fill  string
	Count int
}

// palette counts the fills of v, most used first, ties by fill.
func palette(v *vector.Image) []paletteEntry {
	counts := make(map[string]int)
	for _, r := range v.Rects {
		counts[r.Fill]++
	}
	entries := make([]paletteEntry, 0, len(counts))
	for fill, n := range counts {
		entries = append(entries, paletteEntry{fill, n})
	}
	slices.SortFunc(entries, func(a, b paletteEntry) int {
		return cmp.Or(cmp.Compare(b.Count, a.Count), cmp.Compare(a.Fill, b.Fill))
	})
	return entries
}

// printPalette shows up to limit color swatches of v with their block counts.
func printPalette(v *vector.Image, limit int) {
	entries := palette(v)
	if len(entries) == 0 {
		return
	}
	shown := entries[:min(limit, len(entries))]
	cells := make([]string, 0, len(shown)+1)
	for _, e := range shown {
		swatch := lipgloss.NewStyle().Foreground(lipgloss.Color(e.Fill)).Render(swatchBlock)
		cells = append(cells, swatch+" "+StyleDim.Render(fmt.Sprintf("%s×%d", e.Fill, e.Count)))
	}
	if rest := len(entries) - len(shown); rest > 0 {
		cells = append(cells, StyleDim.Render(fmt.Sprintf("+%d more", rest)))
	}
	fmt.Fprintln(out, "  "+strings.Join(cells, "  "))
}

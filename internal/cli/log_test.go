package cli

import (
	"bytes"
	"regexp"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestNewLoggerFiltersByLevel(t *testing.T) {
	tests := []struct {
		name  string
		level log.Level
		debug bool
		warn  bool
	}{
		{"info", LogInfo, false, true},
		{"debug", LogDebug, true, true},
		{"error", log.ErrorLevel, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := newLogger(&buf, tt.level)
			logger.Debug("candidate", "block_size", 8)
			logger.Warn("cache unavailable, continuing without")

			out := buf.String()
			if got := strings.Contains(out, "candidate"); got != tt.debug {
				t.Errorf("debug logged = %v, want %v", got, tt.debug)
			}
			if got := strings.Contains(out, "cache unavailable"); got != tt.warn {
				t.Errorf("warn logged = %v, want %v", got, tt.warn)
			}
		})
	}
}

func TestNewLoggerTimestamp(t *testing.T) {
	var buf bytes.Buffer
	newLogger(&buf, LogInfo).Info("assembled grid")

	if !regexp.MustCompile(`^\d{2}:\d{2}:\d{2}\.\d{2} `).MatchString(buf.String()) {
		t.Errorf("output %q does not start with an HH:MM:SS.ms timestamp", buf.String())
	}
}

func TestProgressDone(t *testing.T) {
	var buf bytes.Buffer
	prog := newProgress(newLogger(&buf, LogInfo))
	prog.done("Converted fox.png", "block_size", 16, "rows", 4)

	out := buf.String()
	for _, want := range []string{"Converted fox.png", "block_size=16", "rows=4", "elapsed="} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %q", out, want)
		}
	}
	if strings.Index(out, "rows=4") > strings.Index(out, "elapsed=") {
		t.Errorf("elapsed should follow caller fields: %q", out)
	}
}

func TestCLISetLogLevel(t *testing.T) {
	var buf bytes.Buffer
	c := New(&buf, LogInfo)
	c.Logger.Debug("hidden")
	c.SetLogLevel(LogDebug)
	c.Logger.Debug("shown")

	if strings.Contains(buf.String(), "hidden") {
		t.Error("debug logged before SetLogLevel")
	}
	if !strings.Contains(buf.String(), "shown") {
		t.Error("debug not logged after SetLogLevel")
	}
}

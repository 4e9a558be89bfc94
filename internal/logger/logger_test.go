package logger

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestHandler_Format(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewHandler(&buf, slog.LevelDebug))

	log.Info("block produced", "height", 3, "calls", 2)

	line := buf.String()
	if !strings.Contains(line, "[INF] block produced height=3 calls=2") {
		t.Errorf("unexpected line %q", line)
	}

	if !strings.HasSuffix(line, "\n") {
		t.Error("line should end with newline")
	}
}

func TestHandler_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewHandler(&buf, slog.LevelWarn))

	log.Info("hidden")
	log.Debug("hidden")
	log.Warn("shown")

	if strings.Contains(buf.String(), "hidden") {
		t.Errorf("records below level were written: %q", buf.String())
	}

	if !strings.Contains(buf.String(), "[WRN] shown") {
		t.Errorf("warn record missing: %q", buf.String())
	}
}

func TestHandler_WithAttrsAndGroup(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewHandler(&buf, slog.LevelInfo)).With("component", "chain").WithGroup("tx")

	log.Info("applied", "index", 1)

	if !strings.Contains(buf.String(), "component=chain tx.index=1") {
		t.Errorf("unexpected line %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"":      slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	}

	for in, want := range cases {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Errorf("ParseLevel(%q) = %v, %v; want %v", in, got, err, want)
		}
	}

	if _, err := ParseLevel("loud"); err == nil {
		t.Error("expected error for unknown level")
	}
}

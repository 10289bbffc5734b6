package log

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func newBufferedLogger(primaryLevel slog.Level) (*slog.Logger, *bytes.Buffer, *bytes.Buffer) {
	var primaryBuf, secondaryBuf bytes.Buffer
	primary := slog.NewJSONHandler(&primaryBuf, &slog.HandlerOptions{Level: primaryLevel})
	secondary := slog.NewTextHandler(&secondaryBuf, &slog.HandlerOptions{Level: slog.LevelError})
	return slog.New(NewDualHandler(primary, secondary)), &primaryBuf, &secondaryBuf
}

func TestDualHandlerMirrorsErrorsToSecondary(t *testing.T) {
	t.Cleanup(EnableErrorMirroring)
	EnableErrorMirroring()

	logger, primaryBuf, secondaryBuf := newBufferedLogger(slog.LevelInfo)

	logger.Error("boom", slog.String("foo", "bar"))
	logger.Info("still going")

	if got := primaryBuf.String(); !strings.Contains(got, "boom") || !strings.Contains(got, "still going") {
		t.Fatalf("expected primary log to contain both messages, got %q", got)
	}
	if got := secondaryBuf.String(); !strings.Contains(got, "boom") {
		t.Fatalf("expected secondary log to contain error message, got %q", got)
	}
	if got := secondaryBuf.String(); strings.Contains(got, "still going") {
		t.Fatalf("secondary log should not contain info message, got %q", got)
	}
}

func TestDualHandlerCanDisableMirroring(t *testing.T) {
	t.Cleanup(EnableErrorMirroring)
	DisableErrorMirroring()

	logger, primaryBuf, secondaryBuf := newBufferedLogger(slog.LevelInfo)

	logger.Error("boom")

	if got := primaryBuf.String(); !strings.Contains(got, "boom") {
		t.Fatalf("expected primary log to contain error message, got %q", got)
	}
	if got := secondaryBuf.String(); got != "" {
		t.Fatalf("expected secondary log to be empty when mirroring disabled, got %q", got)
	}
}

func TestDualHandlerNilPrimaryStillMirrors(t *testing.T) {
	t.Cleanup(EnableErrorMirroring)
	EnableErrorMirroring()

	var secondaryBuf bytes.Buffer
	secondary := slog.NewTextHandler(&secondaryBuf, &slog.HandlerOptions{Level: slog.LevelError})
	logger := slog.New(NewDualHandler(nil, secondary))

	logger.Error("boom")
	logger.Info("dropped")

	got := secondaryBuf.String()
	if !strings.Contains(got, "boom") {
		t.Fatalf("expected secondary log to receive errors without a primary, got %q", got)
	}
	if strings.Contains(got, "dropped") {
		t.Fatalf("info record should be dropped entirely, got %q", got)
	}
}

func TestConfigLevelStringToSlogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"trace", LevelTrace},
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelError},
	}
	for _, tt := range tests {
		if got := ConfigLevelStringToSlogLevel(tt.in); got != tt.want {
			t.Fatalf("ConfigLevelStringToSlogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

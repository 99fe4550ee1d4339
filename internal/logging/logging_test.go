package logging

import (
	"log/slog"
	"testing"
)

func TestSetupReturnsDefaultLogger(t *testing.T) {
	logger := Setup(true)
	if logger == nil {
		t.Fatal("Setup returned nil logger")
	}
	if slog.Default() != logger {
		t.Fatal("Setup did not install its logger as the slog default")
	}
	if !logger.Enabled(nil, slog.LevelDebug) {
		t.Fatal("verbose Setup should enable debug level")
	}
}

func TestSetupQuietDisablesDebug(t *testing.T) {
	logger := Setup(false)
	if logger.Enabled(nil, slog.LevelDebug) {
		t.Fatal("non-verbose Setup should not enable debug level")
	}
	if !logger.Enabled(nil, slog.LevelInfo) {
		t.Fatal("non-verbose Setup should still enable info level")
	}
}

package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestHelpers_BeforeInit(t *testing.T) {
	Logger = nil

	Info("ignored")
	Debug("ignored")
	Warn("ignored")
	Error("ignored")

	if WithPrefix("cache") == nil {
		t.Fatal("expected a discarding logger before Init")
	}
	WithPrefix("cache").Warn("ignored")
}

func TestInit_Level(t *testing.T) {
	t.Cleanup(func() { Logger = nil })

	var buf bytes.Buffer
	if err := Init("warn", &buf); err != nil {
		t.Fatalf("Init: %v", err)
	}

	Info("hidden", "method", "gk")
	Warn("shown", "method", "reasenberg")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("info message should be filtered at warn level")
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "method=reasenberg") {
		t.Errorf("expected warn message with key/value, got %q", out)
	}
}

func TestInit_BadLevel(t *testing.T) {
	t.Cleanup(func() { Logger = nil })

	if err := Init("loud", &bytes.Buffer{}); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestWithPrefix(t *testing.T) {
	t.Cleanup(func() { Logger = nil })

	var buf bytes.Buffer
	if err := Init("debug", &buf); err != nil {
		t.Fatal(err)
	}

	WithPrefix("cache").Debug("miss")
	if !strings.Contains(buf.String(), "cache") {
		t.Errorf("expected prefix in output, got %q", buf.String())
	}
}

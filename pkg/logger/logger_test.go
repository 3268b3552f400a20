package logger

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

func TestInitAndLevelString(t *testing.T) {
	Init("debug")
	if got := LevelString(); got != "debug" {
		t.Fatalf("LevelString() = %q, want %q", got, "debug")
	}
	Init("WARN")
	if got := LevelString(); got != "warn" {
		t.Fatalf("LevelString() = %q, want %q", got, "warn")
	}
	Init("Error")
	if got := LevelString(); got != "error" {
		t.Fatalf("LevelString() = %q, want %q", got, "error")
	}
	Init("nonsense")
	if got := LevelString(); got != "info" {
		t.Fatalf("LevelString() = %q, want %q for unknown input", got, "info")
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf)
	defer InitWithWriter(os.Stdout)

	Init("warn")
	defer Init("info")
	Debugf("debug-msg")
	Infof("info-msg")
	Warnf("warn-msg %d", 1)
	Errorf("error-msg")

	out := buf.String()
	if strings.Contains(out, "debug-msg") {
		t.Fatalf("debug messages should be suppressed at warn level")
	}
	if strings.Contains(out, "info-msg") {
		t.Fatalf("info messages should be suppressed at warn level")
	}
	if !strings.Contains(out, "warn-msg 1") {
		t.Fatalf("warn message missing: %q", out)
	}
	if !strings.Contains(out, "error-msg") {
		t.Fatalf("error message missing: %q", out)
	}

	buf.Reset()
	Init("info")
	Info("hello")
	if !strings.Contains(buf.String(), "hello") || !strings.Contains(buf.String(), "INFO") {
		t.Fatalf("Info expected at info level, got: %q", buf.String())
	}
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	SetFormat("json")
	InitWithWriter(&buf)
	defer func() {
		SetFormat("console")
	}()

	Init("info")
	Infof("page %s loaded", "x")
	if !strings.Contains(buf.String(), `"msg":"page x loaded"`) {
		t.Fatalf("expected json entry, got: %q", buf.String())
	}
}

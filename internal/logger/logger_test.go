package logger

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func newFileLogger(t *testing.T, maxSize int64, level Level) (*DefaultLogger, string) {
	t.Helper()
	logPath := filepath.Join(t.TempDir(), "logs", "test.log")
	l, err := NewDefaultLogger(&Config{
		LogFilePath: logPath,
		MaxFileSize: maxSize,
		MaxBackups:  3,
		Level:       level,
	})
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	return l, logPath
}

func TestNewDefaultLoggerCreatesDirectory(t *testing.T) {
	l, logPath := newFileLogger(t, 1024, LevelDebug)
	defer l.Close()

	if _, err := os.Stat(logPath); err != nil {
		t.Errorf("log file was not created: %v", err)
	}
}

func TestLogLevels(t *testing.T) {
	l, logPath := newFileLogger(t, 1024*1024, LevelDebug)

	l.Debug("debug message", String("key", "value"))
	l.Info("info message", Int("count", 42))
	l.Warn("warn message", Bool("flag", true))
	l.Error("error message", errors.New("boom"), Float64("rate", 3.5))
	l.Close()

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	text := string(content)

	for _, want := range []string{
		"[DEBUG] debug message key=value",
		"[INFO] info message count=42",
		"[WARN] warn message flag=true",
		`[ERROR] error message error=boom rate=3.5`,
	} {
		if !strings.Contains(text, want) {
			t.Errorf("log missing %q\n%s", want, text)
		}
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriterLogger(&buf, LevelWarn)

	l.Debug("hidden debug")
	l.Info("hidden info")
	l.Warn("shown warn")

	if strings.Contains(buf.String(), "hidden") {
		t.Errorf("entries below level were written: %s", buf.String())
	}
	if !strings.Contains(buf.String(), "shown warn") {
		t.Errorf("warn entry missing: %s", buf.String())
	}

	l.SetLevel(LevelDebug)
	l.Debug("now visible")
	if !strings.Contains(buf.String(), "now visible") {
		t.Error("SetLevel did not lower the threshold")
	}
}

func TestWithPrependsFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriterLogger(&buf, LevelDebug)

	child := l.With(String("doc", "abc"))
	child.Info("stage done", Int("chunks", 3))

	line := buf.String()
	if !strings.Contains(line, "stage done doc=abc chunks=3") {
		t.Errorf("unexpected entry: %q", line)
	}
}

func TestQuotedValues(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriterLogger(&buf, LevelDebug)

	l.Info("msg", String("path", "a b"), String("empty", ""))
	if !strings.Contains(buf.String(), `path="a b" empty=""`) {
		t.Errorf("values not quoted: %q", buf.String())
	}
}

func TestLogRotation(t *testing.T) {
	l, logPath := newFileLogger(t, 200, LevelDebug)

	for i := 0; i < 20; i++ {
		l.Info("rotation test message with some padding", Int("i", i))
	}
	l.Close()

	if _, err := os.Stat(logPath + ".1"); err != nil {
		t.Errorf("expected rotated backup: %v", err)
	}
	if _, err := os.Stat(logPath + ".5"); !os.IsNotExist(err) {
		t.Error("backups beyond MaxBackups should be removed")
	}
}

func TestFieldConstructors(t *testing.T) {
	tests := []struct {
		name  string
		field Field
		key   string
		value interface{}
	}{
		{"string", String("k", "v"), "k", "v"},
		{"int", Int("n", 7), "n", 7},
		{"int64", Int64("n", 9), "n", int64(9)},
		{"bool", Bool("b", true), "b", true},
		{"duration", Duration("d", 1500*time.Microsecond), "d", 2 * time.Millisecond},
		{"error", Err(errors.New("x")), "error", "x"},
		{"nil error", Err(nil), "error", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.field.Key != tt.key {
				t.Errorf("key = %q, want %q", tt.field.Key, tt.key)
			}
			if tt.field.Value != tt.value {
				t.Errorf("value = %v, want %v", tt.field.Value, tt.value)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]Level{
		"debug":   LevelDebug,
		"INFO":    LevelInfo,
		"warning": LevelWarn,
		" error ": LevelError,
		"verbose": LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestGlobalLogger(t *testing.T) {
	Close()
	if _, ok := GetLogger().(noopLogger); !ok {
		t.Fatal("expected no-op logger before Init")
	}
	// no-op must not panic
	Info("ignored")
	With(String("a", "b")).Warn("ignored")

	var buf bytes.Buffer
	SetGlobalLogger(NewWriterLogger(&buf, LevelInfo))
	defer Close()

	Info("global entry", String("k", "v"))
	if !strings.Contains(buf.String(), "global entry k=v") {
		t.Errorf("global logger did not write: %q", buf.String())
	}
}

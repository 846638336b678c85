package logger

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func newBufferLogger(t *testing.T, level Level) (*DefaultLogger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	l, err := NewDefaultLogger(&Config{Level: level, EnableConsole: true, Console: &buf})
	if err != nil {
		t.Fatalf("NewDefaultLogger() error = %v", err)
	}
	return l, &buf
}

func TestFileOutputCreatesDirectory(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "logs", "run.log")

	l, err := NewDefaultLogger(&Config{LogFilePath: logPath, MaxFileSize: 1024, MaxBackups: 3, Level: LevelDebug})
	if err != nil {
		t.Fatalf("NewDefaultLogger() error = %v", err)
	}
	l.Error("translate failed", errors.New("quota exceeded"), Float64("rate", 3.14))
	if err := l.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("log file not written: %v", err)
	}
	for _, want := range []string{"[ERROR] translate failed", `error="quota exceeded"`, "rate=3.14"} {
		if !strings.Contains(string(content), want) {
			t.Errorf("log file missing %q: %q", want, content)
		}
	}
}

func TestEntryFormat(t *testing.T) {
	l, buf := newBufferLogger(t, LevelDebug)

	l.Info("rasterized page", Int("page", 3), Bool("cached", false), Duration("took", 1500*time.Millisecond))
	l.Debug("loaded", String("path", "/tmp/my file.pdf"), String("empty", ""), Any("n", nil))

	out := buf.String()
	for _, want := range []string{
		"[INFO] rasterized page page=3 cached=false took=1.5s",
		`[DEBUG] loaded path="/tmp/my file.pdf" empty="" n=<nil>`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestLevelFiltering(t *testing.T) {
	l, buf := newBufferLogger(t, LevelWarn)

	l.Debug("hidden debug")
	l.Info("hidden info")
	l.Warn("visible warn")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "visible warn") {
		t.Errorf("unexpected output: %q", buf.String())
	}

	l.SetLevel(LevelDebug)
	l.Debug("now visible")
	if !strings.Contains(buf.String(), "now visible") {
		t.Error("SetLevel did not lower the threshold")
	}
}

func TestWithAddsFields(t *testing.T) {
	l, buf := newBufferLogger(t, LevelInfo)

	stage := l.With(String("stage", "translate"))
	stage.Info("unit done", Int("unit", 2))
	stage.With(String("runId", "abc")).Warn("drift")
	l.Info("parent")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("lines = %d: %q", len(lines), buf.String())
	}
	if !strings.HasSuffix(lines[0], "unit done stage=translate unit=2") {
		t.Errorf("line 1 = %q", lines[0])
	}
	if !strings.HasSuffix(lines[1], "drift stage=translate runId=abc") {
		t.Errorf("line 2 = %q", lines[1])
	}
	if strings.Contains(lines[2], "stage=") {
		t.Errorf("parent logger picked up child fields: %q", lines[2])
	}
}

func TestLogRotation(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "rotate.log")

	l, err := NewDefaultLogger(&Config{LogFilePath: logPath, MaxFileSize: 200, MaxBackups: 2, Level: LevelDebug})
	if err != nil {
		t.Fatalf("NewDefaultLogger() error = %v", err)
	}
	for i := 0; i < 20; i++ {
		l.Info(fmt.Sprintf("rotation message number %d", i))
	}
	l.Close()

	for _, suffix := range []string{"", ".1", ".2"} {
		if _, err := os.Stat(logPath + suffix); err != nil {
			t.Errorf("expected %s: %v", filepath.Base(logPath+suffix), err)
		}
	}
	if _, err := os.Stat(logPath + ".3"); !os.IsNotExist(err) {
		t.Error("backups beyond MaxBackups should be removed")
	}
	info, _ := os.Stat(logPath)
	if info != nil && info.Size() > 200 {
		t.Errorf("live log is %d bytes, over the limit", info.Size())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{"", LevelInfo, false},
		{" warning ", LevelWarn, false},
		{"warn", LevelWarn, false},
		{"error", LevelError, false},
		{"verbose", LevelInfo, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
	if Level(9).String() != "UNKNOWN" {
		t.Error("out of range level should print UNKNOWN")
	}
}

func TestGlobalLogger(t *testing.T) {
	defer Close()

	// no-op before Init
	Info("not written anywhere")
	With(String("k", "v")).Info("still nothing")

	var buf bytes.Buffer
	if err := Init(&Config{Level: LevelDebug, EnableConsole: true, Console: &buf}); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	Debug("global debug")
	With(String("stage", "ocr")).Warn("global warn")
	Error("global error", errors.New("bad"))

	out := buf.String()
	for _, want := range []string{"global debug", "global warn stage=ocr", `global error error=bad`} {
		if !strings.Contains(out, want) {
			t.Errorf("global output missing %q: %q", want, out)
		}
	}

	if err := Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if _, ok := GetLogger().(noopLogger); !ok {
		t.Error("GetLogger should return the no-op logger after Close")
	}
}

package log

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestModuleTagsChildLogger(t *testing.T) {
	var buf bytes.Buffer
	h := slog.NewJSONHandler(&buf, nil)
	l := &Logger{inner: slog.New(h)}
	child := l.Module("segment")
	child.Info("closed segment")

	out := buf.String()
	if !strings.Contains(out, `"module":"segment"`) {
		t.Errorf("expected module=segment attribute in output, got %q", out)
	}
	if !strings.Contains(out, "closed segment") {
		t.Errorf("expected message in output, got %q", out)
	}
}

func TestSetDefaultIgnoresNil(t *testing.T) {
	before := Default()
	SetDefault(nil)
	if Default() != before {
		t.Error("SetDefault(nil) should not change the default logger")
	}
}

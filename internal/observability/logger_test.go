package observability

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestU_Logger_MessageTemplate(t *testing.T) {
	buf := &bytes.Buffer{}
	log := NewLogger(buf, InfoLevel)

	log.Info("Operation {OperationId} finalized with status {Status}", "op-123", "success")

	output := buf.String()
	if !strings.Contains(output, "op-123") || !strings.Contains(output, "success") {
		t.Errorf("output missing template properties: %s", output)
	}
}

func TestU_Logger_Levels(t *testing.T) {
	tests := []struct {
		name    string
		level   LogLevel
		logFunc func(Logger)
		want    bool
	}{
		{"[Unit] Levels: info allows info", InfoLevel, func(l Logger) { l.Info("visible") }, true},
		{"[Unit] Levels: info filters debug", InfoLevel, func(l Logger) { l.Debug("visible") }, false},
		{"[Unit] Levels: debug allows debug", DebugLevel, func(l Logger) { l.Debug("visible") }, true},
		{"[Unit] Levels: warn filters info", WarnLevel, func(l Logger) { l.Info("visible") }, false},
		{"[Unit] Levels: error allows error", ErrorLevel, func(l Logger) { l.Error("visible") }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			tt.logFunc(NewLogger(buf, tt.level))
			if got := strings.Contains(buf.String(), "visible"); got != tt.want {
				t.Errorf("output contains message = %v, want %v (%q)", got, tt.want, buf.String())
			}
		})
	}
}

func TestU_Logger_Context(t *testing.T) {
	buf := &bytes.Buffer{}
	log := NewLogger(buf, InfoLevel).ForContext("RequestId", "r-1")

	log.InfoContext(context.Background(), "Build {Result}", "success")

	if !strings.Contains(buf.String(), "success") {
		t.Errorf("output missing message: %s", buf.String())
	}
}

func TestU_NullLogger(t *testing.T) {
	log := NewNullLogger()
	log.Info("ignored {Value}", 1)
	log.ErrorContext(context.Background(), "ignored")
	if log.ForContext("k", "v") == nil {
		t.Error("ForContext should return a logger")
	}
}

func TestU_ParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    LogLevel
		wantErr bool
	}{
		{"debug", DebugLevel, false},
		{"INFO", InfoLevel, false},
		{"", InfoLevel, false},
		{"warning", WarnLevel, false},
		{"warn", WarnLevel, false},
		{"error", ErrorLevel, false},
		{"trace", InfoLevel, true},
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
}

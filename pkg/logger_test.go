package pkg

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	log "github.com/sirupsen/logrus"
)

func TestLogrusIntegration(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(log.StandardLogger().Out)

	Info("sensor ignore rule installed")
	Warn("lock directory recreated")
	Error("rescan write failed")

	output := buf.String()
	for _, msg := range []string{"sensor ignore rule installed", "lock directory recreated", "rescan write failed"} {
		if !strings.Contains(output, msg) {
			t.Errorf("message %q not found in output", msg)
		}
	}
}

func TestStructuredLogging(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(log.StandardLogger().Out)

	ForBus("DPU0", "0000:01:00.0").Info("detaching")
	WithFields(log.Fields{
		"state": "detaching",
		"path":  "/sys/bus/pci/devices/0000:01:00.0/remove",
	}).Info("write")

	output := buf.String()
	if !strings.Contains(output, "module=DPU0") {
		t.Error("module field not found in structured log")
	}
	if !strings.Contains(output, "bus=\"0000:01:00.0\"") {
		t.Error("bus field not found in structured log")
	}
	if !strings.Contains(output, "state=detaching") {
		t.Error("state field not found in structured log")
	}
}

func TestLogLevels(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(log.StandardLogger().Out)
	defer SetLogLevel(LogLevelInfo)

	if err := SetLogLevelFromString("debug"); err != nil {
		t.Fatalf("SetLogLevelFromString(debug) error = %v", err)
	}
	Debug("lock acquired")
	if !strings.Contains(buf.String(), "lock acquired") {
		t.Error("Debug message should be logged at debug level")
	}

	buf.Reset()
	if err := SetLogLevelFromString("warn"); err != nil {
		t.Fatalf("SetLogLevelFromString(warn) error = %v", err)
	}
	Debug("lock acquired")
	Info("rescan triggered")
	Warn("module did not reappear")
	output := buf.String()
	if strings.Contains(output, "lock acquired") || strings.Contains(output, "rescan triggered") {
		t.Error("Debug and info messages should be dropped at warn level")
	}
	if !strings.Contains(output, "module did not reappear") {
		t.Error("Warn message should be logged at warn level")
	}

	if err := SetLogLevelFromString("verbose"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    LogLevel
		wantErr bool
	}{
		{"debug", LogLevelDebug, false},
		{"INFO", LogLevelInfo, false},
		{"", LogLevelInfo, false},
		{"warning", LogLevelWarn, false},
		{"error", LogLevelError, false},
		{"trace", LogLevelInfo, true},
	}

	for _, tt := range tests {
		got, err := ParseLogLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLogLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestErrorLogging(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(log.StandardLogger().Out)

	WithError(errors.New("connection refused")).Error("state store unavailable")

	if !strings.Contains(buf.String(), "connection refused") {
		t.Error("Error message not found in log output")
	}
}

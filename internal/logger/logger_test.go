package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestNewWithWriterLevels(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		level     string
		logDebug  bool
		wantDebug bool
	}{
		{name: "debug level shows debug", level: "debug", logDebug: true, wantDebug: true},
		{name: "info level hides debug", level: "info", logDebug: true, wantDebug: false},
		{name: "unknown level defaults to info", level: "bogus", logDebug: true, wantDebug: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			log := NewWithWriter(tt.level, &buf)
			log.Debug("debug message")

			got := strings.Contains(buf.String(), "debug message")
			if got != tt.wantDebug {
				t.Errorf("debug visible = %v, want %v", got, tt.wantDebug)
			}
		})
	}
}

func TestJSONFieldRenaming(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := NewWithWriter("info", &buf)
	log.Warn("something happened")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log output is not valid JSON: %v", err)
	}

	if _, ok := entry["timestamp"]; !ok {
		t.Error("expected timestamp field")
	}
	if entry["level"] != "warning" {
		t.Errorf("level = %v, want warning", entry["level"])
	}
	if entry["message"] != "something happened" {
		t.Errorf("message = %v, want 'something happened'", entry["message"])
	}
}

func TestWithModuleAndFields(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := NewWithWriter("info", &buf)

	log.WithModule("scraper").
		WithField("department", "DM").
		WithError(errors.New("boom")).
		Info("scrape failed")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log output is not valid JSON: %v", err)
	}

	if entry["module"] != "scraper" {
		t.Errorf("module = %v, want scraper", entry["module"])
	}
	if entry["department"] != "DM" {
		t.Errorf("department = %v, want DM", entry["department"])
	}
	if entry["error"] != "boom" {
		t.Errorf("error = %v, want boom", entry["error"])
	}
}

package observe

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func parseEntries(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var entries []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("Invalid JSON log line %q: %v", line, err)
		}
		entries = append(entries, entry)
	}
	return entries
}

func TestLogger_WritesJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("info", &buf)

	logger.Info(context.Background(), "call completed", Field{Key: "duration_ms", Value: 12.0})

	entries := parseEntries(t, &buf)
	if len(entries) != 1 {
		t.Fatalf("len(entries) = %d, want 1", len(entries))
	}
	if entries[0]["msg"] != "call completed" {
		t.Errorf("msg = %v, want call completed", entries[0]["msg"])
	}
	if entries[0]["level"] != "info" {
		t.Errorf("level = %v, want info", entries[0]["level"])
	}
	if entries[0]["duration_ms"] != 12.0 {
		t.Errorf("duration_ms = %v, want 12", entries[0]["duration_ms"])
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("warn", &buf)
	ctx := context.Background()

	logger.Debug(ctx, "dropped")
	logger.Info(ctx, "dropped")
	logger.Warn(ctx, "kept")
	logger.Error(ctx, "kept")

	if entries := parseEntries(t, &buf); len(entries) != 2 {
		t.Errorf("len(entries) = %d, want 2", len(entries))
	}
}

func TestLogger_WithResource(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("info", &buf).WithResource("billing-api")

	logger.Info(context.Background(), "call rejected")

	entries := parseEntries(t, &buf)
	if len(entries) != 1 {
		t.Fatalf("len(entries) = %d, want 1", len(entries))
	}
	if entries[0]["resource"] != "billing-api" {
		t.Errorf("resource = %v, want billing-api", entries[0]["resource"])
	}
}

func TestParseLogLevel(t *testing.T) {
	if ParseLogLevel("debug") != LevelDebug {
		t.Error("ParseLogLevel(debug) != LevelDebug")
	}
	if ParseLogLevel("unknown") != LevelInfo {
		t.Error("ParseLogLevel(unknown) != LevelInfo")
	}
}

func TestNoopLogger(t *testing.T) {
	var n noopLogger
	ctx := context.Background()
	n.Info(ctx, "ignored")
	n.Warn(ctx, "ignored")
	n.Error(ctx, "ignored")
	n.Debug(ctx, "ignored")
	if n.WithResource("svc") != &n {
		t.Error("WithResource should return the same noop logger")
	}
}

package logging

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNew_FileJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dashsync.log")

	logger, closeFn, err := New(Config{Level: "info", Format: "json", File: path, MaxSizeMB: 1})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	logger.Debug("hidden")
	logger.Info("poll applied", "resource", "status", "seq", 3)
	if err := closeFn(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open log file: %v", err)
	}
	defer f.Close()

	var lines []map[string]any
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var entry map[string]any
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			t.Fatalf("invalid JSON line %q: %v", scanner.Text(), err)
		}
		lines = append(lines, entry)
	}

	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1 (debug filtered)", len(lines))
	}
	if lines[0]["msg"] != "poll applied" || lines[0]["resource"] != "status" || lines[0]["seq"] != float64(3) {
		t.Errorf("entry = %v", lines[0])
	}
}

func TestNew_TextOutput(t *testing.T) {
	var buf bytes.Buffer

	logger, closeFn, err := New(Config{Level: "debug", Output: &buf})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer closeFn()

	logger.Debug("dropped malformed frame", "bytes", 12)

	out := buf.String()
	if !strings.Contains(out, "level=DEBUG") || !strings.Contains(out, "bytes=12") {
		t.Errorf("output = %q", out)
	}
}

func TestNew_Errors(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{"bad level", Config{Level: "loud"}, "parse log level"},
		{"bad format", Config{Level: "info", Format: "xml"}, "unknown log format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := New(tt.cfg)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("New() error = %v, want %q", err, tt.want)
			}
		})
	}
}

package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestConsoleLevel(t *testing.T) {
	var b bytes.Buffer
	log, err := newLogger("warn", FileConfig{}, &b)
	if err != nil {
		t.Fatal(err)
	}
	log.Info("hidden")
	log.Warn("shown", zap.Int("triangles", 12))
	log.Sync()
	out := b.String()
	if strings.Contains(out, "hidden") {
		t.Error("info entry logged at warn level")
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, `"triangles": 12`) {
		t.Errorf("unexpected console output %q", out)
	}
}

func TestFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "surfmesh.log")
	cfg := DefaultFileConfig(path)
	cfg.Compress = false
	log, err := New("debug", cfg, false)
	if err != nil {
		t.Fatal(err)
	}
	log.Debug("adapt pass", zap.Int("splits", 3))
	log.Sync()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(data), &entry); err != nil {
		t.Fatalf("log file is not JSON lines: %v", err)
	}
	if entry["msg"] != "adapt pass" || entry["splits"] != float64(3) || entry["level"] != "debug" {
		t.Errorf("unexpected entry %v", entry)
	}
}

func TestBadLevel(t *testing.T) {
	if _, err := New("loud", FileConfig{}, true); err == nil {
		t.Error("expected error for unknown level")
	}
	log, err := New("info", FileConfig{}, false)
	if err != nil || log == nil {
		t.Fatal("no output logger not created")
	}
	log.Info("discarded")
}

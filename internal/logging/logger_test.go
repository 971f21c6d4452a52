package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"cragcast/internal/config"
)

func TestNew_prodVersionWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := newWithWriter(&buf, config.Config{AppEnv: "prod", LogLevel: slog.LevelInfo}, "1.2.3", "cragcast")

	logger.Info("hello", "crag_id", 7)

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if rec["msg"] != "hello" {
		t.Errorf("msg = %v; want hello", rec["msg"])
	}
	if rec["app"] != "cragcast" || rec["version"] != "1.2.3" || rec["env"] != "prod" {
		t.Errorf("missing app/version/env attrs: %v", rec)
	}
}

func TestNew_devVersionUsesTint(t *testing.T) {
	var buf bytes.Buffer
	logger := newWithWriter(&buf, config.Config{AppEnv: "dev", LogLevel: slog.LevelDebug}, "dev", "cragcast")

	logger.Debug("debugging", "k", "v")

	out := buf.String()
	if !strings.Contains(out, "debugging") {
		t.Errorf("output missing message; got %q", out)
	}
	if strings.HasPrefix(strings.TrimSpace(out), "{") {
		t.Errorf("dev output should not be JSON; got %q", out)
	}
}

func TestNew_respectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := newWithWriter(&buf, config.Config{AppEnv: "prod", LogLevel: slog.LevelWarn}, "1.0.0", "cragcast")

	logger.Info("quiet")
	if buf.Len() != 0 {
		t.Errorf("info record written at warn level: %q", buf.String())
	}
}

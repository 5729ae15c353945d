package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"kassabok/internal/config"
	"kassabok/internal/log"
)

func TestSetupLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := SetupLogger(&config.Config{LogLevel: "warn", LogFormat: "text"}, &buf, log.ComponentCLI)

	logger.Info("hidden")
	logger.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info record should be filtered: %q", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "component=cli") {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestSetupLoggerBadLevel(t *testing.T) {
	var buf bytes.Buffer
	SetupLogger(&config.Config{LogLevel: "loud", LogFormat: "text"}, &buf, log.ComponentCLI)
	if !strings.Contains(buf.String(), "Falling back to info level") {
		t.Errorf("expected fallback warning, got %q", buf.String())
	}
}

func TestLoadEnvFileAndConfig(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	content := "DATA_BACKEND=sqlite\nSQLITE_DB_PATH=" + filepath.Join(dir, "db", "k.db") + "\n"
	if err := os.WriteFile(envFile, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("HOME", dir)
	// godotenv never overrides variables that are already set, so clear
	// them through t.Setenv and unset for the duration of the test.
	for _, key := range []string{"DATA_BACKEND", "SQLITE_DB_PATH"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	LoadEnvFile(envFile)
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.DataBackend != "sqlite" {
		t.Errorf("DataBackend = %q, want sqlite", cfg.DataBackend)
	}

	LoadEnvFile(filepath.Join(dir, "missing.env"))
}

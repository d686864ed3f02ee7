package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadServerDefaults(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("ADDR", "")
	t.Setenv("TOKEN_TTL", "")

	cfg, err := LoadServer()
	if err != nil {
		t.Fatalf("LoadServer failed: %v", err)
	}
	if cfg.Addr != ":8080" {
		t.Errorf("expected default addr, got %q", cfg.Addr)
	}
	if cfg.TokenDuration != 7*24*time.Hour {
		t.Errorf("expected 7d token duration, got %v", cfg.TokenDuration)
	}
}

func TestLoadServerRequiresSecret(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("JWT_SECRET", "")

	if _, err := LoadServer(); err == nil {
		t.Fatal("expected error without JWT_SECRET")
	}
}

func TestLoadClientFromEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client.env")
	content := "VERDANT_SERVER=http://example.test:9000\nFETCH_TIMEOUT=3s\nSCAN_DAILY_LIMIT=5\nPREDICT_ENDPOINT=http://ml.test/predict\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write env file: %v", err)
	}
	t.Setenv("ENV_FILE", path)
	// Registered with t.Setenv so the values loaded from the file are
	// cleared again after the test.
	for _, k := range []string{"VERDANT_SERVER", "FETCH_TIMEOUT", "SCAN_DAILY_LIMIT", "PREDICT_ENDPOINT"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}

	cfg, err := LoadClient()
	if err != nil {
		t.Fatalf("LoadClient failed: %v", err)
	}
	if cfg.ServerURL != "http://example.test:9000" {
		t.Errorf("expected server from env file, got %q", cfg.ServerURL)
	}
	if cfg.FetchTimeout != 3*time.Second {
		t.Errorf("expected 3s fetch timeout, got %v", cfg.FetchTimeout)
	}
	if cfg.ScanDailyLimit != 5 {
		t.Errorf("expected scan limit 5, got %d", cfg.ScanDailyLimit)
	}
	if cfg.PredictEndpoint != "http://ml.test/predict" {
		t.Errorf("expected predict endpoint from env file, got %q", cfg.PredictEndpoint)
	}
	if cfg.PrefetchPacing != 100*time.Millisecond {
		t.Errorf("expected default pacing, got %v", cfg.PrefetchPacing)
	}
}

func TestInvalidDuration(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("FETCH_TIMEOUT", "soon")

	if _, err := LoadClient(); err == nil {
		t.Fatal("expected error for invalid duration")
	}
}

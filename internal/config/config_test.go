// File path: internal/config/config_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load defaults: %v", err)
	}
	if cfg.Addr != DefaultAddr {
		t.Fatalf("addr: want %q, got %q", DefaultAddr, cfg.Addr)
	}
	if cfg.ConfidenceThreshold != DefaultConfidenceThreshold {
		t.Fatalf("threshold: want %v, got %v", DefaultConfidenceThreshold, cfg.ConfidenceThreshold)
	}
	if cfg.SkipVerification {
		t.Fatalf("signature verification must default on")
	}
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `addr: ":9090"
confidence_threshold: 0.7
webhook_primary_key: yaml-key
monitored_folders:
  - "100"
  - "200"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":9090" || cfg.ConfidenceThreshold != 0.7 {
		t.Fatalf("yaml values not applied: %+v", cfg)
	}
	if len(cfg.MonitoredFolders) != 2 || cfg.MonitoredFolders[0] != "100" {
		t.Fatalf("monitored folders: %v", cfg.MonitoredFolders)
	}
	if cfg.QueueMaxSize != DefaultQueueMaxSize {
		t.Fatalf("unset yaml field must keep default, got %d", cfg.QueueMaxSize)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("addr: \":9090\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("DOCFLOW_ADDR", ":7070")
	t.Setenv("DOCFLOW_CONFIDENCE_THRESHOLD", "0.65")
	t.Setenv("DOCFLOW_SKIP_SIGNATURE_VERIFICATION", "true")
	t.Setenv("DOCFLOW_MONITORED_FOLDERS", "1, 2 ,3")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":7070" {
		t.Fatalf("env must override file, got %q", cfg.Addr)
	}
	if cfg.ConfidenceThreshold != 0.65 {
		t.Fatalf("threshold env override: got %v", cfg.ConfidenceThreshold)
	}
	if !cfg.SkipVerification {
		t.Fatalf("skip verification env override not applied")
	}
	if len(cfg.MonitoredFolders) != 3 || cfg.MonitoredFolders[1] != "2" {
		t.Fatalf("folder list env override: %v", cfg.MonitoredFolders)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatalf("expected error for missing explicit config file")
	}
}

func TestValidateRejectsBadThreshold(t *testing.T) {
	cfg := Default()
	cfg.ConfidenceThreshold = 1.5
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected validation error for threshold > 1")
	}
}

func TestAuditPathDefault(t *testing.T) {
	cfg := Default()
	cfg.DataDir = "state"
	if got := cfg.AuditPath(); got != filepath.Join("state", "catalog.db") {
		t.Fatalf("audit path default: %q", got)
	}
	cfg.AuditDBPath = "/tmp/custom.db"
	if got := cfg.AuditPath(); got != "/tmp/custom.db" {
		t.Fatalf("audit path override: %q", got)
	}
}

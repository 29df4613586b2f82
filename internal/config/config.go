// File path: internal/config/config.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	DefaultAddr                = ":8080"
	DefaultDataDir             = "data"
	DefaultConfidenceThreshold = 0.85
	DefaultQueueMaxSize        = 1000
	DefaultMonitorSchedule     = "*/5 * * * *"
	DefaultExternalTimeoutSecs = 30
)

// Config holds the full service configuration. Values are resolved in
// order: defaults, YAML file, DOCFLOW_* environment variables, and finally
// command-line flags applied by the caller.
type Config struct {
	Addr                string   `yaml:"addr"`
	DataDir             string   `yaml:"data_dir"`
	ConfidenceThreshold float64  `yaml:"confidence_threshold"`
	QueueMaxSize        int      `yaml:"queue_max_size"`
	WebhookPrimaryKey   string   `yaml:"webhook_primary_key"`
	WebhookSecondaryKey string   `yaml:"webhook_secondary_key"`
	SkipVerification    bool     `yaml:"skip_signature_verification"`
	CallbackURL         string   `yaml:"callback_url"`
	MonitoredFolders    []string `yaml:"monitored_folders"`
	MonitorSchedule     string   `yaml:"monitor_schedule"`
	ContentAPIBase      string   `yaml:"content_api_base"`
	ContentAPIToken     string   `yaml:"content_api_token"`
	AuditDBPath         string   `yaml:"audit_db_path"`
	ExternalTimeoutSecs int      `yaml:"external_http_timeout_seconds"`
}

// Default returns a configuration populated with built-in defaults.
func Default() Config {
	return Config{
		Addr:                DefaultAddr,
		DataDir:             DefaultDataDir,
		ConfidenceThreshold: DefaultConfidenceThreshold,
		QueueMaxSize:        DefaultQueueMaxSize,
		MonitorSchedule:     DefaultMonitorSchedule,
		ExternalTimeoutSecs: DefaultExternalTimeoutSecs,
	}
}

// Load builds a Config from defaults, an optional YAML file, and DOCFLOW_*
// environment variables. An empty path skips the file step; a missing file
// at an explicit path is an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
		var fileCfg Config
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
		cfg.merge(fileCfg)
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks value ranges that would otherwise fail deep inside the
// pipeline.
func (c *Config) Validate() error {
	if c.ConfidenceThreshold < 0 || c.ConfidenceThreshold > 1 {
		return fmt.Errorf("config: confidence_threshold %.2f out of range [0,1]", c.ConfidenceThreshold)
	}
	if c.QueueMaxSize <= 0 {
		return fmt.Errorf("config: queue_max_size must be positive, got %d", c.QueueMaxSize)
	}
	return nil
}

// AuditPath returns the sqlite catalog path, defaulting to
// data_dir/catalog.db when unset.
func (c *Config) AuditPath() string {
	if c.AuditDBPath != "" {
		return c.AuditDBPath
	}
	return filepath.Join(c.DataDir, "catalog.db")
}

func (c *Config) merge(o Config) {
	if o.Addr != "" {
		c.Addr = o.Addr
	}
	if o.DataDir != "" {
		c.DataDir = o.DataDir
	}
	if o.ConfidenceThreshold != 0 {
		c.ConfidenceThreshold = o.ConfidenceThreshold
	}
	if o.QueueMaxSize != 0 {
		c.QueueMaxSize = o.QueueMaxSize
	}
	if o.WebhookPrimaryKey != "" {
		c.WebhookPrimaryKey = o.WebhookPrimaryKey
	}
	if o.WebhookSecondaryKey != "" {
		c.WebhookSecondaryKey = o.WebhookSecondaryKey
	}
	if o.SkipVerification {
		c.SkipVerification = true
	}
	if o.CallbackURL != "" {
		c.CallbackURL = o.CallbackURL
	}
	if len(o.MonitoredFolders) > 0 {
		c.MonitoredFolders = o.MonitoredFolders
	}
	if o.MonitorSchedule != "" {
		c.MonitorSchedule = o.MonitorSchedule
	}
	if o.ContentAPIBase != "" {
		c.ContentAPIBase = o.ContentAPIBase
	}
	if o.ContentAPIToken != "" {
		c.ContentAPIToken = o.ContentAPIToken
	}
	if o.AuditDBPath != "" {
		c.AuditDBPath = o.AuditDBPath
	}
	if o.ExternalTimeoutSecs != 0 {
		c.ExternalTimeoutSecs = o.ExternalTimeoutSecs
	}
}

func (c *Config) applyEnv() {
	setString := func(key string, dst *string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}
	setString("DOCFLOW_ADDR", &c.Addr)
	setString("DOCFLOW_DATA_DIR", &c.DataDir)
	setString("DOCFLOW_WEBHOOK_PRIMARY_KEY", &c.WebhookPrimaryKey)
	setString("DOCFLOW_WEBHOOK_SECONDARY_KEY", &c.WebhookSecondaryKey)
	setString("DOCFLOW_CALLBACK_URL", &c.CallbackURL)
	setString("DOCFLOW_MONITOR_SCHEDULE", &c.MonitorSchedule)
	setString("DOCFLOW_CONTENT_API_BASE", &c.ContentAPIBase)
	setString("DOCFLOW_CONTENT_API_TOKEN", &c.ContentAPIToken)
	setString("DOCFLOW_AUDIT_DB_PATH", &c.AuditDBPath)

	if v := strings.TrimSpace(os.Getenv("DOCFLOW_CONFIDENCE_THRESHOLD")); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.ConfidenceThreshold = f
		}
	}
	if v := strings.TrimSpace(os.Getenv("DOCFLOW_QUEUE_MAX_SIZE")); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.QueueMaxSize = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("DOCFLOW_SKIP_SIGNATURE_VERIFICATION")); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.SkipVerification = b
		}
	}
	if v := strings.TrimSpace(os.Getenv("DOCFLOW_MONITORED_FOLDERS")); v != "" {
		parts := strings.Split(v, ",")
		folders := parts[:0]
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				folders = append(folders, p)
			}
		}
		if len(folders) > 0 {
			c.MonitoredFolders = folders
		}
	}
	if v := strings.TrimSpace(os.Getenv("DOCFLOW_EXTERNAL_HTTP_TIMEOUT_SECONDS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.ExternalTimeoutSecs = n
		}
	}
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Report.BatchSize != 200 {
		t.Errorf("batch_size = %d, want 200", cfg.Report.BatchSize)
	}
	if cfg.Report.CacheTTL != 10*time.Minute {
		t.Errorf("cache_ttl = %v", cfg.Report.CacheTTL)
	}
	if len(cfg.Report.Signatures) != 3 {
		t.Errorf("signatures = %v", cfg.Report.Signatures)
	}
	if cfg.Feature.ExportHistoryEnabled {
		t.Error("导出历史默认应关闭")
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("VOTECH_SERVER_PORT", "9090")
	t.Setenv("VOTECH_REPORT_SCHOOL_NAME", "GTHS Bamenda")
	t.Setenv("VOTECH_REPORT_MAX_STUDENTS", "50")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Report.SchoolName != "GTHS Bamenda" || cfg.Report.MaxStudents != 50 {
		t.Errorf("report = %+v", cfg.Report)
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "report:\n  batch_size: 50\n  job_timeout: 30s\nfeature:\n  rate_limit_enabled: false\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Report.BatchSize != 50 || cfg.Report.JobTimeout != 30*time.Second {
		t.Errorf("report = %+v", cfg.Report)
	}
	if cfg.Feature.RateLimitEnabled {
		t.Error("rate limit should be disabled by file")
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:  ServerConfig{Port: 8080, MaxBodyBytes: 1 << 20, RateLimit: RateLimitConfig{Limit: 10, Window: time.Minute}},
			Report:  ReportConfig{BatchSize: 200, JobTimeout: time.Minute},
			Feature: FeatureConfig{RateLimitEnabled: true},
		}
	}
	if err := valid().Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"端口越界", func(c *Config) { c.Server.Port = 70000 }},
		{"批大小为 0", func(c *Config) { c.Report.BatchSize = 0 }},
		{"人数上限为负", func(c *Config) { c.Report.MaxStudents = -1 }},
		{"任务超时为 0", func(c *Config) { c.Report.JobTimeout = 0 }},
		{"限流窗口为 0", func(c *Config) { c.Server.RateLimit.Window = 0 }},
		{"请求体上限为 0", func(c *Config) { c.Server.MaxBodyBytes = 0 }},
	}
	for _, tt := range tests {
		cfg := valid()
		tt.mutate(cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected validation error", tt.name)
		}
	}
}
